package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/zii786/pitchframe/internal/bootstrap"
	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/metrics"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
	"github.com/zii786/pitchframe/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	proc     workerproc.Processor
)

func initApp() {
	app, err := bootstrap.Build(context.Background(), config.Load())
	if err != nil {
		initErr = err
		return
	}
	proc = app.Pitches
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return events.SQSEventResponse{BatchItemFailures: allFailed(event)}, initErr
	}
	return handleBatch(ctx, proc, event), nil
}

// handleBatch reports only retryable failures back to SQS; unrecoverable
// messages are acknowledged so they do not cycle until the DLQ.
func handleBatch(ctx context.Context, p workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncAnalysisJobsReceived()
		err := workerproc.HandleMessage(ctx, p, record.Body)
		switch {
		case err == nil:
			metrics.IncAnalysisJobsCompleted()
		case workerproc.Unrecoverable(err):
			telemetry.Warn("worker.message_dropped", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncAnalysisJobsDeletedUnrecoverable()
		default:
			telemetry.Error("worker.message_failed", map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()})
			metrics.IncAnalysisJobsFailed()
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}
	return events.SQSEventResponse{BatchItemFailures: failures}
}

func allFailed(event events.SQSEvent) []events.SQSBatchItemFailure {
	failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
	for _, record := range event.Records {
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}
	return failures
}

func main() {
	lambda.Start(handler)
}
