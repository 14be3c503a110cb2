package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/zii786/pitchframe/internal/shared/metrics"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// Outcome tells the consumer what to do with a message after handling.
type Outcome int

const (
	// Ack deletes the message.
	Ack Outcome = iota
	// Retry leaves the message to reappear after the visibility timeout.
	Retry
	// Drop deletes a message that can never succeed.
	Drop
)

// Delivery is one received message.
type Delivery struct {
	MessageID    string
	Body         string
	ReceiveCount int
}

// Handler processes one delivery.
type Handler func(ctx context.Context, d Delivery) Outcome

// Consumer long-polls SQS and runs Handler with bounded concurrency.
type Consumer struct {
	API               SQSAPI
	QueueURL          string
	Concurrency       int
	VisibilityTimeout time.Duration
	WaitTime          time.Duration
	ShutdownTimeout   time.Duration
	Handler           Handler
}

// Run polls until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight handlers. Handlers keep a live context during that window; it is
// cancelled only when the timeout expires.
func (c *Consumer) Run(ctx context.Context) error {
	if c.API == nil || c.QueueURL == "" || c.Handler == nil {
		return errors.New("queue consumer is not configured")
	}
	sem := make(chan struct{}, max(1, c.Concurrency))
	var wg sync.WaitGroup
	workCtx, stopWork := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWork()

	telemetry.Info("worker.started", map[string]any{
		"queue_url":   c.QueueURL,
		"concurrency": cap(sem),
	})

poll:
	for ctx.Err() == nil {
		out, err := c.API.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.QueueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     int32(c.waitTime().Seconds()),
			VisibilityTimeout:   int32(c.visibility().Seconds()),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}

		for _, m := range out.Messages {
			select {
			case <-ctx.Done():
				break poll
			case sem <- struct{}{}:
			}
			metrics.IncAnalysisJobsReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				c.handle(workCtx, m)
			}(m)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.shutdownTimeout()):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, m sqstypes.Message) {
	d := Delivery{
		MessageID:    aws.ToString(m.MessageId),
		Body:         aws.ToString(m.Body),
		ReceiveCount: receiveCount(m),
	}
	outcome := c.Handler(ctx, d)
	if outcome == Retry {
		metrics.IncAnalysisJobsFailed()
		return
	}
	// Deletion uses a fresh context so a shutdown does not leave finished work
	// to be redelivered.
	delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := c.API.DeleteMessage(delCtx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.QueueURL),
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		telemetry.Error("worker.delete_failed", map[string]any{"sqs_message_id": d.MessageID, "error": err.Error()})
		return
	}
	if outcome == Drop {
		metrics.IncAnalysisJobsDeletedUnrecoverable()
		return
	}
	metrics.IncAnalysisJobsCompleted()
}

func (c *Consumer) waitTime() time.Duration {
	if c.WaitTime <= 0 || c.WaitTime > 20*time.Second {
		return 20 * time.Second
	}
	return c.WaitTime
}

func (c *Consumer) visibility() time.Duration {
	if c.VisibilityTimeout <= 0 {
		return 20 * time.Minute
	}
	return c.VisibilityTimeout
}

func (c *Consumer) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 30 * time.Second
	}
	return c.ShutdownTimeout
}

func receiveCount(m sqstypes.Message) int {
	n, _ := strconv.Atoi(m.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)])
	return n
}
