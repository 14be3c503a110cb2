package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/zii786/pitchframe/internal/bootstrap"
	"github.com/zii786/pitchframe/internal/queue"
	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/workerproc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	if cfg.SQSQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL is required")
	}

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	if err := run(ctx, app.SQS, cfg, app.Pitches); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func run(ctx context.Context, api queue.SQSAPI, cfg config.Config, proc workerproc.Processor) error {
	c := newConsumer(api, cfg, proc)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newConsumer(api queue.SQSAPI, cfg config.Config, proc workerproc.Processor) *queue.Consumer {
	return &queue.Consumer{
		API:               api,
		QueueURL:          cfg.SQSQueueURL,
		Concurrency:       cfg.WorkerConcurrency,
		VisibilityTimeout: cfg.WorkerVisibilityTimeout,
		Handler:           workerproc.Handler(proc),
	}
}
