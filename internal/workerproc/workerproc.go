// Package workerproc turns raw queue payloads into pitch processing calls. It
// is shared by the long-polling worker and the Lambda SQS handler.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/zii786/pitchframe/internal/pitches"
	"github.com/zii786/pitchframe/internal/queue"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// Processor runs the pipeline for one pitch.
type Processor interface {
	ProcessPitch(ctx context.Context, pitchID string) error
}

// MessageMeta identifies a payload in logs without logging its content.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

type ErrMissingPitchID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingPitchID) Error() string { return "missing pitch id" }

// ErrProcess reports a failure after the message was decoded.
type ErrProcess struct {
	PitchID   string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process pitch"
	}
	return "process pitch " + e.PitchID + ": " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes a queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.PitchID) == "" {
		return msg, meta, ErrMissingPitchID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses body and processes the pitch it names.
func HandleMessage(ctx context.Context, proc Processor, body string) error {
	if proc == nil {
		return errors.New("pitch processor not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	ctx = pitches.WithRequestID(ctx, msg.RequestID)
	if err := proc.ProcessPitch(ctx, msg.PitchID); err != nil {
		return ErrProcess{PitchID: msg.PitchID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Unrecoverable reports errors that will fail the same way on every
// redelivery, so the message should be deleted rather than retried.
func Unrecoverable(err error) bool {
	var (
		empty   ErrEmptyBody
		decode  ErrDecode
		missing ErrMissingPitchID
	)
	switch {
	case errors.As(err, &empty), errors.As(err, &decode), errors.As(err, &missing):
		return true
	case errors.Is(err, pitches.ErrNotFound):
		return true
	}
	return false
}

// Handler adapts proc to a queue consumer.
func Handler(proc Processor) queue.Handler {
	return func(ctx context.Context, d queue.Delivery) queue.Outcome {
		err := HandleMessage(ctx, proc, d.Body)
		if err == nil {
			return queue.Ack
		}
		meta := ComputeMeta(d.Body)
		fields := map[string]any{
			"sqs_message_id": d.MessageID,
			"receive_count":  d.ReceiveCount,
			"body_len":       meta.BodyLen,
			"body_sha256":    meta.BodySHA,
			"error":          err.Error(),
		}
		var perr ErrProcess
		if errors.As(err, &perr) {
			fields["pitch_id"] = perr.PitchID
			fields["request_id"] = perr.RequestID
		}
		if Unrecoverable(err) {
			telemetry.Warn("worker.message_dropped", fields)
			return queue.Drop
		}
		telemetry.Error("worker.message_failed", fields)
		return queue.Retry
	}
}
