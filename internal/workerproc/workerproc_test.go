package workerproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zii786/pitchframe/internal/pitches"
	"github.com/zii786/pitchframe/internal/queue"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

type fakeProcessor struct {
	calls     []string
	requestID string
	err       error
}

func (f *fakeProcessor) ProcessPitch(ctx context.Context, pitchID string) error {
	f.calls = append(f.calls, pitchID)
	f.requestID = pitches.RequestIDFromContext(ctx)
	return f.err
}

func body(t *testing.T, msg queue.Message) string {
	t.Helper()
	b, err := queue.EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestParseMessageErrors(t *testing.T) {
	if _, _, err := ParseMessage("  "); !errors.As(err, new(ErrEmptyBody)) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
	_, meta, err := ParseMessage("{nope")
	if !errors.As(err, new(ErrDecode)) || meta.BodyLen != 5 || len(meta.BodySHA) != 64 {
		t.Fatalf("expected ErrDecode with meta, got %v %+v", err, meta)
	}
	if _, _, err := ParseMessage(`{"requestId":"r1"}`); !errors.As(err, new(ErrMissingPitchID)) {
		t.Fatalf("expected ErrMissingPitchID, got %v", err)
	}
}

func TestHandleMessageCarriesRequestID(t *testing.T) {
	proc := &fakeProcessor{}
	err := HandleMessage(context.Background(), proc, body(t, queue.NewMessage("p1", "r1", time.Now())))
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(proc.calls) != 1 || proc.calls[0] != "p1" || proc.requestID != "r1" {
		t.Fatalf("unexpected processor state %+v", proc)
	}
}

func TestHandlerOutcomes(t *testing.T) {
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()
	good := body(t, queue.NewMessage("p1", "", time.Now()))

	tests := map[string]struct {
		body string
		err  error
		want queue.Outcome
	}{
		"success":         {good, nil, queue.Ack},
		"garbage":         {"not json", nil, queue.Drop},
		"missing pitch":   {good, fmt.Errorf("load pitch: %w", pitches.ErrNotFound), queue.Drop},
		"transient error": {good, errors.New("db unavailable"), queue.Retry},
	}
	for name, tt := range tests {
		h := Handler(&fakeProcessor{err: tt.err})
		if got := h(context.Background(), queue.Delivery{MessageID: "m1", Body: tt.body}); got != tt.want {
			t.Fatalf("%s: outcome = %v, want %v", name, got, tt.want)
		}
	}
}
