package queue

import (
	"testing"
	"time"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := NewMessage("pitch-123", "request-456", time.Date(2026, 1, 30, 22, 0, 0, 0, time.FixedZone("x", 3600)))

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if got.PitchID != "pitch-123" || got.RequestID != "request-456" || got.Version != MessageVersion {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.EnqueuedAt.Equal(msg.EnqueuedAt) || got.EnqueuedAt.Location() != time.UTC {
		t.Fatalf("expected UTC enqueue time, got %v", got.EnqueuedAt)
	}
}

func TestDecodeMessageRejectsGarbage(t *testing.T) {
	if _, err := DecodeMessage([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
