// Package events publishes pitch status transitions to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// StatusChanged is emitted on every pitch status transition.
type StatusChanged struct {
	PitchID      string    `json:"pitchId"`
	UserID       string    `json:"userId"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	AnalysisID   string    `json:"analysisId,omitempty"`
	OverallScore int       `json:"overallScore,omitempty"`
	Strategy     string    `json:"strategy,omitempty"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher delivers status events. Publishing is best-effort; callers log
// failures and carry on.
type Publisher interface {
	PublishStatus(ctx context.Context, ev StatusChanged) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishStatus(context.Context, StatusChanged) error { return nil }
func (Nop) Close() error                                        { return nil }

// Writer is the subset of *kafka.Writer used here.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  Writer
	timeout time.Duration
}

// NewKafkaPublisher writes to topic, keyed by pitch ID so one pitch's events
// stay ordered within a partition.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return NewPublisherWithWriter(w), nil
}

func NewPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) PublishStatus(ctx context.Context, ev StatusChanged) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(ev.PitchID),
		Value: payload,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("pitch.status_changed")},
			{Key: "request-id", Value: []byte(ev.RequestID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish pitch=%s: %w", ev.PitchID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var (
	_ Publisher = Nop{}
	_ Publisher = (*KafkaPublisher)(nil)
)
