// Package queue carries pitch processing jobs over SQS.
package queue

import (
	"encoding/json"
	"time"
)

const MessageVersion = 1

// Message asks a worker to process one pending pitch.
type Message struct {
	PitchID    string    `json:"pitchId"`
	RequestID  string    `json:"requestId,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Version    int       `json:"version"`
}

func NewMessage(pitchID, requestID string, now time.Time) Message {
	return Message{PitchID: pitchID, RequestID: requestID, EnqueuedAt: now.UTC(), Version: MessageVersion}
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
