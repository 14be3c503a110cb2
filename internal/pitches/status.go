package pitches

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a pitch submission.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the pitch's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusError},
	StatusProcessing: {StatusCompleted, StatusError},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown pitch status %q", raw)
	}
	return s, nil
}

func transitionLabel(from, to Status) string {
	return string(from) + "->" + string(to)
}
