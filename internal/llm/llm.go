package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Client abstracts the remote providers that can score a pitch.
type Client interface {
	ScorePitch(ctx context.Context, input PitchInput) (json.RawMessage, error)
}

// PitchInput is the prompt material for one scoring request.
type PitchInput struct {
	System        string
	Prompt        string
	Model         string
	PromptVersion string
}

// ErrNotConfigured is returned when a provider is selected without credentials.
var ErrNotConfigured = errors.New("LLM provider not configured")

// StatusError is a non-2xx provider response.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s http status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// CleanJSONBlock strips a surrounding markdown code fence, if any.
func CleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
