package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zii786/pitchframe/internal/llm"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2000
	temperature      = 0.3
)

var apiURL = "https://api.openai.com/v1/chat/completions"

// Client scores pitches with OpenAI Chat Completions in JSON mode.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a client; blank model and endpoint select gpt-4o-mini on
// the public API.
func NewClient(apiKey, model, endpoint string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", llm.ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: llm.NewHTTPClient(timeout),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float32        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type tokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *tokenUsage `json:"usage,omitempty"`
}

func (c *Client) ScorePitch(ctx context.Context, input llm.PitchInput) (json.RawMessage, error) {
	model := c.model
	if m := strings.TrimSpace(input.Model); m != "" {
		model = m
	}
	url := apiURL
	if c.endpoint != "" {
		url = c.endpoint
	}

	var out chatResponse
	err := llm.PostJSON(ctx, c.httpClient, "openai", url,
		http.Header{"Authorization": {"Bearer " + c.apiKey}},
		chatRequest{
			Model:          model,
			Messages:       BuildMessages(input),
			Temperature:    temperature,
			MaxTokens:      defaultMaxTokens,
			ResponseFormat: responseFormat{Type: "json_object"},
		}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai response missing choices")
	}
	content := llm.CleanJSONBlock(out.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New("openai response empty content")
	}

	fields := map[string]any{"provider": "openai", "model": model, "prompt_version": input.PromptVersion}
	if out.Usage != nil {
		fields["input_tokens"] = out.Usage.PromptTokens
		fields["output_tokens"] = out.Usage.CompletionTokens
	}
	telemetry.Debug("llm.response", fields)
	return json.RawMessage(content), nil
}

var _ llm.Client = (*Client)(nil)
