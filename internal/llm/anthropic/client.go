package anthropic

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
	defaultModel     = "claude-3-5-haiku-latest"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 2000
)

var apiURL = "https://api.anthropic.com/v1/messages"

// Client scores pitches with the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewClient(apiKey, model, endpoint string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required: %w", llm.ErrNotConfigured)
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

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Usage   *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// text joins the text blocks of a reply; tool and image blocks are ignored.
func (r messagesResponse) text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
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

	var out messagesResponse
	err := llm.PostJSON(ctx, c.httpClient, "anthropic", url,
		http.Header{"X-Api-Key": {c.apiKey}, "Anthropic-Version": {apiVersion}},
		messagesRequest{
			Model:     model,
			MaxTokens: defaultMaxTokens,
			System:    input.System,
			Messages:  []message{{Role: "user", Content: input.Prompt}},
		}, &out)
	if err != nil {
		return nil, err
	}
	content := llm.CleanJSONBlock(out.text())
	if content == "" {
		return nil, errors.New("anthropic response empty content")
	}

	fields := map[string]any{"provider": "anthropic", "model": model, "prompt_version": input.PromptVersion}
	if out.Usage != nil {
		fields["input_tokens"] = out.Usage.InputTokens
		fields["output_tokens"] = out.Usage.OutputTokens
	}
	telemetry.Debug("llm.response", fields)
	return json.RawMessage(content), nil
}

var _ llm.Client = (*Client)(nil)
