package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/zii786/pitchframe/internal/llm"
)

const defaultModel = "gemini-1.5-flash"

// Client implements llm.Client on Google Gemini.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model, endpoint string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required: %w", llm.ErrNotConfigured)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(endpoint) != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) ScorePitch(ctx context.Context, input llm.PitchInput) (json.RawMessage, error) {
	name := c.model
	if strings.TrimSpace(input.Model) != "" {
		name = input.Model
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"
	if strings.TrimSpace(input.System) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(input.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(input.Prompt))
	if err != nil {
		return nil, toStatusError(err)
	}
	text, err := extractText(resp)
	if err != nil {
		return nil, err
	}
	content := llm.CleanJSONBlock(text)
	if content == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}
	return json.RawMessage(content), nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini response missing candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response empty content")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini response empty content")
	}
	return strings.Join(parts, ""), nil
}

func toStatusError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return fmt.Errorf("gemini generate: %w", err)
}

var _ llm.Client = (*Client)(nil)
