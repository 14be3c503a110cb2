package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxResponseBytes = 4 << 20

// NewHTTPClient returns the client used by the REST providers. Zero means
// two minutes.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

// PostJSON sends in as a JSON body and decodes a 2xx reply into out. Other
// statuses become *StatusError; the message is taken from a top-level
// {"error":{"message":...}} object when the provider sends one.
func PostJSON(ctx context.Context, hc *http.Client, provider, url string, header http.Header, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s request timeout: %w", provider, err)
		}
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		se := &StatusError{Provider: provider, StatusCode: resp.StatusCode}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			se.Message = envelope.Error.Message
		}
		return se
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s response parse: %w", provider, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
