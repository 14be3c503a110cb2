package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zii786/pitchframe/internal/shared/cache"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// CachingClient memoises successful provider payloads by prompt hash and
// collapses concurrent identical requests.
type CachingClient struct {
	base     Client
	cache    cache.Cache
	provider string
	ttl      time.Duration
	accept   func(json.RawMessage) error
	group    singleflight.Group
}

// NewCachingClient wraps base. Only payloads that accept approves are stored;
// a nil accept stores any syntactically valid JSON.
func NewCachingClient(base Client, c cache.Cache, provider string, ttl time.Duration, accept func(json.RawMessage) error) Client {
	if base == nil || c == nil {
		return base
	}
	if accept == nil {
		accept = validJSON
	}
	return &CachingClient{base: base, cache: c, provider: provider, ttl: ttl, accept: accept}
}

var errInvalidJSON = errors.New("invalid JSON")

func validJSON(raw json.RawMessage) error {
	if !json.Valid(raw) {
		return errInvalidJSON
	}
	return nil
}

func (c *CachingClient) ScorePitch(ctx context.Context, input PitchInput) (json.RawMessage, error) {
	key := CacheKey(c.provider, input)

	if data, err := c.cache.Get(ctx, key); err == nil {
		return json.RawMessage(data), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		telemetry.Warn("llm.cache_get_failed", map[string]any{"provider": c.provider, "error": err.Error()})
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		raw, err := c.base.ScorePitch(ctx, input)
		if err != nil {
			return nil, err
		}
		if rejectErr := c.accept(raw); rejectErr != nil {
			telemetry.Debug("llm.cache_skip", map[string]any{"provider": c.provider, "reason": rejectErr.Error()})
			return raw, nil
		}
		if setErr := c.cache.Set(ctx, key, raw, c.ttl); setErr != nil {
			telemetry.Warn("llm.cache_set_failed", map[string]any{"provider": c.provider, "error": setErr.Error()})
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// CacheKey hashes everything that influences the provider response.
func CacheKey(provider string, input PitchInput) string {
	h := sha256.New()
	for _, part := range []string{provider, input.Model, input.PromptVersion, input.System, input.Prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "llm:" + hex.EncodeToString(h.Sum(nil))
}
