// Package engine is the single entry point that turns pitch text into an
// Analysis using a per-call scoring configuration.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zii786/pitchframe/internal/llm"
	"github.com/zii786/pitchframe/internal/llm/anthropic"
	"github.com/zii786/pitchframe/internal/llm/gemini"
	"github.com/zii786/pitchframe/internal/llm/openai"
	"github.com/zii786/pitchframe/internal/scoring"
	"github.com/zii786/pitchframe/internal/shared/cache"
	"github.com/zii786/pitchframe/internal/shared/metrics"
	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// ErrInvalidConfig wraps every failure to resolve a scorer from a ScoringConfig.
var ErrInvalidConfig = errors.New("invalid scoring configuration")

// ClientFactory builds a provider client from the call's configuration.
type ClientFactory func(ctx context.Context, cfg scoring.ScoringConfig) (llm.Client, error)

type Engine struct {
	providers map[scoring.Strategy]ClientFactory
	cache     cache.Cache
	cacheTTL  time.Duration
	mock      *scoring.MockScorer
	now       func() time.Time
	newID     func() string

	mu         sync.Mutex
	clients    map[string]providerClient
	order      []string
	maxClients int
}

// DefaultMaxClients bounds the provider clients an Engine keeps open.
const DefaultMaxClients = 16

type providerClient struct {
	llm.Client
	closer io.Closer
}

type Option func(*Engine)

// WithProvider overrides the client factory for one external strategy.
func WithProvider(s scoring.Strategy, f ClientFactory) Option {
	return func(e *Engine) { e.providers[s] = f }
}

// WithCache memoises successful provider payloads.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

func WithMockSeed(seed int64) Option {
	return func(e *Engine) { e.mock = scoring.NewMockScorer(seed) }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// WithMaxClients caps the provider clients kept for reuse. The oldest client
// is closed when the cap is reached.
func WithMaxClients(n int) Option {
	return func(e *Engine) { e.maxClients = n }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		providers: map[scoring.Strategy]ClientFactory{
			scoring.StrategyOpenAI: func(_ context.Context, cfg scoring.ScoringConfig) (llm.Client, error) {
				return openai.NewClient(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout)
			},
			scoring.StrategyAnthropic: func(_ context.Context, cfg scoring.ScoringConfig) (llm.Client, error) {
				return anthropic.NewClient(cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout)
			},
			scoring.StrategyGemini: func(ctx context.Context, cfg scoring.ScoringConfig) (llm.Client, error) {
				return gemini.NewClient(ctx, cfg.APIKey, cfg.Model, cfg.Endpoint)
			},
		},
		now:        time.Now,
		newID:      uuid.NewString,
		clients:    map[string]providerClient{},
		maxClients: DefaultMaxClients,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.mock == nil {
		e.mock = scoring.NewMockScorer(0)
	}
	return e
}

// Analyze scores text with the strategy named in cfg. Blank text fails with
// *scoring.EmptyInputError before any scorer runs.
func (e *Engine) Analyze(ctx context.Context, text string, cfg scoring.ScoringConfig) (scoring.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return scoring.Analysis{}, &scoring.EmptyInputError{}
	}
	scorer, err := e.Scorer(ctx, cfg)
	if err != nil {
		return scoring.Analysis{}, err
	}

	a, err := scorer.Score(ctx, text)
	if err != nil {
		return scoring.Analysis{}, err
	}
	a.ID = e.newID()
	a.Timestamp = e.now().UTC()
	a.ExtractedContent = scoring.Excerpt(text)
	return a, nil
}

// Scorer resolves the strategy for cfg.
func (e *Engine) Scorer(ctx context.Context, cfg scoring.ScoringConfig) (scoring.Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.WithDefaults()

	switch {
	case cfg.Strategy == scoring.StrategyHeuristic:
		return scoring.HeuristicScorer{}, nil
	case cfg.Strategy == scoring.StrategyMock:
		return e.mock, nil
	case cfg.Strategy.External():
		client, err := e.client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &scoring.ExternalServiceScorer{
			Provider:       cfg.Strategy,
			Client:         client,
			Model:          cfg.Model,
			Timeout:        cfg.Timeout,
			MaxPromptChars: cfg.MaxPromptChars,
			Fallback:       scoring.HeuristicScorer{},
			OnFallback:     reportFallback,
		}, nil
	}
	return nil, fmt.Errorf("%w: unsupported strategy %q", ErrInvalidConfig, cfg.Strategy)
}

func (e *Engine) client(ctx context.Context, cfg scoring.ScoringConfig) (llm.Client, error) {
	key := clientKey(cfg)

	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.clients[key]; ok {
		return c, nil
	}
	factory, ok := e.providers[cfg.Strategy]
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for %q", ErrInvalidConfig, cfg.Strategy)
	}
	raw, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s client: %w", ErrInvalidConfig, cfg.Strategy, err)
	}
	pc := providerClient{Client: llm.NewCachingClient(raw, e.cache, string(cfg.Strategy), e.cacheTTL, scoring.CheckExternalPayload)}
	pc.closer, _ = raw.(io.Closer)

	for e.maxClients > 0 && len(e.order) >= e.maxClients {
		e.evictLocked(e.order[0])
	}
	e.clients[key] = pc
	e.order = append(e.order, key)
	return pc, nil
}

func (e *Engine) evictLocked(key string) {
	pc := e.clients[key]
	delete(e.clients, key)
	for i, k := range e.order {
		if k == key {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if pc.closer != nil {
		if err := pc.closer.Close(); err != nil {
			telemetry.Warn("engine.client_close_failed", map[string]any{"error": err.Error()})
		}
	}
}

// Close releases every cached provider client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for _, pc := range e.clients {
		if pc.closer != nil {
			errs = append(errs, pc.closer.Close())
		}
	}
	e.clients = map[string]providerClient{}
	e.order = nil
	return errors.Join(errs...)
}

// clientKey identifies a client configuration without keeping the API key in
// memory as a map key.
func clientKey(cfg scoring.ScoringConfig) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{string(cfg.Strategy), cfg.APIKey, cfg.Model, cfg.Endpoint, cfg.Timeout.String()}, "\x00")))
	return hex.EncodeToString(sum[:])
}

func reportFallback(err *scoring.ExternalServiceError) {
	metrics.IncScoringFallback(string(err.Provider), string(err.Kind))
	telemetry.Warn("scoring.fallback", map[string]any{
		"provider":    string(err.Provider),
		"reason":      string(err.Kind),
		"status_code": err.StatusCode,
		"error":       err.Error(),
	})
}

var defaultEngine = sync.OnceValue(func() *Engine { return New() })

// Analyze runs the pipeline on a process-wide default Engine.
func Analyze(ctx context.Context, text string, cfg scoring.ScoringConfig) (scoring.Analysis, error) {
	return defaultEngine().Analyze(ctx, text, cfg)
}
