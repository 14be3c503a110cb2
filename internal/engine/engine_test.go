package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zii786/pitchframe/internal/llm"
	"github.com/zii786/pitchframe/internal/scoring"
	"github.com/zii786/pitchframe/internal/shared/cache"
)

type stubClient struct {
	calls atomic.Int32
	raw   string
	err   error
}

func (s *stubClient) ScorePitch(ctx context.Context, input llm.PitchInput) (json.RawMessage, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.raw), nil
}

func fixedEngine(opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithIDGenerator(func() string { return "analysis-1" }),
	}
	return New(append(base, opts...)...)
}

func TestAnalyzeRejectsBlankInput(t *testing.T) {
	e := fixedEngine()
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.Analyze(context.Background(), text, scoring.ScoringConfig{})
		if !scoring.IsEmptyInput(err) {
			t.Fatalf("Analyze(%q) error = %v, want EmptyInputError", text, err)
		}
	}
}

func TestAnalyzeDefaultsToHeuristic(t *testing.T) {
	e := fixedEngine()
	text := "We solve a customer problem with a simple solution."
	a, err := e.Analyze(context.Background(), text, scoring.ScoringConfig{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyHeuristic {
		t.Fatalf("Strategy = %q", a.Strategy)
	}
	if a.ID != "analysis-1" || a.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp stamped, got %q %v", a.ID, a.Timestamp)
	}
	if a.ExtractedContent != text {
		t.Fatalf("ExtractedContent = %q", a.ExtractedContent)
	}

	b, err := e.Analyze(context.Background(), text, scoring.ScoringConfig{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Scores != b.Scores || a.Summary != b.Summary || strings.Join(a.Recommendations, "|") != strings.Join(b.Recommendations, "|") {
		t.Fatalf("expected identical results for identical text")
	}
}

func TestAnalyzeTruncatesExtractedContent(t *testing.T) {
	e := fixedEngine()
	a, err := e.Analyze(context.Background(), strings.Repeat("b", 1500), scoring.ScoringConfig{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(a.ExtractedContent) != 1000 {
		t.Fatalf("ExtractedContent length = %d", len(a.ExtractedContent))
	}
}

func TestAnalyzeMockOnlyWhenSelected(t *testing.T) {
	e := fixedEngine(WithMockSeed(7))
	a, err := e.Analyze(context.Background(), "text", scoring.ScoringConfig{Strategy: scoring.StrategyMock})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyMock {
		t.Fatalf("Strategy = %q", a.Strategy)
	}
}

func TestAnalyzeExternalProvider(t *testing.T) {
	stub := &stubClient{raw: `{"scores":{"clarity":90,"engagement":90,"market_fit":90,"uniqueness":90,"financial_viability":90,"team_strength":90},"summary":"Great"}`}
	var gotCfg scoring.ScoringConfig
	e := fixedEngine(WithProvider(scoring.StrategyOpenAI, func(_ context.Context, cfg scoring.ScoringConfig) (llm.Client, error) {
		gotCfg = cfg
		return stub, nil
	}))

	cfg := scoring.ScoringConfig{Strategy: scoring.StrategyOpenAI, APIKey: "key", Model: "gpt-test"}
	a, err := e.Analyze(context.Background(), "pitch", cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyOpenAI || a.OverallScore != 90 || a.Summary != "Great" {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if gotCfg.Timeout != scoring.DefaultTimeout || gotCfg.APIKey != "key" {
		t.Fatalf("factory did not receive defaulted config: %+v", gotCfg)
	}

	if _, err := e.Analyze(context.Background(), "pitch", cfg); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stub.calls.Load() != 2 {
		t.Fatalf("expected provider called per analysis without cache, got %d", stub.calls.Load())
	}
}

func TestAnalyzeExternalFailureFallsBack(t *testing.T) {
	stub := &stubClient{err: &llm.StatusError{Provider: "anthropic", StatusCode: 502}}
	e := fixedEngine(WithProvider(scoring.StrategyAnthropic, func(context.Context, scoring.ScoringConfig) (llm.Client, error) {
		return stub, nil
	}))

	a, err := e.Analyze(context.Background(), "pitch text", scoring.ScoringConfig{Strategy: scoring.StrategyAnthropic, APIKey: "k"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyHeuristic || a.FallbackReason != "status" {
		t.Fatalf("expected heuristic fallback, got %q %q", a.Strategy, a.FallbackReason)
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected a single provider call, got %d", stub.calls.Load())
	}
}

func TestAnalyzeUsesCache(t *testing.T) {
	stub := &stubClient{raw: `{"scores":{"clarity":70,"engagement":70,"market_fit":70,"uniqueness":70,"financial_viability":70,"team_strength":70}}`}
	e := fixedEngine(
		WithCache(cache.NewMemoryCache(), time.Hour),
		WithProvider(scoring.StrategyGemini, func(context.Context, scoring.ScoringConfig) (llm.Client, error) { return stub, nil }),
	)
	cfg := scoring.ScoringConfig{Strategy: scoring.StrategyGemini, APIKey: "k"}
	for i := 0; i < 3; i++ {
		if _, err := e.Analyze(context.Background(), "same pitch", cfg); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if stub.calls.Load() != 1 {
		t.Fatalf("expected cached provider payload, got %d calls", stub.calls.Load())
	}
}

func TestAnalyzeDoesNotCacheRejectedPayload(t *testing.T) {
	stub := &stubClient{raw: `{"summary":"oops, no scores"}`}
	e := fixedEngine(
		WithCache(cache.NewMemoryCache(), time.Hour),
		WithProvider(scoring.StrategyOpenAI, func(context.Context, scoring.ScoringConfig) (llm.Client, error) { return stub, nil }),
	)
	cfg := scoring.ScoringConfig{Strategy: scoring.StrategyOpenAI, APIKey: "k"}

	a, err := e.Analyze(context.Background(), "same pitch", cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyHeuristic || a.FallbackReason != "schema" {
		t.Fatalf("expected schema fallback, got %q %q", a.Strategy, a.FallbackReason)
	}

	stub.raw = `{"scores":{"clarity":80,"engagement":80,"market_fit":80,"uniqueness":80,"financial_viability":80,"team_strength":80}}`
	a, err = e.Analyze(context.Background(), "same pitch", cfg)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.Strategy != scoring.StrategyOpenAI || a.FallbackReason != "" || a.OverallScore != 80 {
		t.Fatalf("expected provider result after recovery, got %q %q %d", a.Strategy, a.FallbackReason, a.OverallScore)
	}
	if got := stub.calls.Load(); got != 2 {
		t.Fatalf("provider calls = %d, want 2", got)
	}
}

type closingClient struct {
	stubClient
	closed atomic.Bool
}

func (c *closingClient) Close() error {
	c.closed.Store(true)
	return nil
}

func TestProviderClientsAreBoundedAndClosed(t *testing.T) {
	var built []*closingClient
	e := fixedEngine(
		WithMaxClients(2),
		WithProvider(scoring.StrategyGemini, func(context.Context, scoring.ScoringConfig) (llm.Client, error) {
			c := &closingClient{stubClient: stubClient{err: errors.New("offline")}}
			built = append(built, c)
			return c, nil
		}),
	)
	for _, model := range []string{"m1", "m2", "m1", "m3"} {
		cfg := scoring.ScoringConfig{Strategy: scoring.StrategyGemini, APIKey: "k", Model: model}
		if _, err := e.Analyze(context.Background(), "pitch", cfg); err != nil {
			t.Fatalf("Analyze(%s): %v", model, err)
		}
	}

	if len(built) != 3 {
		t.Fatalf("built %d clients, want 3 (m1 reused)", len(built))
	}
	if !built[0].closed.Load() || built[1].closed.Load() || built[2].closed.Load() {
		t.Fatalf("expected only the oldest client closed, got %v %v %v",
			built[0].closed.Load(), built[1].closed.Load(), built[2].closed.Load())
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !built[1].closed.Load() || !built[2].closed.Load() {
		t.Fatalf("Close must release remaining clients")
	}
}

func TestAnalyzeInvalidConfig(t *testing.T) {
	e := fixedEngine()
	_, err := e.Analyze(context.Background(), "pitch", scoring.ScoringConfig{Strategy: scoring.StrategyOpenAI})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected config error, got %v", err)
	}

	factoryErr := errors.New("factory failed")
	e = fixedEngine(WithProvider(scoring.StrategyOpenAI, func(context.Context, scoring.ScoringConfig) (llm.Client, error) {
		return nil, factoryErr
	}))
	if _, err := e.Analyze(context.Background(), "pitch", scoring.ScoringConfig{Strategy: scoring.StrategyOpenAI, APIKey: "k"}); !errors.Is(err, factoryErr) || !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected factory error, got %v", err)
	}
}
