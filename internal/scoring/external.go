package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/zii786/pitchframe/internal/llm"
)

// ExternalServiceScorer asks a remote model for the analysis. Any failure is
// recovered by a single call to Fallback; the remote call is never retried.
type ExternalServiceScorer struct {
	Provider       Strategy
	Client         llm.Client
	Model          string
	Timeout        time.Duration
	MaxPromptChars int
	Fallback       Scorer
	// OnFallback observes every recovered failure.
	OnFallback func(*ExternalServiceError)
}

func (s *ExternalServiceScorer) Name() Strategy { return s.Provider }

func (s *ExternalServiceScorer) Score(ctx context.Context, text string) (Analysis, error) {
	a, err := s.scoreRemote(ctx, text)
	if err == nil {
		return a, nil
	}

	var ext *ExternalServiceError
	if !errors.As(err, &ext) {
		ext = classifyExternal(s.Provider, err)
	}
	if s.OnFallback != nil {
		s.OnFallback(ext)
	}

	fb := s.Fallback
	if fb == nil {
		fb = HeuristicScorer{}
	}
	out, ferr := fb.Score(ctx, text)
	if ferr != nil {
		return Analysis{}, ferr
	}
	out.FallbackReason = string(ext.Kind)
	return out, nil
}

func (s *ExternalServiceScorer) scoreRemote(ctx context.Context, text string) (Analysis, error) {
	if s.Client == nil {
		return Analysis{}, &ExternalServiceError{Provider: s.Provider, Kind: FailureTransport, Err: llm.ErrNotConfigured}
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxChars := s.MaxPromptChars
	if maxChars <= 0 {
		maxChars = DefaultMaxPromptChars
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := s.Client.ScorePitch(callCtx, llm.PitchInput{
		System:        llm.ScoringSystemPrompt,
		Prompt:        llm.BuildScoringPrompt(text, maxChars),
		Model:         s.Model,
		PromptVersion: llm.ScoringPromptVersion,
	})
	if err != nil {
		// A client that ignores ctx may still return after the deadline.
		if callCtx.Err() == context.DeadlineExceeded {
			return Analysis{}, &ExternalServiceError{Provider: s.Provider, Kind: FailureTimeout, Err: err}
		}
		return Analysis{}, classifyExternal(s.Provider, err)
	}
	return s.decode(raw)
}

type externalPayload struct {
	OverallScore         float64            `json:"overall_score"`
	Scores               map[string]float64 `json:"scores"`
	Feedback             map[string]string  `json:"feedback"`
	Strengths            []string           `json:"strengths"`
	Weaknesses           []string           `json:"weaknesses"`
	Recommendations      []string           `json:"recommendations"`
	Summary              string             `json:"summary"`
	MarketAnalysis       string             `json:"market_analysis"`
	CompetitiveAdvantage string             `json:"competitive_advantage"`
	RiskAssessment       string             `json:"risk_assessment"`
}

func (s *ExternalServiceScorer) decode(raw json.RawMessage) (Analysis, error) {
	p, err := parseExternal(raw)
	if err != nil {
		err.Provider = s.Provider
		return Analysis{}, err
	}
	return normalizeExternal(s.Provider, p), nil
}

// CheckExternalPayload reports whether raw would be accepted as a provider
// answer. Caches use it to keep rejected payloads out.
func CheckExternalPayload(raw json.RawMessage) error {
	if _, err := parseExternal(raw); err != nil {
		return err
	}
	return nil
}

func parseExternal(raw json.RawMessage) (externalPayload, *ExternalServiceError) {
	var p externalPayload
	if !json.Valid(raw) {
		return p, &ExternalServiceError{Kind: FailureMalformed, Err: errors.New("invalid JSON from provider")}
	}
	if err := validateExternalPayload(raw); err != nil {
		return p, &ExternalServiceError{Kind: FailureSchema, Err: err}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, &ExternalServiceError{Kind: FailureMalformed, Err: err}
	}
	return p, nil
}

// normalizeExternal keeps provider text but enforces the same invariants as
// the heuristic path: clamped scores, a recomputed overall score and capped
// recommendations.
func normalizeExternal(provider Strategy, p externalPayload) Analysis {
	var scores CategoryScores
	for _, c := range Categories {
		scores.Set(c, clamp(int(math.Round(p.Scores[string(c)]))))
	}
	fb := SynthesizeFeedback(scores)

	perCategory := make(map[Category]string, len(Categories))
	for _, c := range Categories {
		if v := strings.TrimSpace(p.Feedback[string(c)]); v != "" {
			perCategory[c] = v
		} else {
			perCategory[c] = fb.CategoryFeedback[c]
		}
	}

	a := NewAnalysis(provider, scores, fb)
	a.CategoryFeedback = perCategory
	if list := nonEmpty(p.Strengths); len(list) > 0 {
		a.Strengths = list
	}
	if list := nonEmpty(p.Weaknesses); len(list) > 0 {
		a.Weaknesses = list
	}
	if list := nonEmpty(p.Recommendations); len(list) > 0 {
		a.Recommendations = capRecommendations(list)
	}
	if v := strings.TrimSpace(p.Summary); v != "" {
		a.Summary = v
	}
	a.MarketAnalysis = strings.TrimSpace(p.MarketAnalysis)
	a.CompetitiveAdvantage = strings.TrimSpace(p.CompetitiveAdvantage)
	a.RiskAssessment = strings.TrimSpace(p.RiskAssessment)
	return a
}

func nonEmpty(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
