package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Strategy string

const (
	StrategyHeuristic Strategy = "heuristic"
	StrategyMock      Strategy = "mock"
	StrategyOpenAI    Strategy = "openai"
	StrategyAnthropic Strategy = "anthropic"
	StrategyGemini    Strategy = "gemini"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxPromptChars = 4000
)

// External reports whether the strategy calls a remote scoring service.
func (s Strategy) External() bool {
	switch s {
	case StrategyOpenAI, StrategyAnthropic, StrategyGemini:
		return true
	}
	return false
}

func ParseStrategy(raw string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StrategyHeuristic, nil
	case StrategyHeuristic, StrategyMock, StrategyOpenAI, StrategyAnthropic, StrategyGemini:
		return s, nil
	}
	return "", fmt.Errorf("unknown scoring strategy %q", raw)
}

// ScoringConfig selects and parameterises a strategy for one call. It is
// passed explicitly; nothing in this package reads the environment.
type ScoringConfig struct {
	Strategy       Strategy      `validate:"omitempty,oneof=heuristic mock openai anthropic gemini"`
	APIKey         string        `validate:"required_if=Strategy openai,required_if=Strategy anthropic,required_if=Strategy gemini"`
	Model          string        `validate:"max=200"`
	Endpoint       string        `validate:"omitempty,url"`
	Timeout        time.Duration `validate:"min=0"`
	MaxPromptChars int           `validate:"min=0"`
}

var validate = validator.New()

func (c ScoringConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid scoring config: %w", err)
	}
	return nil
}

// WithDefaults fills unset fields.
func (c ScoringConfig) WithDefaults() ScoringConfig {
	if c.Strategy == "" {
		c.Strategy = StrategyHeuristic
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = DefaultMaxPromptChars
	}
	return c
}
