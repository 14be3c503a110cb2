package scoring

import (
	"context"
	"time"
	"unicode/utf8"
)

const extractedContentChars = 1000

// Analysis is the complete, immutable output of one scoring run.
type Analysis struct {
	ID                   string              `json:"id"`
	PitchID              string              `json:"pitchId,omitempty"`
	UserID               string              `json:"userId,omitempty"`
	OverallScore         int                 `json:"overallScore"`
	Scores               CategoryScores      `json:"scores"`
	CategoryFeedback     map[Category]string `json:"categoryFeedback,omitempty"`
	Strengths            []string            `json:"strengths"`
	Weaknesses           []string            `json:"weaknesses"`
	Recommendations      []string            `json:"recommendations"`
	Summary              string              `json:"summary"`
	MarketAnalysis       string              `json:"marketAnalysis,omitempty"`
	CompetitiveAdvantage string              `json:"competitiveAdvantage,omitempty"`
	RiskAssessment       string              `json:"riskAssessment,omitempty"`
	Strategy             Strategy            `json:"strategy"`
	FallbackReason       string              `json:"fallbackReason,omitempty"`
	ExtractedContent     string              `json:"extractedContent,omitempty"`
	Timestamp            time.Time           `json:"timestamp"`
}

// Scorer is one scoring strategy. Implementations must be safe for
// concurrent use.
type Scorer interface {
	Name() Strategy
	Score(ctx context.Context, text string) (Analysis, error)
}

func NewAnalysis(strategy Strategy, scores CategoryScores, fb Feedback) Analysis {
	return Analysis{
		OverallScore:     fb.OverallScore,
		Scores:           scores,
		CategoryFeedback: fb.CategoryFeedback,
		Strengths:        fb.Strengths,
		Weaknesses:       fb.Weaknesses,
		Recommendations:  fb.Recommendations,
		Summary:          fb.Summary,
		Strategy:         strategy,
	}
}

// Excerpt returns at most the first 1000 characters of text.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= extractedContentChars {
		return text
	}
	r := []rune(text)
	return string(r[:extractedContentChars])
}
