package llm

import (
	_ "embed"
	"strings"
	"unicode/utf8"
)

const ScoringPromptVersion = "v1"

const ScoringSystemPrompt = "You are an experienced startup pitch evaluator. Respond with JSON only. No markdown. Never omit keys."

//go:embed prompts/score_v1.txt
var scoringPromptV1 string

// BuildScoringPrompt embeds the pitch text, cut to maxChars characters, into
// the scoring template.
func BuildScoringPrompt(text string, maxChars int) string {
	return strings.Replace(scoringPromptV1, "{{PITCH_TEXT}}", Truncate(text, maxChars), 1)
}

// Truncate cuts s to at most max runes. A non-positive max leaves s intact.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
