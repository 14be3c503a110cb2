package openai

import (
	"strings"

	"github.com/zii786/pitchframe/internal/llm"
)

// BuildMessages turns a scoring request into chat messages. The system
// message is omitted when empty.
func BuildMessages(input llm.PitchInput) []chatMessage {
	out := make([]chatMessage, 0, 2)
	if strings.TrimSpace(input.System) != "" {
		out = append(out, chatMessage{Role: "system", Content: input.System})
	}
	out = append(out, chatMessage{Role: "user", Content: input.Prompt})
	return out
}
