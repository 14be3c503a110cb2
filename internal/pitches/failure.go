package pitches

import (
	"errors"
	"strings"

	"github.com/zii786/pitchframe/internal/engine"
	"github.com/zii786/pitchframe/internal/extract"
	"github.com/zii786/pitchframe/internal/scoring"
)

// Error codes stored on pitches that end in StatusError.
const (
	ErrorCodeEmptyInput = "EMPTY_INPUT"
	ErrorCodeExtraction = "EXTRACTION_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeConfig     = "CONFIG_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)

const maxErrorMessage = 500

var (
	errExtraction = errors.New("extraction failed")
	errStorage    = errors.New("storage failed")
)

func classifyFailure(err error) string {
	switch {
	case err == nil:
		return ErrorCodeInternal
	case scoring.IsEmptyInput(err), errors.Is(err, extract.ErrNoText):
		return ErrorCodeEmptyInput
	case errors.Is(err, errExtraction), errors.Is(err, extract.ErrUnsupported):
		return ErrorCodeExtraction
	case errors.Is(err, engine.ErrInvalidConfig):
		return ErrorCodeConfig
	case errors.Is(err, errStorage):
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorMessage {
		msg = strings.ToValidUTF8(msg[:maxErrorMessage], "")
	}
	return msg
}
