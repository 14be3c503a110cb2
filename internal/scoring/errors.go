package scoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// EmptyInputError is returned before any scoring when the text is blank.
type EmptyInputError struct{}

func (*EmptyInputError) Error() string { return "no text provided for analysis" }

func IsEmptyInput(err error) bool {
	var e *EmptyInputError
	return errors.As(err, &e)
}

type FailureKind string

const (
	FailureTimeout   FailureKind = "timeout"
	FailureStatus    FailureKind = "status"
	FailureTransport FailureKind = "transport"
	FailureMalformed FailureKind = "malformed"
	FailureSchema    FailureKind = "schema"
	FailureCanceled  FailureKind = "canceled"
)

// ExternalServiceError wraps any failure of the remote scorer. It is always
// recovered by the heuristic fallback.
type ExternalServiceError struct {
	Provider   Strategy
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s scoring failed (%s, http %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s scoring failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

func classifyExternal(provider Strategy, err error) *ExternalServiceError {
	out := &ExternalServiceError{Provider: provider, Err: err}

	var sc statusCoder
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		out.Kind = FailureTimeout
	case errors.Is(err, context.Canceled):
		out.Kind = FailureCanceled
	case errors.As(err, &sc):
		out.Kind = FailureStatus
		out.StatusCode = sc.HTTPStatus()
	case errors.As(err, &netErr) && netErr.Timeout():
		out.Kind = FailureTimeout
	default:
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "timeout"):
			out.Kind = FailureTimeout
		case strings.Contains(msg, "parse"), strings.Contains(msg, "invalid json"), strings.Contains(msg, "empty content"):
			out.Kind = FailureMalformed
		default:
			out.Kind = FailureTransport
		}
	}
	return out
}
