package respond

import (
	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// Error codes returned in the envelope.
const (
	CodeInvalidRequest = "invalid_request"
	CodeEmptyInput     = "empty_input"
	CodeUnauthorized   = "unauthorized"
	CodeNotFound       = "not_found"
	CodeConflict       = "conflict"
	CodeTooLarge       = "payload_too_large"
	CodeUnsupported    = "unsupported_media_type"
	CodeRenderError    = "render_error"
	CodeUnavailable    = "unavailable"
	CodeRateLimited    = "rate_limited"
	CodeInternal       = "internal"
)

// ErrorBody is the error object of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the {"error": {...}} envelope.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error logs the failure and aborts with the envelope.
func Error(c *gin.Context, status int, code, message string, details any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
