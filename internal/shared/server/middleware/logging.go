package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/telemetry"
)

// Context keys handlers set so the access log can correlate entities.
const (
	DocumentIDKey       = "documentId"
	PitchIDKey          = "pitchId"
	AnalysisIDKey       = "analysisId"
	StatusTransitionKey = "statusTransition"
)

// Logging writes one request.complete line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"path":              c.Request.URL.Path,
			"route":             c.FullPath(),
			"status":            c.Writer.Status(),
			"status_transition": contextString(c, StatusTransitionKey),
			"duration_ms":       float64(elapsed.Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"is_guest":          IsGuest(c),
			"document_id":       contextString(c, DocumentIDKey),
			"pitch_id":          contextString(c, PitchIDKey),
			"analysis_id":       contextString(c, AnalysisIDKey),
			"client_ip":         c.ClientIP(),
			"user_agent":        c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
