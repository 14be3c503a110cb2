package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/metrics"
	"github.com/zii786/pitchframe/internal/shared/server/middleware"
	"github.com/zii786/pitchframe/internal/shared/server/respond"
)

// Rate limit groups.
const (
	GroupDefault = "DEFAULT"
	GroupAnalyze = "ANALYZE"
	GroupUpload  = "UPLOAD"
	GroupPolling = "POLLING"
)

// Routes is implemented by feature handlers mounted under /api/v1.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries what NewRouter needs beyond the config.
type RouterDeps struct {
	Routes []Routes
	// Ready backs /health; nil means always healthy.
	Ready   func(ctx context.Context) error
	Limiter *middleware.RateLimiter
}

// DefaultRateRules are per principal.
var DefaultRateRules = map[string]middleware.RateLimitRule{
	GroupDefault: {Rate: 5, Burst: 20},
	GroupAnalyze: {Rate: 0.5, Burst: 5},
	GroupUpload:  {Rate: 0.2, Burst: 3},
	GroupPolling: {Rate: 4, Burst: 30},
}

// NewRouter builds the gin engine with the middleware chain and all routes.
func NewRouter(cfg config.Config, deps RouterDeps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.GET("/metrics", metrics.Handler())

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Ready))

	authed := api.Group("")
	authed.Use(
		middleware.Auth(cfg.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        DefaultRateRules,
			DefaultGroup: GroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.Limiter,
		}),
	)
	registerMeRoutes(authed)
	for _, routes := range deps.Routes {
		if routes != nil {
			routes.RegisterRoutes(authed)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "route not found", nil)
	})
	return r
}

func rateGroupFor(c *gin.Context) string {
	route := c.FullPath()
	switch c.Request.Method {
	case http.MethodPost:
		switch route {
		case "/api/v1/pitches", "/api/v1/analyze", "/api/v1/pitches/:id/reanalyze":
			return GroupAnalyze
		case "/api/v1/documents":
			return GroupUpload
		}
	case http.MethodGet:
		if route == "/api/v1/pitches/:id" {
			return GroupPolling
		}
	}
	return GroupDefault
}

func healthHandler(ready func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				respond.JSON(c, http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
				return
			}
		}
		respond.OK(c, gin.H{"ok": true})
	}
}

// Addr turns a PORT value into a listen address.
func Addr(port string) string {
	switch {
	case port == "":
		return ":8080"
	case port[0] == ':':
		return port
	default:
		return ":" + port
	}
}
