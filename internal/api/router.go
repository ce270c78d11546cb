package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustreach/verifyd/internal/app"
	"github.com/trustreach/verifyd/internal/audit"
	"github.com/trustreach/verifyd/internal/handlers"
	"github.com/trustreach/verifyd/internal/middleware"
	"github.com/trustreach/verifyd/internal/notify"
	"github.com/trustreach/verifyd/internal/verification"
)

// Dependencies carries the wired services the router mounts. RateStore and
// Audit are optional; a nil RateStore disables throttling and a nil Audit
// disables the event trail.
type Dependencies struct {
	Verifier  *verification.Service
	Notifier  notify.Notifier
	Audit     *audit.Service
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers the
// verification routes.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Verifier == nil {
		return nil, fmt.Errorf("verification service must be provided")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier must be provided")
	}

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(middleware.WithRequestID())

	r.NoRoute(middleware.NotFoundHandler)

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	handlerOpts := []handlers.HandlerOption{}
	if deps.Audit != nil {
		handlerOpts = append(handlerOpts, handlers.WithAudit(deps.Audit))
	}
	if cfg.Server.IsDevelopment() && cfg.Verification.ExposeCode {
		handlerOpts = append(handlerOpts, handlers.WithExposedCodes())
	}

	h := handlers.NewVerificationHandler(deps.Verifier, deps.Notifier, handlerOpts...)

	group := r.Group("/api/verification")
	{
		group.POST("/request",
			middleware.RateLimit(deps.RateStore, cfg.RateLimit.Request.Max, cfg.RateLimit.Request.Window, middleware.KeyByRequestEmail),
			h.Request)
		group.POST("/verify",
			middleware.RateLimit(deps.RateStore, cfg.RateLimit.Verify.Max, cfg.RateLimit.Verify.Window, nil),
			h.Verify)
	}

	return r, nil
}
