package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mouadelabbassi/dashboard/internal/service"
	"github.com/mouadelabbassi/dashboard/pkg/health"
	"github.com/mouadelabbassi/dashboard/pkg/middleware"
)

// ServiceName labels the service's metrics and spans.
const ServiceName = "smartsearch"

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
	PprofEnabled       bool
	PprofAllowedCIDRs  []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// NewRouter creates a chi router with all smart search routes registered.
func NewRouter(
	svc *service.SmartSearch,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestLogging(logger, "/health", "/metrics"))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins...)))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	h := NewSmartSearchHandler(svc, logger)

	r.Route("/api/v1/ai", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Post("/search", h.Search)
			r.Get("/history", h.History)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(5 * time.Minute))
			r.Get("/analyze", h.Analyze)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(30 * time.Second))
			r.Get("/suggestions", h.Suggestions)
			r.Get("/trending", h.Trending)
		})
	})

	return r
}
