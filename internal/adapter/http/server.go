// Package http serves the dashboard page, its JSON figure API, static chart
// images, and the health, readiness and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pmatran/vulnerapp/internal/domain"
	"github.com/pmatran/vulnerapp/internal/figure"
	"github.com/pmatran/vulnerapp/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store is the dataset source the server reads from.
type Store interface {
	Snapshot() *domain.Dataset
	Generation() uint64
	CheckReadiness(ctx context.Context) error
}

// Deps groups what the handlers need.
type Deps struct {
	Store         Store
	Figures       figure.Builder
	Catalog       *domain.Catalog
	DefaultWindow int
}

// Server exposes the dashboard plus health, readiness and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server and registers every route.
func NewServer(addr string, deps Deps, logger *slog.Logger, metrics *observability.Metrics) *Server {
	if deps.DefaultWindow == 0 {
		deps.DefaultWindow = domain.DefaultWindowDays
	}

	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:    deps,
		logger:  logger,
		metrics: metrics,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Route("/api", func(r chi.Router) {
		r.Get("/meta", s.handleMeta)
		r.Get("/summary", s.handleSummary)
		r.Get("/figures/historical", s.handleHistorical)
		r.Get("/figures/predictions", s.handlePredictions)
	})
	r.Get("/charts/{chart}.{format}", s.handleChart)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Store))
	r.Handle("/metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
