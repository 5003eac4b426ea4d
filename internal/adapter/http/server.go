package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/couchcryptid/beachhub-recommender/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the API handlers read from.
type Deps struct {
	Catalog      domain.BeachCatalog
	Observations domain.ObservationSource
	Alerts       domain.AlertSource
	Events       domain.EventSource
	Recommender  pipeline.Recommender
	Ready        sharedobs.ReadinessChecker
	CORSOrigins  []string
	Clock        clockwork.Clock
}

// Server exposes the beach API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	s := &Server{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(traceID)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", TraceHeader, requestIDHeader},
		ExposedHeaders: []string{TraceHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(deps.Ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/beaches", func(r chi.Router) {
		r.Get("/", s.listBeaches)
		r.Route("/{beachID}", func(r chi.Router) {
			r.Get("/", s.getBeach)
			r.Get("/observations", s.getObservation)
			r.Get("/alerts", s.getAlerts)
		})
	})
	r.Get("/events", s.listEvents)
	r.Get("/recommendations", s.recommend)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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
