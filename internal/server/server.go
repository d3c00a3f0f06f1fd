// Package server exposes analyses over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gauthierbraillon/creatorpulse/internal/aggregator"
	"github.com/gauthierbraillon/creatorpulse/internal/events"
	"github.com/gauthierbraillon/creatorpulse/internal/metrics"
	"github.com/gauthierbraillon/creatorpulse/internal/session"
)

const defaultRequestTimeout = 60 * time.Second

// Analyzer runs creator and single-source analyses.
type Analyzer interface {
	AnalyzeCreator(ctx context.Context, name string, locators []string, manual []aggregator.ManualEntry) *aggregator.Report
	AnalyzeSource(ctx context.Context, locator string) (*aggregator.SourceAnalysis, error)
}

// Config holds listener settings.
type Config struct {
	Addr           string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithPublisher sets where finished creator reports are announced.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) {
		s.publisher = p
	}
}

// WithClock sets the clock used for session timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server represents the HTTP server
type Server struct {
	server     *http.Server
	router     *chi.Mux
	analyzer   Analyzer
	classifier aggregator.Classifier
	store      session.Store
	publisher  events.Publisher
	clock      clockwork.Clock
	logger     *slog.Logger
}

// New wires routes and middleware.
func New(cfg Config, analyzer Analyzer, classifier aggregator.Classifier, store session.Store, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		analyzer:   analyzer,
		classifier: classifier,
		store:      store,
		publisher:  events.Noop{},
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(countRequests)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(timeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.routes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze-url", s.handleAnalyzeURL)
		r.Post("/creator/analyze", s.handleCreatorAnalyze)
		r.Get("/session/{id}", s.handleGetSession)
		r.Get("/demo", s.handleDemo)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// countRequests records one counter sample per request, labelled with the
// matched route pattern so ids do not explode cardinality.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}
