package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/source"
)

// SourceManager defines the engine operations the API exposes.
type SourceManager interface {
	AddSource(id string, opts source.Options) (source.Source, error)
	RemoveSource(id string) error
	Source(id string) source.Source
	SourceIDs() []string
	TypeNames() []string
	Hub() *event.Hub
}

// Config holds API server configuration.
type Config struct {
	Listen string
	// Token is the bearer token protecting every /v1 route.
	Token string
}

// Server represents the HTTP API server.
type Server struct {
	config    Config
	engine    SourceManager
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance.
func New(config Config, engine SourceManager, logger *slog.Logger) *Server {
	return &Server{
		config:    config,
		engine:    engine,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Start starts the HTTP server (blocking until ctx is cancelled).
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute, // event streams stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// Unauthenticated ops endpoint.
	r.Get("/healthz", s.handleHealthz)

	// Protected API.
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/v1/source-types", s.handleSourceTypes)
		r.Get("/v1/sources", s.handleListSources)
		r.Put("/v1/sources/{id}", s.handlePutSource)
		r.Get("/v1/sources/{id}", s.handleGetSource)
		r.Delete("/v1/sources/{id}", s.handleDeleteSource)
		r.Get("/v1/events", s.handleEvents)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
