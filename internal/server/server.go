package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/bubble/view"
)

// Simulation is the bubble simulation as seen from HTTP handlers. Every
// call is marshalled onto the simulation's own goroutine.
type Simulation interface {
	Snapshot(ctx context.Context) (view.Snapshot, error)
	Resize(ctx context.Context, size core.Size) error
	Hover(ctx context.Context, id string) error
	Click(ctx context.Context, id string) (bool, error)
	ClearSelection(ctx context.Context) error
	Phase(ctx context.Context) (string, error)
	Frames() uint64
}

// Refresher re-fetches the instrument catalog.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Config holds server configuration
type Config struct {
	Port           int
	Log            zerolog.Logger
	Simulation     Simulation
	Catalog        Refresher
	StreamInterval time.Duration
	DevMode        bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	port   int

	sim            Simulation
	catalog        Refresher
	streamInterval time.Duration
	streamClients  atomic.Int64
	started        time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = 100 * time.Millisecond
	}

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		sim:            cfg.Simulation,
		catalog:        cfg.Catalog,
		streamInterval: cfg.StreamInterval,
		started:        time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	// No WriteTimeout: streams are long-lived. Plain requests are bounded by
	// the timeout middleware.
	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		if !devMode {
			r.Use(middleware.Compress(5))
		}

		r.Get("/health", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			r.Get("/system/status", s.handleSystemStatus)

			r.Get("/bubbles", s.handleGetBubbles)
			r.Post("/bubbles/{id}/hover", s.handleHover)
			r.Post("/bubbles/{id}/click", s.handleClick)
			r.Delete("/selection", s.handleClearSelection)
			r.Put("/container", s.handleResize)
			r.Post("/instruments/refresh", s.handleRefresh)
		})
	})

	// Upgraded connections outlive any request deadline.
	s.router.Get("/api/stream", s.handleStream)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
