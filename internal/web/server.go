// Package web exposes the streaming backend over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/justestif/go-stream-player/internal/engagement"
	"github.com/justestif/go-stream-player/internal/history"
	"github.com/justestif/go-stream-player/internal/identity"
	"github.com/justestif/go-stream-player/internal/player"
	"github.com/justestif/go-stream-player/internal/stats"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr     string
	Logger   *zap.Logger
	Resolver identity.Resolver
	Issuer   identity.Issuer
	Users    UserStore
	Player   *player.Service
	Ledger   *history.Ledger
	Recorder *engagement.Recorder
	Stats    *stats.Service
}

// Server is the HTTP server for the streaming API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(cfg),
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes() {
	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/users", s.handlers.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(s.handlers.Authenticate)

			r.Route("/me", func(r chi.Router) {
				r.Get("/player", s.handlers.PlayerState)
				r.Put("/player/context", s.handlers.StartContext)
				r.Post("/player/shuffle", s.handlers.Shuffle)
				r.Post("/player/next", s.handlers.Next)
				r.Post("/player/validate", s.handlers.ValidateTrack)
				r.Get("/recently-played", s.handlers.RecentlyPlayed)
			})

			r.Route("/tracks/{id}", func(r chi.Router) {
				r.Post("/listens", s.handlers.RecordListen(trackKind))
				r.Post("/likes", s.handlers.RecordLike(trackKind))
				r.Get("/stats", s.handlers.Stats(trackKind))
			})
			r.Route("/albums/{id}", func(r chi.Router) {
				r.Post("/listens", s.handlers.RecordListen(albumKind))
				r.Post("/likes", s.handlers.RecordLike(albumKind))
				r.Get("/stats", s.handlers.Stats(albumKind))
			})
		})
	})
}

// requestLogger logs each request once it completes.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
