// Package server exposes the compiler over HTTP: JSON compile and parse
// endpoints and a websocket for live compilation from an editor or
// playground.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/conduit-lang/stencil/internal/compiler/cache"
)

// Config holds server configuration
type Config struct {
	// Address is the listen address (e.g., ":8080")
	Address string

	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	MaxHeaderBytes    int

	// MaxBodyBytes limits request bodies and websocket messages
	MaxBodyBytes int64

	// CheckOrigin filters websocket upgrades; nil allows every origin
	CheckOrigin func(r *http.Request) bool

	// Limiter rate limits /api and /ws per client; nil disables it
	Limiter Limiter
}

// DefaultConfig returns the server defaults
func DefaultConfig() *Config {
	return &Config{
		Address:           "127.0.0.1:7878",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		MaxBodyBytes:      1 << 20,
	}
}

// Server is the compile server
type Server struct {
	httpServer  *http.Server
	config      *Config
	listener    net.Listener
	coordinator *cache.Coordinator
	logger      *zap.Logger
	router      chi.Router

	// ctx is cancelled on shutdown to close websocket sessions, which
	// http.Server.Shutdown does not track
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server compiling through coordinator
func New(config *Config, coordinator *cache.Coordinator, logger *zap.Logger) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if coordinator == nil {
		return nil, fmt.Errorf("coordinator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:      config,
		coordinator: coordinator,
		logger:      logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              config.Address,
		Handler:           s.router,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
	}
	s.httpServer.RegisterOnShutdown(s.cancel)
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestID(), Logging(s.logger, "/healthz"), Recovery(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		if s.config.Limiter != nil {
			r.Use(RateLimit(s.config.Limiter, s.logger))
		}
		r.Route("/api", func(r chi.Router) {
			r.Post("/compile", s.handleCompile)
			r.Post("/parse", s.handleParse)
			r.Get("/stats", s.handleStats)
		})
		r.Get("/ws", s.handleWebSocket)
	})
	return r
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens and serves until Shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	s.logger.Info("compile server listening", zap.String("addr", listener.Addr().String()))

	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Run starts the server and shuts it down gracefully when ctx is done
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down compile server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the listening address once started
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
