package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sigil/sigil/config"
	"github.com/sigil/sigil/pkg/logger"
)

// Server wraps the sigild HTTP server lifecycle.
type Server struct {
	srv *http.Server
	log logger.Logger
}

// NewServer creates an HTTP server for the given router.
func NewServer(cfg *config.ServerConfig, log logger.Logger, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:           cfg.Addr(),
			Handler:        handler,
			ReadTimeout:    cfg.HTTP.ReadTimeout,
			WriteTimeout:   cfg.HTTP.WriteTimeout,
			IdleTimeout:    cfg.HTTP.IdleTimeout,
			MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
		},
		log: log,
	}
}

// Start serves until the listener fails or Shutdown is called. It
// blocks; run it in a goroutine.
func (s *Server) Start() error {
	s.log.Info("http server starting", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}
