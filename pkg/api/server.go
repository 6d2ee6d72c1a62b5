package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ericlee/eoss/internal/logger"
)

// Server is the EOSS HTTP server.
//
// It serves the object API under /eoss/v1 and supports graceful shutdown
// with a bounded timeout.
type Server struct {
	server       *http.Server
	log          *logger.Logger
	addr         string
	shutdownOnce sync.Once
}

// NewServer creates the HTTP server around an already-built router. Call
// Start to begin serving.
func NewServer(addr string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  5 * time.Minute,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  2 * time.Minute,
		},
		log:  log,
		addr: addr,
	}
}

// Start serves requests until the context is cancelled or the listener
// fails. Cancellation triggers graceful shutdown and returns its result.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.log.Info("eoss server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("eoss server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = err
			s.log.Error("eoss server shutdown error", "error", err)
			return
		}
		s.log.Info("eoss server stopped gracefully")
	})
	return shutdownErr
}
