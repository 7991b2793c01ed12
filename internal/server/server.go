package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	readHeaderTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds how long in-flight requests may take to finish.
	DefaultShutdownTimeout = 30 * time.Second
)

// Server runs the HTTP API as a lifecycle component.
type Server struct {
	http            *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	served   chan struct{}
}

// New creates a server for handler on addr. A non-positive shutdownTimeout
// selects DefaultShutdownTimeout.
func New(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *zap.Logger) *Server {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned so startup can roll back.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}

	served := make(chan struct{})

	s.mu.Lock()
	s.listener = ln
	s.served = served
	s.mu.Unlock()

	s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))

	go func() {
		defer close(served)

		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server failed", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return s.http.Addr
	}

	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	served := s.served
	s.mu.Unlock()

	if served == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	<-served

	return nil
}
