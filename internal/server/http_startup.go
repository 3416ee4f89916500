package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"resumetailor/internal/session"

	"golang.org/x/sync/errgroup"
)

// Handler returns the instrumented route tree
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// Start runs the HTTP server, and the session watcher when enabled, until
// ctx is cancelled or one of them fails
func (s *Server) Start(ctx context.Context) error {
	httpServer := s.setupHTTPServer()
	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo(os.Stdout, httpServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.listen(httpServer)
	})
	if watcher := s.newSessionWatcher(gctx); watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return s.performGracefulShutdown(httpServer)
	})

	return g.Wait()
}

const shutdownTimeout = 30 * time.Second

func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(s.Host, s.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

func (s *Server) listen(server *http.Server) error {
	s.Logger.Info("Starting HTTP server",
		"address", server.Addr,
		"tls_enabled", server.TLSConfig != nil)

	var err error
	if server.TLSConfig != nil {
		// Certificates are already loaded into the TLS config
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// newSessionWatcher reloads tracked sessions when the CLI edits their files
func (s *Server) newSessionWatcher(ctx context.Context) *session.Watcher {
	if !s.WatchSessions || s.SessionDir == "" {
		return nil
	}
	return session.NewWatcher(s.SessionDir, s.WatchDebounce, func(id string) {
		if err := s.Sessions.Refresh(ctx, id); err != nil {
			s.Logger.LogError(err, "Failed to reload session", "session_id", id)
			return
		}
		s.Observability.RecordSessionReload(ctx)
	}, s.Logger)
}

// performGracefulShutdown drains in-flight requests, closing the listener
// outright if that takes longer than shutdownTimeout.
func (s *Server) performGracefulShutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}

	s.Logger.Info("Shutting down HTTP server")
	if err := server.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Graceful shutdown timed out, forcing close")
		return server.Close()
	}
	s.Logger.Info("Server stopped")
	return nil
}
