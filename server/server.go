// Package server exposes the capsule API over HTTP: capsule creation as a
// server-sent event stream, reading endpoints, progress and bookmark
// updates, the public feed, and exports.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yuin/goldmark"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/pipeline"
	"github.com/gaurav-prasanna/codecapsule/store"
)

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	store    *store.Store
	runner   *pipeline.Runner
	cache    *cache.Cache
	sessions Sessions
	log      *slog.Logger
	markdown goldmark.Markdown
}

// New creates a Server. sessions may be nil, in which case every
// request is treated as anonymous.
func New(st *store.Store, runner *pipeline.Runner, c *cache.Cache, sessions Sessions, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store:    st,
		runner:   runner,
		cache:    c,
		sessions: sessions,
		log:      log,
		markdown: goldmark.New(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax
	mux.HandleFunc("GET /api/capsule/create/stream", s.handleCreateStream)
	mux.HandleFunc("POST /api/capsule/progress", s.handleProgress)
	mux.HandleFunc("POST /api/capsule/bookmark", s.handleBookmark)
	mux.HandleFunc("GET /api/capsules", s.handleListCapsules)
	mux.HandleFunc("GET /api/capsules/{id}", s.handleGetCapsule)
	mux.HandleFunc("GET /api/capsules/{id}/pages/{n}", s.handleGetPage)
	mux.HandleFunc("GET /api/capsules/{id}/export", s.handleExport)

	return securityHeaders(mux)
}

// userID resolves the request identity, tolerating a nil Sessions.
func (s *Server) userID(r *http.Request) (string, bool) {
	if s.sessions == nil {
		return "", false
	}
	return s.sessions.UserID(r)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// NewHTTPServer wraps the handler in an http.Server bound to addr.
func NewHTTPServer(addr string, s *Server) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("server listening", "addr", srv.Addr)
	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
