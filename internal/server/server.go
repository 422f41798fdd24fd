// Package server implements the HTTP preview service.
//
// A preview client opens a session, then renders text repeatedly while the
// user edits it. The session keeps the picker's recency windows between
// renders so consecutive previews do not reuse each other's glyphs.
//
// Routes:
//
//	GET    /healthz
//	POST   /api/v1/sessions
//	POST   /api/v1/sessions/{id}/render
//	DELETE /api/v1/sessions/{id}
//	GET    /api/v1/variants/{char}
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/handwrite/pkg/cache"
	"github.com/matzehuels/handwrite/pkg/catalog"
	"github.com/matzehuels/handwrite/pkg/export"
	"github.com/matzehuels/handwrite/pkg/observability"
	"github.com/matzehuels/handwrite/pkg/session"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	// cleanupInterval is how often expired sessions are removed.
	cleanupInterval = 10 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithCache sets the export cache. The default caches nothing.
func WithCache(c cache.Cache, keyer cache.Keyer) Option {
	return func(s *Server) { s.cache, s.keyer = c, keyer }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSessionTTL sets how long idle sessions live.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithConverter sets the PDF/PNG converter used by render passes.
func WithConverter(c export.Converter) Option {
	return func(s *Server) { s.converter = c }
}

// Server serves previews over HTTP.
type Server struct {
	assets    catalog.Assets
	sessions  session.Store
	cache     cache.Cache
	keyer     cache.Keyer
	converter export.Converter
	logger    *log.Logger
	ttl       time.Duration

	mu   sync.Mutex
	busy map[string]bool
}

// New creates a server rendering with assets and keeping sessions in store.
func New(assets catalog.Assets, store session.Store, opts ...Option) *Server {
	s := &Server{
		assets:   assets,
		sessions: store,
		cache:    cache.NewNullCache(),
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
		ttl:      session.DefaultTTL,
		busy:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/render", s.handleRender)
			r.Delete("/", s.handleDeleteSession)
		})
		r.Get("/variants/{char}", s.handleVariants)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are cleaned up periodically.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving previews", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sessions.Cleanup(ctx); err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
			}
		}
	}
}

// acquire marks session id busy. It returns false if a pass is already
// running for it.
func (s *Server) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[id] {
		return false
	}
	s.busy[id] = true
	return true
}

func (s *Server) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, id)
}

// observe reports requests to the server hooks and the log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}
