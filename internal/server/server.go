// Package server exposes one analysis session over HTTP.
//
// The server owns a single trace. Every request that reads or changes the
// session's view runs under one mutex, so views never interleave. Results
// that are expensive to produce (the stats report, rendered diagrams) go
// through a [cache.Cache] keyed by the trace hash and the current view.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/stats?top=K
//	GET  /api/v1/view
//	POST /api/v1/view              {"chain": "...", "disablers": ["smart"]}
//	GET  /api/v1/nodes/{id}
//	GET  /api/v1/nodes/{id}/reach
//	GET  /api/v1/edges
//	GET  /api/v1/render?format=dot|svg|png|json&detailed=true
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
)

// Options configures a Server.
type Options struct {
	// Cache stores stats and renders. Defaults to a NullCache.
	Cache cache.Cache
	// Keyer builds cache keys. Defaults to cache.NewDefaultKeyer().
	Keyer cache.Keyer
	// TTL bounds the lifetime of cache entries. Zero means no expiry.
	TTL time.Duration
	// Logger receives request logs. Defaults to log.Default().
	Logger *log.Logger
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server serves a session.
type Server struct {
	mu      sync.Mutex
	session *analysis.Session
	outputs []filter.Output // side outputs of the current view

	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	logger   *log.Logger
	gatherer prometheus.Gatherer
}

// New creates a server for session. The server takes over the session;
// callers must not use it afterwards.
func New(session *analysis.Session, opts Options) *Server {
	s := &Server{
		session:  session,
		cache:    opts.Cache,
		keyer:    opts.Keyer,
		ttl:      opts.TTL,
		logger:   opts.Logger,
		gatherer: opts.Gatherer,
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.keyer == nil {
		s.keyer = cache.NewDefaultKeyer()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "trace", shortHash(s.session.Trace().Hash()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

const shutdownTimeout = 10 * time.Second

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
