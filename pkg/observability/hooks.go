// Package observability provides hooks for metrics and logging.
//
// Libraries emit events through the registered hooks without depending on a
// specific backend. The defaults are no-ops; the serve command registers a
// Prometheus-backed implementation at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEngineHooks(&myEngineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	outs, err := chain.Apply(g, tr)
//	observability.Engine().OnViewApplied(ctx, len(chain), g.VisibleCount(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the graph engine host.
type EngineHooks interface {
	// OnGraphBuilt records building a graph from a trace.
	OnGraphBuilt(ctx context.Context, nodes, edges int, duration time.Duration, err error)

	// OnViewApplied records a filter chain plus disabler pass.
	OnViewApplied(ctx context.Context, filters, visible int, duration time.Duration, err error)

	// OnSubgraphBuilt records a reachability subgraph construction.
	OnSubgraphBuilt(ctx context.Context, size int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records a served request. route is the matched pattern, not
	// the raw path.
	OnRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnGraphBuilt(context.Context, int, int, time.Duration, error)  {}
func (NoopEngineHooks) OnViewApplied(context.Context, int, int, time.Duration, error) {}
func (NoopEngineHooks) OnSubgraphBuilt(context.Context, int, time.Duration, error)    {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	engineHooks EngineHooks = NoopEngineHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	serverHooks ServerHooks = NoopServerHooks{}
	hooksMu     sync.RWMutex
)

// SetEngineHooks registers custom engine hooks.
// This should be called once at application startup.
func SetEngineHooks(h EngineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		engineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetServerHooks registers custom server hooks.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return engineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	engineHooks = NoopEngineHooks{}
	cacheHooks = NoopCacheHooks{}
	serverHooks = NoopServerHooks{}
}
