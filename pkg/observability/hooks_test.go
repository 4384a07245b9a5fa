package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Engine hooks
	e := NoopEngineHooks{}
	e.OnGraphBuilt(ctx, 10, 12, time.Second, nil)
	e.OnViewApplied(ctx, 2, 125, time.Second, nil)
	e.OnSubgraphBuilt(ctx, 40, time.Second, errors.New("cycle"))

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "view")
	c.OnCacheMiss(ctx, "stats")
	c.OnCacheSet(ctx, "view", 1024)

	// Server hooks
	s := NoopServerHooks{}
	s.OnRequest(ctx, "GET", "/api/v1/stats", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Engine() should return NoopEngineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Server().(NoopServerHooks); !ok {
		t.Error("Server() should return NoopServerHooks by default")
	}

	// Set custom hooks
	customEngine := &testEngineHooks{}
	SetEngineHooks(customEngine)
	if Engine() != customEngine {
		t.Error("SetEngineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customServer := &testServerHooks{}
	SetServerHooks(customServer)
	if Server() != customServer {
		t.Error("SetServerHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Engine().(NoopEngineHooks); !ok {
		t.Error("Reset() should restore NoopEngineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testEngineHooks{}
	SetEngineHooks(custom)

	// Setting nil should be ignored
	SetEngineHooks(nil)

	if Engine() != custom {
		t.Error("SetEngineHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testEngineHooks struct{ NoopEngineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testServerHooks struct{ NoopServerHooks }
