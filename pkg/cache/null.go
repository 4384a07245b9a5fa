package cache

import (
	"context"
	"time"
)

// NullCache never stores anything. It backs the "none" backend and tests
// that must observe every computation.
type NullCache struct{}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return NullCache{}
}

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error {
	return nil
}

// Close does nothing.
func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
