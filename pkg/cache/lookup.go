package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kiranandcode/axiom-profiler-2/pkg/observability"
)

// GetJSON decodes the entry for key into v. keyType labels the lookup for
// the cache hooks ("stats", "view", "render"). An undecodable entry counts
// as a miss and is deleted.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) (bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if ok && json.Unmarshal(data, v) != nil {
		_ = c.Delete(ctx, key)
		ok = false
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return ok, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return SetRaw(ctx, c, keyType, key, data, ttl)
}

// GetRaw is Get with hook reporting, for entries that are not JSON such as
// rendered images.
func GetRaw(ctx context.Context, c Cache, keyType, key string) ([]byte, bool, error) {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType)
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	return data, ok, nil
}

// SetRaw is Set with hook reporting.
func SetRaw(ctx context.Context, c Cache, keyType, key string, data []byte, ttl time.Duration) error {
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}
