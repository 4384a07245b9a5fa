// Package cache stores derived analysis results keyed by trace content.
//
// A loaded trace is identified by the SHA-256 of its bytes; a view of it by
// that hash plus the content hash of the filter chain and the disabler set.
// Backends implement [Cache]: [NullCache] (disabled), [FileCache] (local
// CLI use), [RedisCache] and [MongoCache] (shared by several server
// instances). Keys come from a [Keyer] so hosts can scope them.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored value and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for the derived results of a trace.
type Keyer interface {
	// StatsKey identifies the stats report of a trace.
	StatsKey(traceHash string) string

	// ViewKey identifies the visible node set of a trace under a filter
	// chain and a disabler set.
	ViewKey(traceHash string, opts ViewKeyOpts) string

	// RenderKey identifies a rendered diagram of a view.
	RenderKey(viewKey string, opts RenderKeyOpts) string
}

// ViewKeyOpts are the inputs that determine a view.
type ViewKeyOpts struct {
	ChainHash uint64   `json:"chain"`
	Disablers []string `json:"disablers"`
}

// RenderKeyOpts are the inputs that determine a rendered diagram.
type RenderKeyOpts struct {
	Format     string `json:"format"`
	Detailed   bool   `json:"detailed"`
	LabelLimit int    `json:"label_limit"`
}

// DefaultKeyer is the standard Keyer. Keys are "<kind>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// StatsKey generates a key for a stats report.
func (DefaultKeyer) StatsKey(traceHash string) string {
	return hashKey("stats", traceHash)
}

// ViewKey generates a key for a view.
func (DefaultKeyer) ViewKey(traceHash string, opts ViewKeyOpts) string {
	return hashKey("view", traceHash, opts)
}

// RenderKey generates a key for a rendered diagram.
func (DefaultKeyer) RenderKey(viewKey string, opts RenderKeyOpts) string {
	return hashKey("render", viewKey, opts)
}
