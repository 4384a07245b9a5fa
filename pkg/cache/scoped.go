package cache

// ScopedKeyer wraps a Keyer with a prefix, so several deployments or
// schema versions can share one backend without seeing each other's keys.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// StatsKey generates a prefixed key for a stats report.
func (k *ScopedKeyer) StatsKey(traceHash string) string {
	return k.prefix + k.inner.StatsKey(traceHash)
}

// ViewKey generates a prefixed key for a view.
func (k *ScopedKeyer) ViewKey(traceHash string, opts ViewKeyOpts) string {
	return k.prefix + k.inner.ViewKey(traceHash, opts)
}

// RenderKey generates a prefixed key for a rendered diagram.
func (k *ScopedKeyer) RenderKey(viewKey string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(viewKey, opts)
}
