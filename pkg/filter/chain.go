package filter

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// DefaultNodeCount bounds the instantiations shown by the default chain.
const DefaultNodeCount = 125

// Chain is an ordered list of filters applied left to right.
type Chain []Filter

// Default returns the chain applied to a freshly loaded graph: drop theory
// solving, then keep the DefaultNodeCount costliest instantiations.
func Default() Chain {
	return Chain{IgnoreTheorySolving(), MaxInsts(DefaultNodeCount)}
}

// Apply runs every filter of c in order and collects their outputs. It
// stops at the first error, naming the failing position; filters before it
// have already been applied.
func (c Chain) Apply(g *instgraph.Graph, facts Resolver) ([]Output, error) {
	outs := make([]Output, 0, len(c))
	for i, f := range c {
		out, err := f.Apply(g, facts)
		if err != nil {
			return outs, fmt.Errorf("filter %d (%s): %w", i, f, err)
		}
		outs = append(outs, out)
	}
	return outs, nil
}

// Hash returns a content hash of f. Equal filters hash equally, across
// processes too: node parameters contribute their raw index only.
func (f Filter) Hash() uint64 {
	return xxhash.Sum64String(f.String())
}

// Hash returns a content hash of the chain, sensitive to order.
func (c Chain) Hash() uint64 {
	d := xxhash.New()
	for _, f := range c {
		_, _ = d.WriteString(f.String())
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Key returns the chain hash as a fixed-width hex string for cache keys.
func (c Chain) Key() string {
	return fmt.Sprintf("%016x", c.Hash())
}

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// ParseChain reads a comma-separated list of filters. Commas inside a
// double-quoted quantifier name do not split. Empty items are
// skipped, so "" is the empty chain.
func ParseChain(s string, nodes NodeResolver) (Chain, error) {
	var c Chain
	for i, item := range splitChain(s) {
		if strings.TrimSpace(item) == "" {
			continue
		}
		f, err := Parse(item, nodes)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		c = append(c, f)
	}
	return c, nil
}
