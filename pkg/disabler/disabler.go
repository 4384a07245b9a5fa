// Package disabler hides structurally trivial nodes of an instantiation
// graph.
//
// Disablers are evaluated against the full graph, independent of any
// filter, and write only the disabler-hidden bit. Several disablers combine
// by OR: a node is disabled if any of them disables it. Applying a set is a
// full recompute, so applying it twice gives the same result.
package disabler

import (
	"fmt"
	"strings"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// Disabler is one structural elision rule.
type Disabler uint8

const (
	// Smart hides terms and equalities that only relay a single dependency
	// or lead nowhere.
	Smart Disabler = iota
	// ENodes hides every term.
	ENodes
	// GivenEqualities hides every asserted equality.
	GivenEqualities
	// AllEqualities hides every equality, given or transitive.
	AllEqualities
)

// All lists every disabler in display order.
var All = []Disabler{Smart, ENodes, GivenEqualities, AllEqualities}

var names = [...]string{
	Smart:           "smart",
	ENodes:          "enodes",
	GivenEqualities: "given-equalities",
	AllEqualities:   "all-equalities",
}

var descriptions = [...]string{
	Smart:           "trivial nodes",
	ENodes:          "yield terms",
	GivenEqualities: "yield equalities",
	AllEqualities:   "all equalities",
}

func (d Disabler) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("Disabler(%d)", d)
}

// Description returns the short label shown next to the disabler toggle.
func (d Disabler) Description() string {
	if int(d) < len(descriptions) {
		return descriptions[d]
	}
	return ""
}

// Default returns the disablers enabled for a freshly loaded graph.
func Default() []Disabler { return []Disabler{Smart} }

// Disables reports whether d hides n. Degrees count edges, so parallel
// edges count once each.
func (d Disabler) Disables(g *instgraph.Graph, n instgraph.NodeIdx) bool {
	node, ok := g.Node(n)
	if !ok {
		return false
	}
	switch d {
	case ENodes:
		return node.Kind.Tag() == instgraph.TagENode
	case GivenEqualities:
		return node.Kind.Tag() == instgraph.TagGivenEquality
	case AllEqualities:
		tag := node.Kind.Tag()
		return tag == instgraph.TagGivenEquality || tag == instgraph.TagTransEquality
	case Smart:
		parents, children := g.InDegree(n), g.OutDegree(n)
		relay := parents == 1 && children == 1
		switch node.Kind.Tag() {
		case instgraph.TagENode, instgraph.TagGivenEquality:
			return children == 0 || relay
		case instgraph.TagTransEquality:
			return parents == 0 || relay
		case instgraph.TagInstantiation:
			return false
		}
	}
	return false
}

// Apply recomputes the disabler-hidden bit of every node of g from ds.
// With no disablers every node is enabled again.
func Apply(g *instgraph.Graph, ds ...Disabler) {
	g.ResetDisabledTo(func(n instgraph.NodeIdx, g *instgraph.Graph) bool {
		for _, d := range ds {
			if d.Disables(g, n) {
				return true
			}
		}
		return false
	})
}

// Parse reads a disabler by name.
func Parse(s string) (Disabler, error) {
	s = strings.TrimSpace(s)
	for i, n := range names {
		if n == s {
			return Disabler(i), nil
		}
	}
	return 0, fmt.Errorf("unknown disabler %q (want one of %s)", s, strings.Join(names[:], ", "))
}

// ParseList reads a comma-separated list of disabler names. "none" and the
// empty string yield no disablers.
func ParseList(s string) ([]Disabler, error) {
	if t := strings.TrimSpace(s); t == "" || t == "none" {
		return nil, nil
	}
	var out []Disabler
	for _, item := range strings.Split(s, ",") {
		d, err := Parse(item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
