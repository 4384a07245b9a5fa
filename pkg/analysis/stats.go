package analysis

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// QuantifierCount is the number of instantiations of one named quantifier.
type QuantifierCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes a trace and its graph.
type Stats struct {
	ENodes            int               `json:"enodes"`
	GivenEqualities   int               `json:"given_equalities"`
	TransEqualities   int               `json:"trans_equalities"`
	Instantiations    int               `json:"instantiations"`
	Nodes             int               `json:"nodes"`
	TopInstantiations []QuantifierCount `json:"top_instantiations"`
}

// ComputeStats counts nodes per kind and instantiations per user-named
// quantifier. Quantifiers without a user name are not ranked. The ranking
// is sorted by count, highest first, then by name.
func ComputeStats(tr *trace.Trace, g *instgraph.Graph) Stats {
	counts := g.CountByTag()
	st := Stats{
		ENodes:          counts[instgraph.TagENode],
		GivenEqualities: counts[instgraph.TagGivenEquality],
		TransEqualities: counts[instgraph.TagTransEquality],
		Instantiations:  counts[instgraph.TagInstantiation],
		Nodes:           g.NodeCount(),
	}

	byName := make(map[string]int)
	for i := range tr.Instantiations {
		q, ok := tr.InstQuantifier(trace.InstIdx(i))
		if !ok || q.UserName == "" {
			continue
		}
		byName[q.UserName]++
	}
	st.TopInstantiations = make([]QuantifierCount, 0, len(byName))
	for name, n := range byName {
		st.TopInstantiations = append(st.TopInstantiations, QuantifierCount{Name: name, Count: n})
	}
	slices.SortFunc(st.TopInstantiations, func(a, b QuantifierCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return st
}

// Top returns the first k ranked quantifiers, or all of them when k is
// negative.
func (s Stats) Top(k int) []QuantifierCount {
	if k < 0 || k >= len(s.TopInstantiations) {
		return s.TopInstantiations
	}
	return s.TopInstantiations[:k]
}

// WriteReport writes the plain-text report read by benchmarking scripts.
// top limits the ranking as in [Stats.Top].
func (s Stats) WriteReport(w io.Writer, top int) error {
	lines := []string{
		fmt.Sprintf("no-enodes: %d", s.ENodes),
		fmt.Sprintf("no-given-equalities: %d", s.GivenEqualities),
		fmt.Sprintf("no-trans-equalities: %d", s.TransEqualities),
		fmt.Sprintf("no-instantiations: %d", s.Instantiations),
		fmt.Sprintf("nodes-count: %d", s.Nodes),
		"top-instantiations=",
	}
	for _, qc := range s.Top(top) {
		lines = append(lines, fmt.Sprintf("%s = %d", qc.Name, qc.Count))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
