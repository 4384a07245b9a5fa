package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("invalid filter")

// NodeResolver maps raw node indices to handles. *instgraph.Graph
// implements it.
type NodeResolver interface {
	NodeAt(i int) (instgraph.NodeIdx, error)
}

var kindNames = [NumKinds]string{
	KindMaxNodeIdx:               "max-node-idx",
	KindMinNodeIdx:               "min-node-idx",
	KindIgnoreTheorySolving:      "ignore-theory-solving",
	KindIgnoreQuantifier:         "ignore-quantifier",
	KindIgnoreAllButQuantifier:   "ignore-all-but-quantifier",
	KindMaxInsts:                 "max-insts",
	KindMaxBranching:             "max-branching",
	KindShowNeighbours:           "show-neighbours",
	KindVisitSourceTree:          "visit-source-tree",
	KindVisitSubTreeWithRoot:     "visit-subtree",
	KindMaxDepth:                 "max-depth",
	KindShowLongestPath:          "show-longest-path",
	KindShowNamedQuantifier:      "show-named-quantifier",
	KindSelectNthMatchingLoop:    "select-nth-matching-loop",
	KindShowMatchingLoopSubgraph: "show-matching-loop-subgraph",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// String returns the textual form of f, which Parse accepts back. Nodes
// are written as raw indices.
func (f Filter) String() string {
	name := f.kind.String()
	switch f.kind {
	case KindMaxNodeIdx, KindMinNodeIdx, KindMaxBranching, KindMaxDepth, KindSelectNthMatchingLoop:
		return fmt.Sprintf("%s=%d", name, f.n)
	case KindMaxInsts:
		if f.flag {
			return fmt.Sprintf("%s=%d:ancestors", name, f.n)
		}
		return fmt.Sprintf("%s=%d", name, f.n)
	case KindIgnoreQuantifier, KindIgnoreAllButQuantifier:
		if !f.hasQuant {
			return name + "=none"
		}
		return fmt.Sprintf("%s=%d", name, f.quant)
	case KindShowNeighbours:
		return fmt.Sprintf("%s=%d:%s", name, f.node.Index(), f.dir)
	case KindVisitSourceTree, KindVisitSubTreeWithRoot:
		if !f.flag {
			return fmt.Sprintf("%s=%d:hide", name, f.node.Index())
		}
		return fmt.Sprintf("%s=%d", name, f.node.Index())
	case KindShowLongestPath:
		return fmt.Sprintf("%s=%d", name, f.node.Index())
	case KindShowNamedQuantifier:
		return name + "=" + quoteName(f.quantName)
	}
	return name
}

// Parse reads one filter in textual form. Node-anchored filters resolve
// their node through nodes, which may be nil when none are expected.
func Parse(s string, nodes NodeResolver) (Filter, error) {
	s = strings.TrimSpace(s)
	name, arg, hasArg := strings.Cut(s, "=")
	kind, ok := kindByName(name)
	if !ok {
		return Filter{}, fmt.Errorf("%w: unknown filter %q", ErrSyntax, name)
	}

	switch kind {
	case KindIgnoreTheorySolving, KindShowMatchingLoopSubgraph:
		if hasArg {
			return Filter{}, fmt.Errorf("%w: %s takes no argument", ErrSyntax, name)
		}
		return Filter{kind: kind}, nil
	}
	if !hasArg || arg == "" {
		return Filter{}, fmt.Errorf("%w: %s needs an argument", ErrSyntax, name)
	}

	switch kind {
	case KindMaxNodeIdx, KindMinNodeIdx, KindMaxBranching, KindMaxDepth, KindSelectNthMatchingLoop:
		n, err := parseCount(name, arg)
		return Filter{kind: kind, n: n}, err
	case KindMaxInsts:
		num, opt, _ := strings.Cut(arg, ":")
		n, err := parseCount(name, num)
		if err != nil {
			return Filter{}, err
		}
		switch opt {
		case "":
			return MaxInsts(n), nil
		case "ancestors":
			return MaxInstsWithAncestors(n), nil
		}
		return Filter{}, fmt.Errorf("%w: %s: unknown option %q", ErrSyntax, name, opt)
	case KindIgnoreQuantifier, KindIgnoreAllButQuantifier:
		if arg == "none" {
			return quantFilter(kind, 0, false), nil
		}
		q, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s: quantifier %q is not an index or none", ErrSyntax, name, arg)
		}
		return quantFilter(kind, trace.QuantIdx(q), true), nil
	case KindShowNeighbours:
		at, dir, _ := strings.Cut(arg, ":")
		node, err := parseNode(name, at, nodes)
		if err != nil {
			return Filter{}, err
		}
		switch dir {
		case "in":
			return ShowNeighbours(node, instgraph.Incoming), nil
		case "out":
			return ShowNeighbours(node, instgraph.Outgoing), nil
		}
		return Filter{}, fmt.Errorf("%w: %s: direction must be in or out, got %q", ErrSyntax, name, dir)
	case KindVisitSourceTree, KindVisitSubTreeWithRoot:
		at, opt, _ := strings.Cut(arg, ":")
		node, err := parseNode(name, at, nodes)
		if err != nil {
			return Filter{}, err
		}
		if opt != "" && opt != "hide" {
			return Filter{}, fmt.Errorf("%w: %s: unknown option %q", ErrSyntax, name, opt)
		}
		return Filter{kind: kind, node: node, flag: opt == ""}, nil
	case KindShowLongestPath:
		node, err := parseNode(name, arg, nodes)
		return Filter{kind: kind, node: node}, err
	case KindShowNamedQuantifier:
		if !strings.HasPrefix(arg, `"`) {
			return ShowNamedQuantifier(arg), nil
		}
		q, err := strconv.Unquote(arg)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %s: malformed quoted name %s", ErrSyntax, name, arg)
		}
		return ShowNamedQuantifier(q), nil
	}
	return Filter{}, fmt.Errorf("%w: unknown filter %q", ErrSyntax, name)
}

// quoteName writes a quantifier name so that Parse and ParseChain read it
// back unchanged. Names with commas, quotes or surrounding space are quoted.
func quoteName(s string) string {
	if s == "" || s != strings.TrimSpace(s) || strings.ContainsAny(s, `,"`) {
		return strconv.Quote(s)
	}
	return s
}

// splitChain splits a chain at commas outside double-quoted names.
func splitChain(s string) []string {
	var items []string
	start, quoted := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case quoted && c == '\\':
			i++
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			items = append(items, s[start:i])
			start = i + 1
		}
	}
	return append(items, s[start:])
}

func kindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

func parseCount(name, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s: %q is not a non-negative integer", ErrSyntax, name, arg)
	}
	return n, nil
}

func parseNode(name, arg string, nodes NodeResolver) (instgraph.NodeIdx, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return instgraph.NodeIdx{}, fmt.Errorf("%w: %s: %q is not a node index", ErrSyntax, name, arg)
	}
	if nodes == nil {
		return instgraph.NodeIdx{}, fmt.Errorf("%w: %s needs a loaded graph", ErrSyntax, name)
	}
	n, err := nodes.NodeAt(i)
	if err != nil {
		return instgraph.NodeIdx{}, fmt.Errorf("%w: %s: %w", ErrSyntax, name, err)
	}
	return n, nil
}
