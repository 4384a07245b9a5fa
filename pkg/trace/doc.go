// Package trace holds the facts extracted from an SMT solver's
// quantifier-instantiation log.
//
// # Overview
//
// Tokenizing raw Z3 output is the job of an external collaborator. What
// arrives here is a pre-computed facts document: the tables of quantifiers,
// e-graph terms, equalities and instantiations, plus the causal graph over
// them (nodes with costs and depths, typed edges). The document is read-only
// once loaded; the graph engine in [instgraph] indexes into these tables but
// never mutates them.
//
// # Format
//
// The document is a JSON object:
//
//	{
//	  "quantifiers":    [{"name": "prog.inv", "user_name": "prog.inv", "vars": ["x"], "body": "..."}],
//	  "terms":          [{"text": "f(a)"}],
//	  "equalities":     [{"text": "a = b"}],
//	  "instantiations": [{"kind": "quantifier", "quantifier": 0, "generation": 2,
//	                      "pattern": ["f(x)"], "bound": ["a"], "yields": ["g(a)"]}],
//	  "nodes":          [{"kind": "enode", "ref": 0, "cost": 1.5,
//	                      "fwd_depth": {"min": 0, "max": 0}, "bwd_depth": {"min": 1, "max": 1}}],
//	  "edges":          [{"kind": "blame", "trigger": 0, "from": 0, "to": 1}]
//	}
//
// Files named *.gz or *.zst are decompressed transparently.
//
// # Partial Traces
//
// Traces captured from a solver run that was interrupted are expected input.
// A node may reference an instantiation or quantifier that is missing from
// its table; lookups report this through their boolean result and callers
// treat the entity as absent rather than failing. Structural problems that
// would corrupt the graph (edges to missing nodes, negative costs, unknown
// kinds) are rejected by [Trace.Validate].
//
// [instgraph]: github.com/kiranandcode/axiom-profiler-2/pkg/instgraph
package trace
