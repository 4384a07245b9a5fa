// Package pkg holds the libraries behind axiom-profiler.
//
// # Overview
//
// axiom-profiler loads the instantiation graph of an SMT solver run and
// narrows it down to the quantifiers that matter. The pkg directory is
// organized by layer:
//
//  1. [trace] - Facts documents produced by the log parser
//  2. [instgraph] - The instantiation graph, its visibility bits and subgraphs
//  3. [filter] and [disabler] - View selection over the graph
//  4. [analysis] - Graph construction, sessions, node descriptions and stats
//  5. [render/dot] and [io] - Graphviz and JSON output of a view
//  6. [cache], [config], [errors], [observability], [buildinfo] - Infrastructure
//
// # Architecture
//
// The typical data flow:
//
//	facts document (JSON, gzip or zstd)
//	         ↓
//	    [trace] package (decode and validate)
//	         ↓
//	    [analysis] package (build graph, compute depths)
//	         ↓
//	    [filter] chain + [disabler] set (visibility)
//	         ↓
//	    DOT/SVG/PNG/JSON output, stats report, HTTP API
//
// # Quick Start
//
//	tr, _ := trace.Open("run.json")
//	sess, _ := analysis.NewSession(ctx, tr, analysis.Options{})
//	v, _ := sess.View(ctx, filter.Default(), disabler.Default())
//	fmt.Println(v)
//	src := dot.ToDOT(sess.Trace(), sess.Graph(), dot.Options{})
//
// # Error Handling
//
// Packages return errors from [errors] carrying a code (INVALID_TRACE,
// INVALID_FILTER, NOT_FOUND, ...) so that the CLI and the HTTP server can
// map them to exit messages and status codes.
//
// [trace]: github.com/kiranandcode/axiom-profiler-2/pkg/trace
// [instgraph]: github.com/kiranandcode/axiom-profiler-2/pkg/instgraph
// [filter]: github.com/kiranandcode/axiom-profiler-2/pkg/filter
// [disabler]: github.com/kiranandcode/axiom-profiler-2/pkg/disabler
// [analysis]: github.com/kiranandcode/axiom-profiler-2/pkg/analysis
// [render/dot]: github.com/kiranandcode/axiom-profiler-2/pkg/render/dot
// [io]: github.com/kiranandcode/axiom-profiler-2/pkg/io
// [cache]: github.com/kiranandcode/axiom-profiler-2/pkg/cache
// [config]: github.com/kiranandcode/axiom-profiler-2/pkg/config
// [errors]: github.com/kiranandcode/axiom-profiler-2/pkg/errors
// [observability]: github.com/kiranandcode/axiom-profiler-2/pkg/observability
// [buildinfo]: github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo
package pkg
