// Package io exports the visible part of an instantiation graph as JSON and
// reads such exports back.
//
// # JSON Format
//
// The export has two top-level arrays:
//
//	{
//	  "nodes": [
//	    {"id": 1, "label": "q0", "kind": "Quantifier", "summary": "ax-a", "cost": "2.5"},
//	    {"id": 4, "label": "q1", "kind": "Quantifier", "summary": "ax-b", "cost": "1.0"}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 4, "kind": "Yield", "hops": 3, "through": [2, 3]}
//	  ]
//	}
//
// Node ids are raw node indices of the graph, so they stay stable across
// views of the same trace. Only visible nodes are written. Edges are the
// visible edges: an edge that bridges hidden nodes has hops greater than
// one and lists the hidden nodes it crosses in through.
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode an export into a [Document] and check
// that node ids are unique and that every edge joins two listed nodes. The
// document is plain data; it does not rebuild a graph.
//
// # Export
//
// Use [ExportJSON] to write to a file, or [WriteJSON] to write to any
// io.Writer:
//
//	err := io.ExportJSON(tr, g, "view.json")
//
// # Concurrency
//
// Export reads the graph's visibility. It must not run concurrently with a
// view being applied to the same graph.
package io
