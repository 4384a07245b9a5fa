package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes an export from r.
//
// ReadJSON returns an error if the JSON is malformed, a node id repeats,
// or an edge names a node that is not listed. Errors name the offending
// node or edge. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	ids := make(map[int]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if ids[n.ID] {
			return nil, fmt.Errorf("node %d: duplicate id", n.ID)
		}
		ids[n.ID] = true
	}
	for _, e := range doc.Edges {
		if !ids[e.From] || !ids[e.To] {
			return nil, fmt.Errorf("edge %d->%d: unknown node", e.From, e.To)
		}
		if e.Hops < 1 {
			return nil, fmt.Errorf("edge %d->%d: hops must be at least 1", e.From, e.To)
		}
	}
	return &doc, nil
}

// ImportJSON reads the export at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
