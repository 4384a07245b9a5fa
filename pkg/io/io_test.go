package io

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

const testTrace = `{
  "quantifiers": [{"name": "k!0", "user_name": "ax-a"}, {"name": "k!1", "user_name": "ax-b"}],
  "terms": [{"text": "f(t0)"}, {"text": "f(t1)"}, {"text": "g(t2)"}],
  "equalities": [{"text": "t1 = t2"}],
  "instantiations": [{"kind": "quantifier", "quantifier": 0}, {"kind": "quantifier", "quantifier": 1}],
  "nodes": [
    {"kind": "enode", "ref": 0},
    {"kind": "inst", "ref": 0, "cost": 2.5},
    {"kind": "enode", "ref": 1},
    {"kind": "given-eq", "ref": 0},
    {"kind": "inst", "ref": 1, "cost": 1},
    {"kind": "enode", "ref": 2}
  ],
  "edges": [
    {"kind": "blame", "trigger": 0, "from": 0, "to": 1},
    {"kind": "yield", "from": 1, "to": 2},
    {"kind": "eq-fact", "from": 2, "to": 3},
    {"kind": "blame-eq", "from": 3, "to": 4},
    {"kind": "yield", "from": 4, "to": 5}
  ]
}`

func newSession(t *testing.T) *analysis.Session {
	t.Helper()
	tr, err := trace.Read(strings.NewReader(testTrace))
	if err != nil {
		t.Fatal(err)
	}
	sess, err := analysis.NewSession(context.Background(), tr, analysis.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sess.View(context.Background(), nil, disabler.Default()); err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestNewDocument(t *testing.T) {
	sess := newSession(t)
	doc := NewDocument(sess.Trace(), sess.Graph())

	var ids []int
	for _, n := range doc.Nodes {
		ids = append(ids, n.ID)
	}
	if want := []int{0, 1, 4}; !slices.Equal(ids, want) {
		t.Fatalf("node ids = %v, want %v", ids, want)
	}
	if doc.Nodes[1].Label != "q0" || doc.Nodes[1].Summary != "ax-a" {
		t.Errorf("node 1 = %+v, want label q0 summary ax-a", doc.Nodes[1])
	}

	if len(doc.Edges) != 2 {
		t.Fatalf("edges = %+v, want 2", doc.Edges)
	}
	direct, bridged := doc.Edges[0], doc.Edges[1]
	if direct.From != 0 || direct.To != 1 || direct.Hops != 1 || len(direct.Through) != 0 {
		t.Errorf("direct edge = %+v", direct)
	}
	if bridged.From != 1 || bridged.To != 4 || bridged.Hops != 3 || !slices.Equal(bridged.Through, []int{2, 3}) {
		t.Errorf("bridged edge = %+v, want 1->4 through [2 3]", bridged)
	}
}

func TestRoundTrip(t *testing.T) {
	sess := newSession(t)
	path := filepath.Join(t.TempDir(), "view.json")
	if err := ExportJSON(sess.Trace(), sess.Graph(), path); err != nil {
		t.Fatalf("ExportJSON() error: %v", err)
	}
	doc, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON() error: %v", err)
	}
	want := NewDocument(sess.Trace(), sess.Graph())
	if len(doc.Nodes) != len(want.Nodes) || len(doc.Edges) != len(want.Edges) {
		t.Errorf("ImportJSON() = %d nodes %d edges, want %d and %d",
			len(doc.Nodes), len(doc.Edges), len(want.Nodes), len(want.Edges))
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"malformed", `{"nodes": [`, "decode"},
		{"duplicate node", `{"nodes": [{"id": 1}, {"id": 1}], "edges": []}`, "duplicate"},
		{"unknown node", `{"nodes": [{"id": 1}], "edges": [{"from": 1, "to": 2, "hops": 1}]}`, "unknown node"},
		{"zero hops", `{"nodes": [{"id": 1}, {"id": 2}], "edges": [{"from": 1, "to": 2}]}`, "hops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(bytes.NewBufferString(tt.json))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadJSON() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestImportJSONMissing(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("ImportJSON() of a missing file should fail")
	}
}
