package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/kiranandcode/axiom-profiler-2/pkg/errors"
)

const sampleTrace = `{
  "quantifiers": [{"name": "prog.inv", "user_name": "prog.inv", "vars": ["x"], "body": "forall x. f(x) > 0"}],
  "terms": [{"text": "f(a)"}],
  "equalities": [{"text": "a = b"}],
  "instantiations": [
    {"kind": "quantifier", "quantifier": 0, "generation": 1, "bound": ["a"]},
    {"kind": "theory-solving", "namespace": "arith", "axiom_id": "7"}
  ],
  "nodes": [
    {"kind": "enode", "ref": 0, "cost": 1},
    {"kind": "inst", "ref": 0, "cost": 2.5},
    {"kind": "inst", "ref": 1, "cost": 0}
  ],
  "edges": [
    {"kind": "blame", "trigger": 0, "from": 0, "to": 1},
    {"kind": "yield", "from": 1, "to": 2}
  ]
}`

func TestRead(t *testing.T) {
	tr, err := Read(strings.NewReader(sampleTrace))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tr.Nodes) != 3 || len(tr.Edges) != 2 {
		t.Fatalf("got %d nodes %d edges, want 3 and 2", len(tr.Nodes), len(tr.Edges))
	}
	if tr.Instantiations[1].Kind != MatchTheorySolving {
		t.Errorf("Kind = %v, want theory-solving", tr.Instantiations[1].Kind)
	}
	if len(tr.Hash()) != 64 {
		t.Errorf("Hash() length = %d, want 64", len(tr.Hash()))
	}
	if tr.HasDepths() {
		t.Error("HasDepths() = true for a trace without depths")
	}
}

func TestRead_Compressed(t *testing.T) {
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	w.Write([]byte(sampleTrace))
	w.Close()

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zst := enc.EncodeAll([]byte(sampleTrace), nil)
	enc.Close()

	for name, data := range map[string][]byte{"gzip": gz.Bytes(), "zstd": zst} {
		t.Run(name, func(t *testing.T) {
			tr, err := Read(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(tr.Nodes) != 3 {
				t.Errorf("len(Nodes) = %d, want 3", len(tr.Nodes))
			}
		})
	}
}

func TestRead_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"nodes": [`},
		{"unknown field", `{"vertices": []}`},
		{"unknown node kind", `{"nodes": [{"kind": "term", "ref": 0}]}`},
		{"negative cost", `{"nodes": [{"kind": "enode", "ref": 0, "cost": -1}]}`},
		{"bad depth", `{"nodes": [{"kind": "enode", "ref": 0, "fwd_depth": {"min": 3, "max": 1}}]}`},
		{"unknown edge kind", `{"nodes": [{"kind": "enode"}], "edges": [{"kind": "calls", "from": 0, "to": 0}]}`},
		{"dangling edge", `{"nodes": [{"kind": "enode"}], "edges": [{"kind": "yield", "from": 0, "to": 4}]}`},
		{"unknown match kind", `{"instantiations": [{"kind": "guess"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Read() error = nil, want error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidTrace) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTrace)
			}
		})
	}
}

func TestRead_DanglingReferencesAllowed(t *testing.T) {
	input := `{"nodes": [{"kind": "inst", "ref": 42, "cost": 1}]}`
	tr, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, ok := tr.Instantiation(42); ok {
		t.Error("Instantiation(42) found in a trace without instantiations")
	}
	if _, ok := tr.InstQuantifier(42); ok {
		t.Error("InstQuantifier(42) resolved a dangling reference")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := os.WriteFile(path, []byte(sampleTrace), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	_, err := Open(dir)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("Open(dir) code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPath)
	}
}

func TestInstantiation_QuantIdx(t *testing.T) {
	q := QuantIdx(3)
	tests := []struct {
		name string
		inst Instantiation
		want bool
	}{
		{"quantifier", Instantiation{Kind: MatchQuantifier, Quantifier: &q}, true},
		{"mbqi", Instantiation{Kind: MatchMBQI, Quantifier: &q}, true},
		{"axiom", Instantiation{Kind: MatchAxiom, Quantifier: &q}, true},
		{"theory solving", Instantiation{Kind: MatchTheorySolving, Quantifier: &q}, false},
		{"missing", Instantiation{Kind: MatchQuantifier}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.inst.QuantIdx()
			if ok != tt.want {
				t.Fatalf("QuantIdx() ok = %v, want %v", ok, tt.want)
			}
			if ok && got != q {
				t.Errorf("QuantIdx() = %d, want %d", got, q)
			}
		})
	}
}
