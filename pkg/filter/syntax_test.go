package filter

import (
	"errors"
	"slices"
	"testing"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

func TestParse_RoundTrip(t *testing.T) {
	g, _, _ := fixture(t)
	inputs := []string{
		"max-node-idx=10",
		"min-node-idx=0",
		"ignore-theory-solving",
		"ignore-quantifier=3",
		"ignore-quantifier=none",
		"ignore-all-but-quantifier=0",
		"ignore-all-but-quantifier=none",
		"max-insts=125",
		"max-insts=7:ancestors",
		"max-branching=4",
		"show-neighbours=2:in",
		"show-neighbours=2:out",
		"visit-source-tree=5",
		"visit-source-tree=5:hide",
		"visit-subtree=1",
		"visit-subtree=1:hide",
		"max-depth=3",
		"show-longest-path=4",
		"show-named-quantifier=prelude.ax",
		"select-nth-matching-loop=2",
		"show-matching-loop-subgraph",
	}
	seen := map[Kind]bool{}
	for _, in := range inputs {
		f, err := Parse(in, g)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", in, err)
			continue
		}
		seen[f.Kind()] = true
		if got := f.String(); got != in {
			t.Errorf("Parse(%q).String() = %q", in, got)
		}
	}
	if len(seen) != NumKinds {
		t.Errorf("covered %d kinds, want %d", len(seen), NumKinds)
	}
}

func TestParse_Errors(t *testing.T) {
	g, _, _ := fixture(t)
	tests := []struct {
		in    string
		graph NodeResolver
	}{
		{"bogus", g},
		{"max-insts", g},
		{"max-insts=-1", g},
		{"max-insts=3:parents", g},
		{"ignore-theory-solving=1", g},
		{"ignore-quantifier=abc", g},
		{"show-neighbours=1:up", g},
		{"show-neighbours=100:in", g},
		{"visit-subtree=1:keep", g},
		{"show-longest-path=1", nil},
		{`show-named-quantifier="open`, g},
	}
	for _, tt := range tests {
		if _, err := Parse(tt.in, tt.graph); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", tt.in, err)
		}
	}
}

func TestNamedQuantifier_Quoting(t *testing.T) {
	names := []string{"plain", "a,b", " padded ", `say "hi"`, `back\\slash,`, ""}
	for _, name := range names {
		c := Chain{ShowNamedQuantifier(name), MaxInsts(4)}
		text := c.String()
		got, err := ParseChain(text, nil)
		if err != nil {
			t.Errorf("ParseChain(%q) error: %v", text, err)
			continue
		}
		if !slices.Equal(got, c) {
			t.Errorf("ParseChain(%q) = %v, want %v", text, got, c)
		}
		if got.Hash() != c.Hash() {
			t.Errorf("hash of %q changed across the round trip", name)
		}
	}

	if ShowNamedQuantifier("a,b").Hash() == (Chain{ShowNamedQuantifier("a"), ShowNamedQuantifier("b")}).Hash() {
		t.Error("a name with a comma hashes like two filters")
	}
	if got := ShowNamedQuantifier("plain").String(); got != "show-named-quantifier=plain" {
		t.Errorf("String() = %q, want an unquoted name", got)
	}
}

func TestParse_ResolvesNodes(t *testing.T) {
	g, n, _ := fixture(t)
	f, err := Parse("show-neighbours=4:in", g)
	if err != nil {
		t.Fatal(err)
	}
	if f.Node() != n[4] || f.Direction() != instgraph.Incoming {
		t.Errorf("Parse() = %#v, want node 4 incoming", f)
	}
	if f != ShowNeighbours(n[4], instgraph.Incoming) {
		t.Error("parsed filter is not equal to the constructed one")
	}
}

func TestParseChain(t *testing.T) {
	c, err := ParseChain(" ignore-theory-solving , max-insts=125 ,", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != Default().String() {
		t.Errorf("ParseChain() = %q, want %q", c, Default())
	}
	if c.Hash() != Default().Hash() {
		t.Error("parsed default chain hashes differently")
	}

	empty, err := ParseChain("", nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("ParseChain(\"\") = %v, %v, want empty chain", empty, err)
	}

	if _, err := ParseChain("max-insts=1, nope", nil); !errors.Is(err, ErrSyntax) {
		t.Errorf("ParseChain() error = %v, want ErrSyntax", err)
	}
}
