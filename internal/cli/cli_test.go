package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// testTrace is a single chain:
// f(t0) -> inst ax-a -> f(t1) -> (t1 = t2) -> inst ax-b -> g(t2)
const testTrace = `{
  "quantifiers": [
    {"name": "k!0", "user_name": "ax-a", "vars": ["x"], "body": "(forall ((x Int)) (f x))"},
    {"name": "k!1", "user_name": "ax-b"}
  ],
  "terms": [{"text": "f(t0)"}, {"text": "f(t1)"}, {"text": "g(t2)"}],
  "equalities": [{"text": "t1 = t2"}],
  "instantiations": [
    {"kind": "quantifier", "quantifier": 0, "generation": 1,
     "blame": [{"trigger": "(f x)", "enode": "f(t0)"}], "bound": ["t1"], "yields": ["f(t1)"]},
    {"kind": "quantifier", "quantifier": 1}
  ],
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

type fixture struct {
	dir      string
	trace    string
	config   string
	cacheDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:      dir,
		trace:    filepath.Join(dir, "run.json"),
		config:   filepath.Join(dir, "config.toml"),
		cacheDir: filepath.Join(dir, "cache"),
	}
	if err := os.WriteFile(f.trace, []byte(testTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := "[cache]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(f.cacheDir) + "\"\n"
	if err := os.WriteFile(f.config, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return f
}

// run executes the root command with args and returns its stdout.
func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", f.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	f := newFixture(t)

	want := strings.Join([]string{
		"no-enodes: 3",
		"no-given-equalities: 1",
		"no-trans-equalities: 0",
		"no-instantiations: 2",
		"nodes-count: 6",
		"top-instantiations=",
		"ax-a = 1",
		"ax-b = 1",
	}, "\n") + "\n"

	// The second run is served from the file cache.
	for i := 0; i < 2; i++ {
		got, err := f.run(t, "stats", f.trace)
		if err != nil {
			t.Fatalf("stats run %d: %v", i, err)
		}
		if got != want {
			t.Errorf("stats run %d = %q, want %q", i, got, want)
		}
	}

	got, err := f.run(t, "stats", "--top", "1", "--no-cache", f.trace)
	if err != nil {
		t.Fatalf("stats --top: %v", err)
	}
	if !strings.HasSuffix(got, "top-instantiations=\nax-a = 1\n") {
		t.Errorf("stats --top 1 = %q, want only ax-a ranked", got)
	}
}

func TestStatsCommandJSON(t *testing.T) {
	f := newFixture(t)
	got, err := f.run(t, "stats", "--json", "--no-cache", f.trace)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"enodes": 3`, `"nodes": 6`, `"name": "ax-a"`} {
		if !strings.Contains(got, want) {
			t.Errorf("stats --json missing %s in %s", want, got)
		}
	}
}

func TestTracePathErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
	}{
		{"directory", f.dir},
		{"missing", filepath.Join(f.dir, "missing.json")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, "stats", tt.path)
			if err == nil || !strings.Contains(err.Error(), "did not point to a file") {
				t.Errorf("stats %s error = %v, want 'did not point to a file'", tt.name, err)
			}
		})
	}
}

func TestFilterCommand(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "config defaults",
			args: nil,
			want: []string{"3 of 6 nodes visible", "ax-a"},
		},
		{
			name: "no disablers",
			args: []string{"-c", "ignore-theory-solving", "-d", "none"},
			want: []string{"6 of 6 nodes visible", "t1 = t2"},
		},
		{
			name: "longest path",
			args: []string{"-c", "show-longest-path=2", "-d", "none"},
			want: []string{"longest path"},
		},
		{
			name: "kind counts",
			args: []string{"-d", "enodes", "--kinds"},
			want: []string{"Kind", "Instantiation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.run(t, append([]string{"filter", f.trace}, tt.args...)...)
			if err != nil {
				t.Fatalf("filter: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("filter output missing %q:\n%s", w, got)
				}
			}
		})
	}
}

func TestFilterCommandErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown filter", []string{"-c", "no-such-filter"}},
		{"unknown disabler", []string{"-d", "sometimes"}},
		{"node out of range", []string{"-c", "visit-subtree=99"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.run(t, append([]string{"filter", f.trace}, tt.args...)...); err == nil {
				t.Errorf("filter %v should fail", tt.args)
			}
		})
	}
}

func TestInspectCommand(t *testing.T) {
	f := newFixture(t)

	got, err := f.run(t, "inspect", f.trace, "1", "-d", "none")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[q0] Quantifier", "ax-a", "(f x)"} {
		if !strings.Contains(got, want) {
			t.Errorf("inspect output missing %q:\n%s", want, got)
		}
	}

	for _, bad := range []string{"x", "42"} {
		if _, err := f.run(t, "inspect", f.trace, bad); err == nil {
			t.Errorf("inspect %q should fail", bad)
		}
	}
}

func TestReachCommand(t *testing.T) {
	f := newFixture(t)

	got, err := f.run(t, "reach", f.trace, "2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"6 nodes", "2: 0 1", "3: 3 4 5"} {
		if !strings.Contains(got, want) {
			t.Errorf("reach output missing %q:\n%s", want, got)
		}
	}

	got, err = f.run(t, "reach", f.trace, "0", "--to", "5,0")
	if err != nil {
		t.Fatal(err)
	}
	if want := "0 -> 5: true\n0 -> 0: true\n"; got != want {
		t.Errorf("reach --to = %q, want %q", got, want)
	}

	got, err = f.run(t, "reach", f.trace, "5", "--to", "0")
	if err != nil {
		t.Fatal(err)
	}
	if want := "5 -> 0: false\n"; got != want {
		t.Errorf("reach --to = %q, want %q", got, want)
	}
}

func TestRenderCommand(t *testing.T) {
	f := newFixture(t)

	got, err := f.run(t, "render", f.trace, "-f", "dot", "-o", "-", "-d", "none")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "digraph G {") {
		t.Errorf("render -o - should print DOT, got %q", got)
	}

	out := filepath.Join(f.dir, "graph.dot")
	if _, err := f.run(t, "render", f.trace, "-f", "dot", "-o", out); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("render should write %s: %v", out, err)
	}
	if !bytes.HasPrefix(data, []byte("digraph G {")) {
		t.Errorf("render wrote %q, want DOT", data)
	}

	got, err = f.run(t, "render", f.trace, "-f", "json", "-o", "-")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"nodes"`, `"label": "q0"`, `"through"`} {
		if !strings.Contains(got, want) {
			t.Errorf("render -f json missing %s:\n%s", want, got)
		}
	}

	if _, err := f.run(t, "render", f.trace, "-f", "dot,svg", "-o", "-"); err == nil {
		t.Error("render -o - with two formats should fail")
	}
	if _, err := f.run(t, "render", f.trace, "-f", "pdf"); err == nil {
		t.Error("render -f pdf should fail")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "run.json", "run"},
		{"", "traces/run.json.zst", "traces/run"},
		{"", "run.json.gz", "run"},
		{"out.svg", "run.json", "out"},
		{"out", "run.json", "out"},
		{"out.txt", "run.json", "out.txt"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestCacheCommands(t *testing.T) {
	f := newFixture(t)

	got, err := f.run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(got) != filepath.ToSlash(f.cacheDir) && strings.TrimSpace(got) != f.cacheDir {
		t.Errorf("cache path = %q, want %q", got, f.cacheDir)
	}

	got, err = f.run(t, "cache", "backends")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"none", "file", "redis", "mongo"} {
		if !strings.Contains(got, want) {
			t.Errorf("cache backends missing %q:\n%s", want, got)
		}
	}

	if _, err := f.run(t, "stats", f.trace); err != nil {
		t.Fatal(err)
	}
	if _, err := f.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(f.cacheDir)
	if len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestInvalidConfig(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.config, []byte("[cache]\nbackend = \"memcached\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := f.run(t, "stats", f.trace); err == nil {
		t.Error("an unknown cache backend should be rejected")
	}
}

// =============================================================================
// Explore
// =============================================================================

func newExploreSession(t *testing.T) *analysis.Session {
	t.Helper()
	tr, err := trace.Read(strings.NewReader(testTrace))
	if err != nil {
		t.Fatal(err)
	}
	sess, err := analysis.NewSession(context.Background(), tr, analysis.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m ExploreModel, keys ...string) ExploreModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(ExploreModel)
	}
	return m
}

func TestExploreModelToggles(t *testing.T) {
	m, err := NewExploreModel(context.Background(), newExploreSession(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(m.Nodes()); got != 6 {
		t.Fatalf("visible nodes = %d, want 6", got)
	}

	tests := []struct {
		keys      []string
		visible   int
		chain     string
		disablers int
	}{
		{[]string{"1"}, 3, "", 1},
		{[]string{"1", "1"}, 6, "", 0},
		{[]string{"2"}, 3, "", 1},
		{[]string{"3"}, 5, "", 1},
		{[]string{"t"}, 6, "ignore-theory-solving", 0},
		{[]string{"+"}, 6, "max-insts=10", 0},
		{[]string{"+", "-"}, 6, "", 0},
		{[]string{"-"}, 6, "", 0},
	}
	for _, tt := range tests {
		got := press(t, m, tt.keys...)
		if got.Err != nil {
			t.Errorf("keys %v: Err = %v", tt.keys, got.Err)
		}
		if n := len(got.Nodes()); n != tt.visible {
			t.Errorf("keys %v: visible = %d, want %d", tt.keys, n, tt.visible)
		}
		if s := got.Chain().String(); s != tt.chain {
			t.Errorf("keys %v: chain = %q, want %q", tt.keys, s, tt.chain)
		}
		if n := len(got.Disablers()); n != tt.disablers {
			t.Errorf("keys %v: disablers = %d, want %d", tt.keys, n, tt.disablers)
		}
	}
}

func TestExploreModelStartsFromChain(t *testing.T) {
	m, err := NewExploreModel(context.Background(), newExploreSession(t), filter.Default(), disabler.Default())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Chain().String(), filter.Default().String(); got != want {
		t.Errorf("Chain() = %q, want %q", got, want)
	}
	m = press(t, m, "t")
	if got, want := m.Chain().String(), "max-insts=125"; got != want {
		t.Errorf("after t, Chain() = %q, want %q", got, want)
	}
	if !strings.Contains(m.View(), "max-insts=125") {
		t.Error("View() should show the chain")
	}
}

func TestExploreModelNavigation(t *testing.T) {
	m, err := NewExploreModel(context.Background(), newExploreSession(t), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	m = press(t, m, "k")
	if m.Cursor != 0 {
		t.Errorf("k at top: Cursor = %d, want 0", m.Cursor)
	}
	m = press(t, m, "j", "j", "j", "j", "j", "j", "j")
	if m.Cursor != 5 {
		t.Errorf("j past bottom: Cursor = %d, want 5", m.Cursor)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ExploreModel)
	if !m.Details {
		t.Error("enter should show details")
	}

	// Hiding nodes pulls the cursor back into range.
	m = press(t, m, "1")
	if m.Cursor >= len(m.Nodes()) {
		t.Errorf("Cursor = %d with %d nodes", m.Cursor, len(m.Nodes()))
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q should quit")
	}
}
