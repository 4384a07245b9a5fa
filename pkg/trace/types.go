package trace

import "fmt"

// Table indices. Each indexes the matching slice of a [Trace].
type (
	QuantIdx uint32
	TermIdx  uint32
	EqIdx    uint32
	InstIdx  uint32
)

// MatchKind classifies how the solver arrived at an instantiation.
type MatchKind uint8

const (
	// MatchQuantifier is an e-matching instantiation of a user quantifier.
	MatchQuantifier MatchKind = iota
	// MatchMBQI is a model-based quantifier instantiation.
	MatchMBQI
	// MatchTheorySolving is an instantiation produced by theory propagation
	// rather than by a pattern match in the e-graph.
	MatchTheorySolving
	// MatchAxiom is an instantiation of a built-in axiom.
	MatchAxiom
)

var matchKindNames = [...]string{
	MatchQuantifier:    "quantifier",
	MatchMBQI:          "mbqi",
	MatchTheorySolving: "theory-solving",
	MatchAxiom:         "axiom",
}

// String returns the wire name of the kind.
func (k MatchKind) String() string {
	if int(k) < len(matchKindNames) {
		return matchKindNames[k]
	}
	return fmt.Sprintf("MatchKind(%d)", k)
}

// MarshalText implements encoding.TextMarshaler.
func (k MatchKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *MatchKind) UnmarshalText(b []byte) error {
	for i, name := range matchKindNames {
		if name == string(b) {
			*k = MatchKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown match kind %q", b)
}

// Quantifier is a quantified axiom declared in the solver input.
type Quantifier struct {
	Name     string   `json:"name"`                // solver-assigned name
	UserName string   `json:"user_name,omitempty"` // set when the user named it (:qid)
	Vars     []string `json:"vars,omitempty"`
	Body     string   `json:"body,omitempty"`
}

// DisplayName returns the user-given name if there is one, the solver's
// name otherwise.
func (q *Quantifier) DisplayName() string {
	if q.UserName != "" {
		return q.UserName
	}
	return q.Name
}

// Term is an e-graph term (ENode).
type Term struct {
	Text string `json:"text"`
}

// Equality is an equality fact, given or derived.
type Equality struct {
	Text string `json:"text"`
}

// Blame links one trigger of a pattern to the term it matched.
type Blame struct {
	Trigger    string   `json:"trigger"`
	ENode      string   `json:"enode"`
	Equalities []string `json:"equalities,omitempty"`
}

// Instantiation is one concrete application of a quantifier or axiom.
type Instantiation struct {
	Kind MatchKind `json:"kind"`
	// Quantifier is set for quantifier, mbqi and axiom matches.
	Quantifier *QuantIdx `json:"quantifier,omitempty"`
	// Namespace and AxiomID identify theory-solving instantiations.
	Namespace     string   `json:"namespace,omitempty"`
	AxiomID       string   `json:"axiom_id,omitempty"`
	Generation    *uint32  `json:"generation,omitempty"`
	Pattern       []string `json:"pattern,omitempty"`
	Blame         []Blame  `json:"blame,omitempty"`
	Bound         []string `json:"bound,omitempty"`
	Yields        []string `json:"yields,omitempty"`
	ResultingTerm string   `json:"resulting_term,omitempty"`
}

// QuantIdx returns the instantiated quantifier, if the match kind has one.
func (i *Instantiation) QuantIdx() (QuantIdx, bool) {
	if i.Quantifier == nil || i.Kind == MatchTheorySolving {
		return 0, false
	}
	return *i.Quantifier, true
}

// IsTheorySolving reports whether the instantiation came from theory
// propagation instead of e-matching.
func (i *Instantiation) IsTheorySolving() bool { return i.Kind == MatchTheorySolving }

// Depth is a shortest/longest distance pair, counted in edges.
type Depth struct {
	Min uint32 `json:"min"`
	Max uint32 `json:"max"`
}

// NodeFact is one vertex of the causal graph as reported by the ingester.
type NodeFact struct {
	Kind     string  `json:"kind"` // enode, given-eq, trans-eq, inst
	Ref      uint32  `json:"ref"`  // index into the table selected by Kind
	Cost     float64 `json:"cost"`
	FwdDepth *Depth  `json:"fwd_depth,omitempty"`
	BwdDepth *Depth  `json:"bwd_depth,omitempty"`
}

// EdgeFact is one directed dependency of the causal graph.
type EdgeFact struct {
	Kind    string `json:"kind"`
	Trigger uint32 `json:"trigger,omitempty"` // blame edges only
	From    uint32 `json:"from"`
	To      uint32 `json:"to"`
}

// Node kind wire names.
const (
	NodeENode         = "enode"
	NodeGivenEquality = "given-eq"
	NodeTransEquality = "trans-eq"
	NodeInstantiation = "inst"
)

// Edge kind wire names.
const (
	EdgeYield                  = "yield"
	EdgeBlame                  = "blame"
	EdgeBlameEq                = "blame-eq"
	EdgeEqualityFact           = "eq-fact"
	EdgeEqualityCongruence     = "eq-congruence"
	EdgeTEqualitySimple        = "teq-simple"
	EdgeTEqualityTransitive    = "teq-transitive"
	EdgeTEqualityTransitiveBwd = "teq-transitive-bwd"
)

// Trace is a decoded facts document.
type Trace struct {
	Quantifiers    []Quantifier    `json:"quantifiers"`
	Terms          []Term          `json:"terms"`
	Equalities     []Equality      `json:"equalities"`
	Instantiations []Instantiation `json:"instantiations"`
	Nodes          []NodeFact      `json:"nodes"`
	Edges          []EdgeFact      `json:"edges"`

	hash string
}

// Hash returns the hex SHA-256 of the document bytes the trace was decoded
// from, or "" for traces built in memory.
func (t *Trace) Hash() string { return t.hash }

// Instantiation returns the instantiation at i, or false if the trace does
// not contain it.
func (t *Trace) Instantiation(i InstIdx) (*Instantiation, bool) {
	if int(i) >= len(t.Instantiations) {
		return nil, false
	}
	return &t.Instantiations[i], true
}

// Quantifier returns the quantifier at q, or false if the trace does not
// contain it.
func (t *Trace) Quantifier(q QuantIdx) (*Quantifier, bool) {
	if int(q) >= len(t.Quantifiers) {
		return nil, false
	}
	return &t.Quantifiers[q], true
}

// Term returns the term at i, or false if absent.
func (t *Trace) Term(i TermIdx) (*Term, bool) {
	if int(i) >= len(t.Terms) {
		return nil, false
	}
	return &t.Terms[i], true
}

// Equality returns the equality at i, or false if absent.
func (t *Trace) Equality(i EqIdx) (*Equality, bool) {
	if int(i) >= len(t.Equalities) {
		return nil, false
	}
	return &t.Equalities[i], true
}

// InstQuantifier resolves the quantifier instantiated by i. Either lookup
// may miss on partial traces, in which case it returns false.
func (t *Trace) InstQuantifier(i InstIdx) (*Quantifier, bool) {
	inst, ok := t.Instantiation(i)
	if !ok {
		return nil, false
	}
	q, ok := inst.QuantIdx()
	if !ok {
		return nil, false
	}
	return t.Quantifier(q)
}
