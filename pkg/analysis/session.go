package analysis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/errors"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph/subgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/observability"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// Options configures a Session.
type Options struct {
	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// Session owns one trace and the graph built from it, and tracks the
// filter chain and disablers currently applied. A Session is not safe for
// concurrent use; hosts that share one must serialize access.
type Session struct {
	trace     *trace.Trace
	graph     *instgraph.Graph
	logger    *log.Logger
	chain     filter.Chain
	disablers []disabler.Disabler
}

// View is the result of applying a filter chain and a disabler set.
type View struct {
	Chain     filter.Chain
	Disablers []disabler.Disabler
	Outputs   []filter.Output
	Visible   int
}

// NewSession builds the graph for tr. The graph starts fully visible;
// call View to apply filters.
func NewSession(ctx context.Context, tr *trace.Trace, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	start := time.Now()
	g, err := Build(tr)
	if err != nil {
		observability.Engine().OnGraphBuilt(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	observability.Engine().OnGraphBuilt(ctx, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)
	logger.Debug("built instantiation graph", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "elapsed", time.Since(start))

	return &Session{trace: tr, graph: g, logger: logger}, nil
}

// Trace returns the facts the session was built from.
func (s *Session) Trace() *trace.Trace { return s.trace }

// Graph returns the session graph. Callers must not change its visibility
// outside of View.
func (s *Session) Graph() *instgraph.Graph { return s.graph }

// Chain returns the filter chain of the last successful View.
func (s *Session) Chain() filter.Chain { return slices.Clone(s.chain) }

// Disablers returns the disablers of the last successful View.
func (s *Session) Disablers() []disabler.Disabler { return slices.Clone(s.disablers) }

// View resets every filter bit, applies chain from the fully visible
// graph, then recomputes the disabler bits from ds. The result depends only
// on the arguments, never on earlier views.
//
// If a filter fails the previous view is restored and an
// [errors.ErrCodeInvalidFilter] error is returned.
func (s *Session) View(ctx context.Context, chain filter.Chain, ds []disabler.Disabler) (*View, error) {
	ctx, span := startViewSpan(ctx, len(chain), len(ds))
	defer span.End()
	start := time.Now()

	outs, err := s.apply(chain, ds)
	if err != nil {
		if _, restoreErr := s.apply(s.chain, s.disablers); restoreErr != nil {
			s.logger.Warn("could not restore previous view", "error", restoreErr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordViewMetrics(ctx, time.Since(start), 0, false)
		observability.Engine().OnViewApplied(ctx, len(chain), 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeInvalidFilter, err, "apply %s", chain)
	}
	s.chain = slices.Clone(chain)
	s.disablers = slices.Clone(ds)

	visible := s.graph.VisibleCount()
	span.SetAttributes(attribute.Int("view.visible", visible))
	recordViewMetrics(ctx, time.Since(start), visible, true)
	observability.Engine().OnViewApplied(ctx, len(chain), visible, time.Since(start), nil)
	s.logger.Debug("applied view", "chain", chain.String(), "disablers", len(ds), "visible", visible, "elapsed", time.Since(start))

	return &View{Chain: s.Chain(), Disablers: s.Disablers(), Outputs: outs, Visible: visible}, nil
}

func (s *Session) apply(chain filter.Chain, ds []disabler.Disabler) ([]filter.Output, error) {
	disabler.Apply(s.graph, ds...)
	s.graph.ResetVisibility()
	return chain.Apply(s.graph, s.trace)
}

// Reach describes the component around a node and what it connects to.
type Reach struct {
	Root        instgraph.NodeIdx
	Component   int
	Ancestors   []instgraph.NodeIdx // nodes that reach Root, in rank order
	Descendants []instgraph.NodeIdx // nodes reachable from Root, in rank order
}

// Reach builds the reachability subgraph around root. It ignores
// visibility. A cyclic or source-less component yields an
// [errors.ErrCodeGraphShape] error.
func (s *Session) Reach(ctx context.Context, root instgraph.NodeIdx) (*Reach, error) {
	sub, err := s.subgraph(ctx, root)
	if err != nil {
		return nil, err
	}

	rank, _ := sub.Rank(root)
	r := &Reach{Root: root, Component: sub.Len()}
	for to := range sub.ReachableFrom(rank) {
		if to != rank {
			n, _ := sub.Node(to)
			r.Descendants = append(r.Descendants, n)
		}
	}
	for from := uint32(0); from < rank; from++ {
		if sub.InClosure(from, rank) {
			n, _ := sub.Node(from)
			r.Ancestors = append(r.Ancestors, n)
		}
	}
	return r, nil
}

// Reachable reports whether to can be reached from from along edges. Nodes
// in different components never reach each other.
func (s *Session) Reachable(ctx context.Context, from, to instgraph.NodeIdx) (bool, error) {
	if err := s.graph.Check(to); err != nil {
		return false, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s", to)
	}
	sub, err := s.subgraph(ctx, from)
	if err != nil {
		return false, err
	}
	rf, _ := sub.Rank(from)
	rt, ok := sub.Rank(to)
	return ok && sub.InClosure(rf, rt), nil
}

// ReachableFromAny returns every node reachable from at least one of
// roots. All roots must lie in one component.
func (s *Session) ReachableFromAny(ctx context.Context, roots []instgraph.NodeIdx) ([]instgraph.NodeIdx, error) {
	if len(roots) == 0 {
		return nil, nil
	}
	sub, err := s.subgraph(ctx, roots[0])
	if err != nil {
		return nil, err
	}
	ranks := make([]uint32, len(roots))
	for i, n := range roots {
		r, ok := sub.Rank(n)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node %s is not connected to %s", n, roots[0])
		}
		ranks[i] = r
	}
	set := sub.ReachableFromMany(ranks)
	out := make([]instgraph.NodeIdx, 0, set.GetCardinality())
	it := set.Iterator()
	for it.HasNext() {
		n, _ := sub.Node(it.Next())
		out = append(out, n)
	}
	return out, nil
}

func (s *Session) subgraph(ctx context.Context, root instgraph.NodeIdx) (*subgraph.Subgraph, error) {
	ctx, span := startReachSpan(ctx, root.Index())
	defer span.End()
	start := time.Now()

	if err := s.graph.Check(root); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s", root)
	}
	sub, err := subgraph.New(s.graph, root, nil)
	recordReachMetrics(ctx, time.Since(start), err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.Engine().OnSubgraphBuilt(ctx, 0, time.Since(start), err)
		return nil, errors.Wrap(errors.ErrCodeGraphShape, err, "subgraph around %s", root)
	}
	span.SetAttributes(attribute.Int("reach.component", sub.Len()))
	observability.Engine().OnSubgraphBuilt(ctx, sub.Len(), time.Since(start), nil)
	s.logger.Debug("built subgraph", "root", root.String(), "size", sub.Len(), "elapsed", time.Since(start))
	return sub, nil
}

// NodeByIndex resolves a raw node index, as typed by a user, to a handle.
func (s *Session) NodeByIndex(i int) (instgraph.NodeIdx, error) {
	n, err := s.graph.NodeAt(i)
	if err != nil {
		return instgraph.NodeIdx{}, errors.Wrap(errors.ErrCodeNotFound, err, "node %d", i)
	}
	return n, nil
}

func (v *View) String() string {
	return fmt.Sprintf("%d visible after [%s]", v.Visible, v.Chain)
}
