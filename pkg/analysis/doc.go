// Package analysis hosts an instantiation-graph analysis session.
//
// [Build] turns a decoded trace into an [instgraph.Graph], computing depth
// metrics when the trace lacks them. A [Session] owns that graph and applies
// views: a filter chain followed by a disabler pass, always evaluated from a
// fully visible graph. It also answers reachability queries through
// [subgraph.Subgraph], and renders nodes and edges for display with
// [DescribeNode] and [DescribeEdge]. [ComputeStats] produces the summary
// printed by the stats command.
//
// Session methods open OpenTelemetry spans and record metrics through the
// global providers; with no SDK installed they are no-ops.
package analysis
