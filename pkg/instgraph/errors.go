package instgraph

import "errors"

var (
	// ErrForeignHandle is returned when a NodeIdx or EdgeIdx minted by one
	// Graph is passed to another. Handles are never reinterpreted across
	// graphs.
	ErrForeignHandle = errors.New("handle belongs to a different graph")

	// ErrOutOfRange is returned by [Graph.NodeAt] and [Graph.EdgeAt] when the
	// raw index does not name an existing node or edge.
	ErrOutOfRange = errors.New("index out of range")

	// ErrNegativeCost is returned by [Graph.AddNode] for costs below zero,
	// NaN or infinite.
	ErrNegativeCost = errors.New("node cost must be a non-negative finite number")

	// ErrInvalidDepth is returned when a depth pair has Min > Max.
	ErrInvalidDepth = errors.New("depth min exceeds max")

	// ErrUnknownKind is returned when a node or edge kind name is not one of
	// the fixed variants.
	ErrUnknownKind = errors.New("unknown kind")
)
