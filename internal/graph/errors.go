package graph

import "errors"

var (
	// ErrUnknownSymbol is returned when a query names a symbol that is not
	// part of the graph snapshot.
	ErrUnknownSymbol = errors.New("symbol not in graph")

	// ErrInvalidDepth is returned for a negative traversal depth.
	ErrInvalidDepth = errors.New("depth must be non-negative")
)
