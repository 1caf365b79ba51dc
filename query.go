package ripple

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/warxhead1/ripple/internal/graph"
)

// QueryBuilder answers lookups and traversals against one graph snapshot.
// It stays valid, and consistent, after the engine rebuilds, so ids it
// returns can be named through the same builder.
type QueryBuilder struct {
	snap *snapshot
	cfg  Config
}

// SymbolResult is a symbol as reported to callers.
type SymbolResult struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualified_name,omitempty"`
	Kind          string   `json:"kind"`
	File          string   `json:"file,omitempty"`
	Line          int      `json:"line,omitempty"`
	Column        int      `json:"column,omitempty"`
	Namespace     string   `json:"namespace,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// Query returns a QueryBuilder over the live snapshot.
func (e *Engine) Query(ctx context.Context) (*QueryBuilder, error) {
	snap, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	return &QueryBuilder{snap: snap, cfg: e.cfg}, nil
}

// Lookup resolves a numeric id, qualified name or simple name to a symbol
// id in the live snapshot.
func (e *Engine) Lookup(ctx context.Context, nameOrID string) (int64, error) {
	q, err := e.Query(ctx)
	if err != nil {
		return 0, err
	}
	return q.Lookup(nameOrID)
}

// Lookup resolves a numeric id, qualified name or simple name.
func (q *QueryBuilder) Lookup(nameOrID string) (int64, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		if _, ok := q.snap.graph.Node(id); ok {
			return id, nil
		}
	}
	if id, ok := q.snap.index.Lookup(nameOrID); ok {
		return id, nil
	}
	return 0, fmt.Errorf("%q: %w", nameOrID, graph.ErrUnknownSymbol)
}

// Symbol returns the symbol with the given id.
func (q *QueryBuilder) Symbol(id int64) (SymbolResult, bool) {
	n, ok := q.snap.graph.Node(id)
	if !ok {
		return SymbolResult{}, false
	}
	return toSymbolResult(n), true
}

// Symbols returns the known symbols among ids, in the given order.
func (q *QueryBuilder) Symbols(ids []int64) []SymbolResult {
	out := make([]SymbolResult, 0, len(ids))
	for _, id := range ids {
		if s, ok := q.Symbol(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// EntryPoints returns the symbols of the given kinds that nothing calls. An
// empty kinds uses Config.EntryPointKinds.
func (q *QueryBuilder) EntryPoints(kinds ...string) []int64 {
	if len(kinds) == 0 {
		kinds = q.cfg.EntryPointKinds
	}
	return graph.EntryPoints(q.snap.graph, kinds)
}

// TraceCallChain walks calls edges depth-first from entry. A maxDepth of 0
// uses Config.MaxCallDepth.
func (q *QueryBuilder) TraceCallChain(entry int64, maxDepth int) (*CallChain, error) {
	if maxDepth == 0 {
		maxDepth = q.cfg.MaxCallDepth
	}
	chain, err := graph.Trace(q.snap.graph, entry, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("ripple: %w", err)
	}
	return chain, nil
}

// TraceAll traces every configured entry point and keeps chains with at
// least one callee.
func (q *QueryBuilder) TraceAll() ([]*CallChain, error) {
	chains, err := graph.TraceAll(q.snap.graph, q.cfg.EntryPointKinds, q.cfg.MaxCallDepth)
	if err != nil {
		return nil, fmt.Errorf("ripple: %w", err)
	}
	return chains, nil
}

// FindCycles returns every circular dependency group in traversal order.
func (q *QueryBuilder) FindCycles() [][]int64 {
	return graph.FindCycles(q.snap.graph)
}

// Name returns the display name of id, or "#id" when it is not in the
// snapshot.
func (q *QueryBuilder) Name(id int64) string {
	return nodeName(q.snap.graph, id)
}

// Dependencies returns what id depends on, by any relationship type.
func (q *QueryBuilder) Dependencies(id int64) []SymbolResult {
	return q.Symbols(q.snap.graph.Dependencies(id))
}

// Dependents returns what depends on id, by any relationship type.
func (q *QueryBuilder) Dependents(id int64) []SymbolResult {
	return q.Symbols(q.snap.graph.Dependents(id))
}

// Callees returns the symbols id reaches through calls edges.
func (q *QueryBuilder) Callees(id int64) []SymbolResult {
	return q.Symbols(q.snap.graph.Callees(id))
}

// EdgeTypes returns the relationship types from one symbol to another, or
// an empty string when there is no admitted edge.
func (q *QueryBuilder) EdgeTypes(from, to int64) string {
	t := q.snap.graph.EdgeTypes(from, to)
	if t == 0 {
		return ""
	}
	return t.String()
}

// Search returns symbols whose qualified or simple name matches the glob
// pattern, in ascending id order.
func (q *QueryBuilder) Search(pattern string) ([]SymbolResult, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("search: bad pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	out := []SymbolResult{}
	for _, n := range q.snap.graph.Nodes() {
		if doublestar.MatchUnvalidated(pattern, n.Name) ||
			(n.QualifiedName != "" && doublestar.MatchUnvalidated(pattern, n.QualifiedName)) {
			out = append(out, toSymbolResult(n))
		}
	}
	return out, nil
}

func toSymbolResult(n *graph.Node) SymbolResult {
	return SymbolResult{
		ID:            n.ID,
		Name:          n.Name,
		QualifiedName: n.QualifiedName,
		Kind:          n.Kind,
		File:          n.FilePath,
		Line:          n.Line,
		Column:        n.Column,
		Namespace:     n.Namespace,
		Tags:          n.Tags,
	}
}
