package graph

import (
	"fmt"
	"slices"
)

// DefaultMaxCallDepth bounds call chain traces.
const DefaultMaxCallDepth = 10

// DefaultEntryPointKinds are the symbol kinds that can start a call chain.
var DefaultEntryPointKinds = []string{"function", "method"}

// Step is one visited node of a CallChain. CallerID is nil for the entry.
type Step struct {
	SymbolID int64  `json:"symbol_id"`
	CallerID *int64 `json:"caller_id"`
	Depth    int    `json:"depth"`
}

// CallChain is the depth-first call path enumeration from one entry point.
// No symbol appears twice within a chain.
type CallChain struct {
	EntryPoint int64  `json:"entry_point"`
	MaxDepth   int    `json:"max_depth"`
	Steps      []Step `json:"steps"`
}

// EntryPoints returns nodes whose kind is in kinds and that no calls edge
// reaches, in ascending id order. An empty kinds uses DefaultEntryPointKinds.
func EntryPoints(g *Graph, kinds []string) []int64 {
	if len(kinds) == 0 {
		kinds = DefaultEntryPointKinds
	}
	out := []int64{}
	for _, id := range g.ids {
		if !slices.Contains(kinds, g.nodes[id].Kind) {
			continue
		}
		if g.HasCaller(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

type traceFrame struct {
	id      int64
	depth   int
	next    int
	callees []int64
}

// Trace walks calls edges depth-first from entry, visiting callees in
// ascending id order and never re-entering a node already seen in this
// trace. Nodes are recorded up to depth maxDepth.
func Trace(g *Graph, entry int64, maxDepth int) (*CallChain, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("trace %d: %w", entry, ErrInvalidDepth)
	}
	if _, ok := g.nodes[entry]; !ok {
		return nil, fmt.Errorf("trace %d: %w", entry, ErrUnknownSymbol)
	}

	chain := &CallChain{
		EntryPoint: entry,
		MaxDepth:   maxDepth,
		Steps:      []Step{{SymbolID: entry, Depth: 0}},
	}
	visited := map[int64]bool{entry: true}
	stack := []traceFrame{{id: entry, callees: g.callSorted[entry]}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.depth >= maxDepth || top.next >= len(top.callees) {
			stack = stack[:len(stack)-1]
			continue
		}
		callee := top.callees[top.next]
		top.next++
		if visited[callee] {
			continue
		}
		visited[callee] = true
		caller := top.id
		depth := top.depth + 1
		chain.Steps = append(chain.Steps, Step{SymbolID: callee, CallerID: &caller, Depth: depth})
		stack = append(stack, traceFrame{id: callee, depth: depth, callees: g.callSorted[callee]})
	}
	return chain, nil
}

// TraceAll traces every entry point of the given kinds and keeps chains that
// reach at least one callee.
func TraceAll(g *Graph, kinds []string, maxDepth int) ([]*CallChain, error) {
	chains := []*CallChain{}
	for _, entry := range EntryPoints(g, kinds) {
		chain, err := Trace(g, entry, maxDepth)
		if err != nil {
			return nil, err
		}
		if len(chain.Steps) < 2 {
			continue
		}
		chains = append(chains, chain)
	}
	return chains, nil
}
