package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(c *CallChain) []int64 {
	ids := make([]int64, len(c.Steps))
	for i, s := range c.Steps {
		ids[i] = s.SymbolID
	}
	return ids
}

func TestTrace_EntryMidLeaf(t *testing.T) {
	t.Parallel()
	// Entry(1) -> Mid(2) -> Leaf(3)
	g := callGraph(t, 3, [2]int64{1, 2}, [2]int64{2, 3})

	assert.Equal(t, []int64{1}, EntryPoints(g, nil))

	chain, err := Trace(g, 1, DefaultMaxCallDepth)
	require.NoError(t, err)
	require.Len(t, chain.Steps, 3)
	assert.Equal(t, Step{SymbolID: 1, Depth: 0}, chain.Steps[0])
	assert.Equal(t, Step{SymbolID: 2, CallerID: ptr(int64(1)), Depth: 1}, chain.Steps[1])
	assert.Equal(t, Step{SymbolID: 3, CallerID: ptr(int64(2)), Depth: 2}, chain.Steps[2])
}

func TestTrace_DepthFirstAscendingOrder(t *testing.T) {
	t.Parallel()
	// 1 -> {3, 2}; 2 -> 4; 3 -> 5
	g := callGraph(t, 5, [2]int64{1, 3}, [2]int64{1, 2}, [2]int64{2, 4}, [2]int64{3, 5})

	chain, err := Trace(g, 1, DefaultMaxCallDepth)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 4, 3, 5}, stepIDs(chain))
}

func TestTrace_NeverRevisitsWithinChain(t *testing.T) {
	t.Parallel()
	// Diamond plus a back edge: 1 -> {2, 3}, 2 -> 4, 3 -> 4, 4 -> 1
	g := callGraph(t, 4, [2]int64{1, 2}, [2]int64{1, 3}, [2]int64{2, 4}, [2]int64{3, 4}, [2]int64{4, 1})

	chain, err := Trace(g, 1, DefaultMaxCallDepth)
	require.NoError(t, err)

	seen := map[int64]bool{}
	for _, s := range chain.Steps {
		assert.False(t, seen[s.SymbolID], "symbol %d visited twice", s.SymbolID)
		seen[s.SymbolID] = true
	}
	assert.Equal(t, []int64{1, 2, 4, 3}, stepIDs(chain))
}

func TestTrace_RespectsMaxDepth(t *testing.T) {
	t.Parallel()
	// Linear chain 1 -> 2 -> ... -> 15
	var edges [][2]int64
	for i := int64(1); i < 15; i++ {
		edges = append(edges, [2]int64{i, i + 1})
	}
	g := callGraph(t, 15, edges...)

	chain, err := Trace(g, 1, 10)
	require.NoError(t, err)
	require.Len(t, chain.Steps, 11)
	for _, s := range chain.Steps {
		assert.LessOrEqual(t, s.Depth, 10)
	}

	shallow, err := Trace(g, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, stepIDs(shallow))
}

func TestTrace_PerTraceVisitedSet(t *testing.T) {
	t.Parallel()
	// Two entry points share callee 3.
	g := callGraph(t, 3, [2]int64{1, 3}, [2]int64{2, 3})

	chains, err := TraceAll(g, nil, DefaultMaxCallDepth)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, []int64{1, 3}, stepIDs(chains[0]))
	assert.Equal(t, []int64{2, 3}, stepIDs(chains[1]))
}

func TestTrace_Errors(t *testing.T) {
	t.Parallel()
	g := callGraph(t, 1)

	_, err := Trace(g, 99, 10)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = Trace(g, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidDepth)
}

func TestTraceAll_DiscardsSingleStepChains(t *testing.T) {
	t.Parallel()
	// 1 calls 2; 3 calls nothing.
	g := callGraph(t, 3, [2]int64{1, 2})

	chains, err := TraceAll(g, nil, DefaultMaxCallDepth)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, int64(1), chains[0].EntryPoint)
}

func TestEntryPoints_KindsAndNonCallEdges(t *testing.T) {
	t.Parallel()
	nodes := []*Node{
		fn(1, "main"),
		{ID: 2, Name: "Widget", Kind: "class"},
		{ID: 3, Name: "render", Kind: "method"},
		fn(4, "helper"),
	}
	// main uses render (not a call) and calls helper.
	g := Build(nodes, []Relationship{rel(1, 1, 3, RelUses), rel(2, 1, 4, RelCalls)}, 0.7)

	assert.Equal(t, []int64{1, 3}, EntryPoints(g, nil))
	assert.Equal(t, []int64{2}, EntryPoints(g, []string{"class"}))
}

func TestEntryPoints_EmptyGraph(t *testing.T) {
	t.Parallel()
	g := Build(nil, nil, 0.7)
	assert.NotNil(t, EntryPoints(g, nil))
	assert.Empty(t, EntryPoints(g, nil))
}
