package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCycles_ThreeCycle(t *testing.T) {
	t.Parallel()
	// A(1) -> B(2) -> C(3) -> A(1)
	g := callGraph(t, 3, [2]int64{1, 2}, [2]int64{2, 3}, [2]int64{3, 1})

	cycles := FindCycles(g)
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []int64{1, 2, 3}, cycles[0])
	assert.Equal(t, []int64{1, 2, 3}, cycles[0], "members in traversal order")
}

func TestFindCycles_DAGReturnsEmpty(t *testing.T) {
	t.Parallel()
	g := callGraph(t, 4, [2]int64{1, 2}, [2]int64{1, 3}, [2]int64{2, 4}, [2]int64{3, 4})

	cycles := FindCycles(g)
	assert.NotNil(t, cycles)
	assert.Empty(t, cycles)
}

func TestFindCycles_SelfLoop(t *testing.T) {
	t.Parallel()
	g := callGraph(t, 2, [2]int64{1, 1}, [2]int64{1, 2})

	cycles := FindCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, []int64{1}, cycles[0])
}

func TestFindCycles_OverlappingCyclesShareMembers(t *testing.T) {
	t.Parallel()
	// 1 -> 2 -> 1 and 2 -> 3 -> 2
	g := callGraph(t, 3, [2]int64{1, 2}, [2]int64{2, 1}, [2]int64{2, 3}, [2]int64{3, 2})

	cycles := FindCycles(g)
	require.Len(t, cycles, 2)
	assert.Equal(t, []int64{1, 2}, cycles[0])
	assert.Equal(t, []int64{2, 3}, cycles[1])
}

func TestFindCycles_UsesAllDependencyTypes(t *testing.T) {
	t.Parallel()
	nodes := []*Node{fn(1, "A"), fn(2, "B")}
	g := Build(nodes, []Relationship{rel(1, 1, 2, RelInherits), rel(2, 2, 1, RelUses)}, 0.7)

	cycles := FindCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, []int64{1, 2}, cycles[0])
}

func TestFindCycles_DeepChainDoesNotRecurse(t *testing.T) {
	t.Parallel()
	const n = 50000
	var edges [][2]int64
	for i := int64(1); i < n; i++ {
		edges = append(edges, [2]int64{i, i + 1})
	}
	edges = append(edges, [2]int64{n, 1})
	g := callGraph(t, n, edges...)

	cycles := FindCycles(g)
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], n)
}
