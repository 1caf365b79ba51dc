package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolIndex_QualifiedBeatsSimple(t *testing.T) {
	t.Parallel()
	// Symbol 1's simple name equals symbol 2's qualified name.
	ix := NewSymbolIndex([]*Node{
		{ID: 1, Name: "Engine", QualifiedName: "core::Engine"},
		{ID: 2, Name: "Engine", QualifiedName: "Engine"},
	})

	id, ok := ix.Lookup("Engine")
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
}

func TestSymbolIndex_SimpleNameFirstWins(t *testing.T) {
	t.Parallel()
	ix := NewSymbolIndex([]*Node{
		{ID: 7, Name: "update", QualifiedName: "ui::update"},
		{ID: 3, Name: "update", QualifiedName: "physics::update"},
	})

	id, ok := ix.Lookup("update")
	require.True(t, ok)
	assert.Equal(t, int64(3), id, "lowest id keeps the simple name")

	_, ok = ix.Lookup("nothing")
	assert.False(t, ok)
}

func TestResolve_TieBreaks(t *testing.T) {
	t.Parallel()
	nodes := []*Node{
		{ID: 1, Name: "update", QualifiedName: "physics::update", FilePath: "physics.cpp", Namespace: "physics"},
		{ID: 2, Name: "update", QualifiedName: "ui::update", FilePath: "ui.cpp", Namespace: "ui"},
		{ID: 3, Name: "update", QualifiedName: "ui::widgets::update", FilePath: "widgets.cpp", Namespace: "ui::widgets"},
		{ID: 10, Name: "draw", FilePath: "ui.cpp", Namespace: "ui"},
		{ID: 11, Name: "step", FilePath: "other.cpp", Namespace: "ui::widgets"},
		{ID: 12, Name: "main", FilePath: "main.cpp"},
	}
	ix := NewSymbolIndex(nodes)

	tests := []struct {
		name string
		from int64
		ref  string
		want int64
	}{
		{"exact qualified", 12, "ui::widgets::update", 3},
		{"same file", 10, "update", 2},
		{"same namespace", 11, "update", 3},
		{"lowest id fallback", 12, "update", 1},
		{"partial qualifier", 12, "widgets::update", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, _ := ix.Node(tt.from)
			got, ok := ix.Resolve(tt.ref, from)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_LeavesUnknownNamesUnresolved(t *testing.T) {
	t.Parallel()
	ix := NewSymbolIndex([]*Node{fn(1, "A"), fn(2, "B")})
	r := NewResolver(ix, nil)

	bindings := r.Resolve([]Relationship{
		{ID: 1, From: 1, ToName: "B", Type: RelCalls},
		{ID: 2, From: 1, ToName: "DoesNotExist", Type: RelCalls},
		{ID: 3, From: 2, To: ptr(int64(1)), ToName: "A", Type: RelCalls},
	})

	require.Len(t, bindings, 1)
	assert.Equal(t, Binding{RelationshipID: 1, SymbolID: 2}, bindings[0])
}

func TestResolve_ForeignQualifierStaysUnresolved(t *testing.T) {
	t.Parallel()
	ix := NewSymbolIndex([]*Node{
		{ID: 1, Name: "Render", QualifiedName: "game::Renderer::Render", FilePath: "renderer.cpp"},
		{ID: 2, Name: "Main", QualifiedName: "game::Main", FilePath: "main.cpp"},
		{ID: 3, Name: "push_back", QualifiedName: "game::Buffer::push_back", FilePath: "buffer.cpp"},
	})
	main, _ := ix.Node(2)

	for _, ref := range []string{"thirdparty::gfx::Render", "std::vector::push_back", "ender::Render", "Render.Renderer"} {
		_, ok := ix.Resolve(ref, main)
		assert.False(t, ok, ref)
	}
	id, ok := ix.Resolve("Renderer::Render", main)
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	bindings := NewResolver(ix, nil).Resolve([]Relationship{
		{ID: 10, From: 2, ToName: "thirdparty::gfx::Render", Type: RelCalls},
	})
	assert.Empty(t, bindings)
}

func TestResolver_NeverInventsIDs(t *testing.T) {
	t.Parallel()
	nodes := []*Node{fn(4, "alpha"), fn(9, "beta"), {ID: 12, Name: "alpha", QualifiedName: "x::alpha"}}
	ix := NewSymbolIndex(nodes)
	valid := map[int64]bool{4: true, 9: true, 12: true}

	var pending []Relationship
	for i, name := range []string{"alpha", "beta", "x::alpha", "y::alpha", "gamma", ""} {
		pending = append(pending, Relationship{ID: int64(i + 1), From: 4, ToName: name})
	}
	for _, b := range NewResolver(ix, nil).Resolve(pending) {
		assert.True(t, valid[b.SymbolID], "binding to unknown id %d", b.SymbolID)
	}
}

func TestSymbolIndex_Names(t *testing.T) {
	t.Parallel()
	ix := NewSymbolIndex([]*Node{{ID: 1, Name: "run", QualifiedName: "app::run"}, {ID: 2, Name: "stop"}})
	assert.Equal(t, []string{"app::run", "run", "stop"}, ix.Names())
}
