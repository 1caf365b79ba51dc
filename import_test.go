package ripple

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImport_DecodesAndCommits(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	doc := `{
  "symbols": [
    {"key": "w", "name": "Widget", "kind": "class", "file": "ui/widget.h", "tags": ["core"]},
    {"key": "p", "name": "paint", "qualified_name": "Widget::paint", "kind": "method", "parent": "w", "confidence": 0.9}
  ],
  "relationships": [
    {"from": "p", "to": "w", "type": "uses", "line": 3, "snippet": "this->bounds()"},
    {"from": "p", "to_name": "Canvas::fill", "type": "calls", "confidence": 0.8}
  ]
}`
	res, err := e.Import(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Symbols: 2, Relationships: 2, Unresolved: 1}, res)

	syms, err := e.Store().AllSymbols(e.ProjectID())
	require.NoError(t, err)
	require.Len(t, syms, 2)
	widget, paint := syms[0], syms[1]
	assert.Equal(t, 1.0, widget.Confidence, "missing confidence defaults to 1")
	assert.Equal(t, []string{"core"}, widget.Tags)
	require.NotNil(t, paint.ParentSymbolID)
	assert.Equal(t, widget.ID, *paint.ParentSymbolID)

	rels, err := e.Store().Relationships(e.ProjectID(), 0)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	require.NotNil(t, rels[0].ToSymbolID)
	assert.Equal(t, widget.ID, *rels[0].ToSymbolID)
	assert.Equal(t, "this->bounds()", rels[0].ContextSnippet)
	assert.Nil(t, rels[1].ToSymbolID)
	assert.Equal(t, "Canvas::fill", rels[1].ToName)
}

func TestImport_InvalidDocuments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  ImportDocument
	}{
		{"symbol without kind", ImportDocument{Symbols: []ImportSymbol{{Key: "a", Name: "A"}}}},
		{"unknown parent", ImportDocument{Symbols: []ImportSymbol{{Key: "a", Name: "A", Kind: "method", Parent: "nope"}}}},
		{"duplicate key", ImportDocument{Symbols: []ImportSymbol{
			{Key: "a", Name: "A", Kind: "class"}, {Key: "a", Name: "B", Kind: "class"},
		}}},
		{"unknown from", ImportDocument{
			Symbols:       []ImportSymbol{{Key: "a", Name: "A", Kind: "class"}},
			Relationships: []ImportRelationship{{From: "z", ToName: "A", Type: "uses"}},
		}},
		{"unknown to", ImportDocument{
			Symbols:       []ImportSymbol{{Key: "a", Name: "A", Kind: "class"}},
			Relationships: []ImportRelationship{{From: "a", To: "z", Type: "uses"}},
		}},
		{"no target", ImportDocument{
			Symbols:       []ImportSymbol{{Key: "a", Name: "A", Kind: "class"}},
			Relationships: []ImportRelationship{{From: "a", Type: "uses"}},
		}},
		{"symbol confidence above one", ImportDocument{
			Symbols: []ImportSymbol{{Key: "a", Name: "A", Kind: "class", Confidence: conf(1.5)}},
		}},
		{"relationship confidence below zero", ImportDocument{
			Symbols:       []ImportSymbol{{Key: "a", Name: "A", Kind: "class"}},
			Relationships: []ImportRelationship{{From: "a", ToName: "A", Type: "uses", Confidence: conf(-0.1)}},
		}},
		{"relationship confidence above one", ImportDocument{
			Symbols:       []ImportSymbol{{Key: "a", Name: "A", Kind: "class"}},
			Relationships: []ImportRelationship{{From: "a", ToName: "A", Type: "uses", Confidence: conf(7)}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			_, err := e.ImportDocument(context.Background(), &tt.doc)
			assert.ErrorIs(t, err, ErrInvalidImport)

			syms, err := e.Store().AllSymbols(e.ProjectID())
			require.NoError(t, err)
			assert.Empty(t, syms, "nothing is written for a rejected document")
		})
	}
}

func TestImport_MalformedJSON(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.Import(context.Background(), strings.NewReader(`{"symbols": [`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode import")
}

func TestImport_InvalidatesSnapshot(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ctx := context.Background()

	before, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, before.Symbols)

	_, err = e.ImportDocument(ctx, entryMidLeafDoc())
	require.NoError(t, err)

	after, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Symbols)
}

func TestImport_ConfidenceBoundsAreInclusive(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	res, err := e.ImportDocument(context.Background(), &ImportDocument{
		Symbols: []ImportSymbol{
			{Key: "a", Name: "A", Kind: "class", Confidence: conf(0)},
			{Key: "b", Name: "B", Kind: "class", Confidence: conf(1)},
		},
		Relationships: []ImportRelationship{
			{From: "a", To: "b", Type: "uses", Confidence: conf(0)},
			{From: "b", To: "a", Type: "uses", Confidence: conf(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Symbols)
	assert.Equal(t, 2, res.Relationships)
}
