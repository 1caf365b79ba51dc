package ripple

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warxhead1/ripple/internal/graph"
)

func TestAnalyze_CombinesAllAnalyses(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithConfig(Config{Workers: 2}))
	ids := loadEntryMidLeaf(t, e)

	a, err := e.Analyze(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int64{ids["Entry"]}, a.EntryPoints)
	require.Len(t, a.Chains, 1)
	assert.Len(t, a.Chains[0].Steps, 3)
	assert.Empty(t, a.Cycles)
	assert.NotEmpty(t, a.Fingerprint)

	// Mid and Leaf each have one dependent; ties go to the lower id.
	require.Len(t, a.Hotspots, 2)
	assert.Equal(t, ids["Mid"], a.Hotspots[0].SymbolID)
	assert.Equal(t, ids["Leaf"], a.Hotspots[1].SymbolID)
	for _, p := range a.Hotspots {
		assert.Equal(t, ChangeSignature, p.ChangeKind)
	}
}

func TestAnalyze_SharesPredictionCache(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	loadEntryMidLeaf(t, e)
	ctx := context.Background()

	a, err := e.Analyze(ctx)
	require.NoError(t, err)
	pred, err := e.PredictImpact(ctx, "Leaf", ChangeSignature, nil)
	require.NoError(t, err)

	var fromAnalysis *Prediction
	for _, p := range a.Hotspots {
		if p.SymbolID == pred.SymbolID {
			fromAnalysis = p
		}
	}
	assert.Same(t, fromAnalysis, pred)
}

func TestAnalyze_HotspotLimit(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, WithConfig(Config{Hotspots: 1}))
	loadEntryMidLeaf(t, e)

	a, err := e.Analyze(context.Background())
	require.NoError(t, err)
	assert.Len(t, a.Hotspots, 1)
}

func TestAnalyze_CanceledContext(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	loadEntryMidLeaf(t, e)
	require.NoError(t, e.Rebuild(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Analyze(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_EmptyProject(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)

	a, err := e.Analyze(context.Background())
	require.NoError(t, err)
	assert.Empty(t, a.EntryPoints)
	assert.Empty(t, a.Chains)
	assert.Empty(t, a.Cycles)
	assert.Empty(t, a.Hotspots)
}

func TestAnalyze_QueryNamesTheAnalyzedSnapshot(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	ids := loadEntryMidLeaf(t, e)
	ctx := context.Background()

	a, err := e.Analyze(ctx)
	require.NoError(t, err)

	_, err = e.ImportDocument(ctx, &ImportDocument{Symbols: []ImportSymbol{{Name: "Late", Kind: "function"}}})
	require.NoError(t, err)
	require.NoError(t, e.Rebuild(ctx))

	q := a.Query()
	require.NotNil(t, q)
	assert.Equal(t, "Entry", q.Name(a.EntryPoints[0]))
	assert.Equal(t, ids["Entry"], a.EntryPoints[0])
	_, err = q.Lookup("Late")
	assert.ErrorIs(t, err, graph.ErrUnknownSymbol)
}
