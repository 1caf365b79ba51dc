package ripple

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
)

// benchDoc builds a layered call graph: width symbols per layer, each
// calling two symbols of the next layer by name.
func benchDoc(layers, width int) *ImportDocument {
	doc := &ImportDocument{}
	name := func(l, i int) string { return fmt.Sprintf("L%d_%d", l, i) }
	for l := range layers {
		for i := range width {
			doc.Symbols = append(doc.Symbols, ImportSymbol{
				Key:  name(l, i),
				Name: name(l, i),
				Kind: "function",
				File: fmt.Sprintf("src/layer%d.cpp", l),
			})
		}
	}
	for l := range layers - 1 {
		for i := range width {
			for _, j := range []int{i, (i + 1) % width} {
				doc.Relationships = append(doc.Relationships, ImportRelationship{
					From:   name(l, i),
					ToName: name(l+1, j),
					Type:   "calls",
				})
			}
		}
	}
	return doc
}

func newBenchEngine(b *testing.B, layers, width int) *Engine {
	b.Helper()
	e, err := New(filepath.Join(b.TempDir(), "bench.db"), WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { e.Close() })
	ctx := context.Background()
	if _, err := e.ImportDocument(ctx, benchDoc(layers, width)); err != nil {
		b.Fatal(err)
	}
	if _, err := e.ResolveReferences(ctx); err != nil {
		b.Fatal(err)
	}
	return e
}

func BenchmarkRebuild(b *testing.B) {
	e := newBenchEngine(b, 10, 100)
	ctx := context.Background()
	b.ResetTimer()
	for b.Loop() {
		if err := e.Rebuild(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTraceAll(b *testing.B) {
	e := newBenchEngine(b, 10, 100)
	ctx := context.Background()
	b.ResetTimer()
	for b.Loop() {
		if _, err := e.TraceAll(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPredictImpact_Uncached rebuilds before each prediction so every
// iteration runs the full propagation.
func BenchmarkPredictImpact_Uncached(b *testing.B) {
	e := newBenchEngine(b, 10, 100)
	ctx := context.Background()
	for b.Loop() {
		b.StopTimer()
		if err := e.Rebuild(ctx); err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if _, err := e.PredictImpact(ctx, "L9_0", ChangeRemoval, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPredictImpact_Cached(b *testing.B) {
	e := newBenchEngine(b, 10, 100)
	ctx := context.Background()
	if _, err := e.PredictImpact(ctx, "L9_0", ChangeRemoval, nil); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for b.Loop() {
		if _, err := e.PredictImpact(ctx, "L9_0", ChangeRemoval, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAnalyze(b *testing.B) {
	e := newBenchEngine(b, 10, 100)
	ctx := context.Background()
	for b.Loop() {
		b.StopTimer()
		if err := e.Rebuild(ctx); err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if _, err := e.Analyze(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
