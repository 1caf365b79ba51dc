package ripple

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warxhead1/ripple/internal/graph"
	"github.com/warxhead1/ripple/internal/impact"
)

// Analysis is the combined result of Analyze. Every part was computed
// against the same snapshot.
type Analysis struct {
	Fingerprint string        `json:"fingerprint"`
	EntryPoints []int64       `json:"entry_points"`
	Chains      []*CallChain  `json:"call_chains"`
	Cycles      [][]int64     `json:"cycles"`
	Hotspots    []*Prediction `json:"hotspots"`
	Duration    time.Duration `json:"duration_ns"`

	query *QueryBuilder
}

// Query returns a QueryBuilder over the snapshot the analysis ran against,
// for naming the ids it reports.
func (a *Analysis) Query() *QueryBuilder {
	return a.query
}

// Analyze runs tracing, cycle detection and signature-change predictions for
// the most depended-on symbols concurrently against one snapshot. At most
// Config.Workers tasks run at a time; the first failure cancels the rest.
//
//	Task 1:     trace every entry point.
//	Task 2:     find cycles.
//	Tasks 3..N: one prediction per hotspot.
func (e *Engine) Analyze(ctx context.Context) (*Analysis, error) {
	start := time.Now()
	snap, err := e.current(ctx)
	if err != nil {
		return nil, err
	}

	hotspots := hotspotIDs(snap.graph, e.cfg.Hotspots)
	out := &Analysis{
		Fingerprint: fmt.Sprintf("%016x", snap.graph.Fingerprint()),
		EntryPoints: graph.EntryPoints(snap.graph, e.cfg.EntryPointKinds),
		Hotspots:    make([]*Prediction, len(hotspots)),
		query:       &QueryBuilder{snap: snap, cfg: e.cfg},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	g.Go(func() error {
		chains, err := e.traceAll(snap)
		if err != nil {
			return err
		}
		out.Chains = chains
		return nil
	})
	g.Go(func() error {
		out.Cycles = graph.FindCycles(snap.graph)
		return nil
	})
	for i, id := range hotspots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pred, err := snap.predictor.Predict(gctx, id, impact.ChangeSignature)
			if err != nil {
				return fmt.Errorf("ripple: predict %d: %w", id, err)
			}
			out.Hotspots[i] = pred
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	out.Duration = time.Since(start)
	e.logger.Info("analysis complete",
		slog.String("project", e.project),
		slog.Int("chains", len(out.Chains)),
		slog.Int("cycles", len(out.Cycles)),
		slog.Int("hotspots", len(out.Hotspots)),
		slog.Duration("duration", out.Duration))
	return out, nil
}

// hotspotIDs returns up to n symbols with at least one dependent, most
// dependents first, ties by ascending id.
func hotspotIDs(g *graph.Graph, n int) []int64 {
	var ids []int64
	for _, id := range g.IDs() {
		if g.DependentCount(id) > 0 {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return g.DependentCount(ids[i]) > g.DependentCount(ids[j])
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
