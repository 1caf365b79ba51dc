package graph

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMinConfidence is the admission threshold for relationships.
const DefaultMinConfidence = 0.7

// BuildStats counts what happened to each input relationship.
type BuildStats struct {
	Considered     int `json:"considered"`
	Admitted       int `json:"admitted"`
	BelowThreshold int `json:"below_threshold"`
	Unresolved     int `json:"unresolved"`
	Dangling       int `json:"dangling"`
}

// Builder turns nodes and relationships into a Graph.
type Builder struct {
	// MinConfidence admits relationships with confidence >= MinConfidence.
	MinConfidence float64
	Logger        *slog.Logger
}

// Build filters out relationships below the threshold, still unresolved, or
// naming a node absent from nodes, and indexes the rest in both directions.
// Inputs are not modified.
func (b Builder) Build(ctx context.Context, nodes []*Node, rels []Relationship) (*Graph, BuildStats) {
	start := time.Now()
	ctx, span := startBuildSpan(ctx, len(nodes), len(rels))
	defer span.End()

	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	g := &Graph{
		nodes:   make(map[int64]*Node, len(nodes)),
		forward: make(map[int64]map[int64]RelationType),
		reverse: make(map[int64]map[int64]RelationType),
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}

	var stats BuildStats
	for _, rel := range rels {
		stats.Considered++
		switch {
		case rel.To == nil:
			stats.Unresolved++
			continue
		case rel.Confidence < b.MinConfidence:
			stats.BelowThreshold++
			continue
		}
		to := *rel.To
		_, fromOK := g.nodes[rel.From]
		_, toOK := g.nodes[to]
		if !fromOK || !toOK {
			stats.Dangling++
			logger.Debug("dropping edge to unknown symbol",
				slog.Int64("relationship_id", rel.ID),
				slog.Int64("from", rel.From),
				slog.Int64("to", to))
			continue
		}
		stats.Admitted++
		if g.forward[rel.From] == nil {
			g.forward[rel.From] = make(map[int64]RelationType)
		}
		if _, seen := g.forward[rel.From][to]; !seen {
			g.edgeCount++
		}
		g.forward[rel.From][to] |= rel.Type
		if g.reverse[to] == nil {
			g.reverse[to] = make(map[int64]RelationType)
		}
		g.reverse[to][rel.From] |= rel.Type
	}

	g.freeze()
	recordBuildMetrics(ctx, span, time.Since(start), stats, g.edgeCount)
	return g, stats
}

// Build is Builder{MinConfidence: minConfidence}.Build without logging.
func Build(nodes []*Node, rels []Relationship, minConfidence float64) *Graph {
	g, _ := Builder{MinConfidence: minConfidence}.Build(context.Background(), nodes, rels)
	return g
}
