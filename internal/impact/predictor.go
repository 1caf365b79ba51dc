// Package impact predicts how a change to one symbol ripples through its
// transitive dependents.
//
// Propagation is breadth-first over reverse dependency edges with a single
// visited set per run: every dependent is scored once, at the depth of its
// shortest discovery path. Each affected node gets a severity in [0, 10],
// required actions and a fix estimate; the run as a whole gets a
// RiskAssessment.
package impact

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/warxhead1/ripple/internal/graph"
	"github.com/warxhead1/ripple/internal/rules"
)

// unknownConfidence is the confidence of a prediction for a symbol that is
// not in the index.
const unknownConfidence = 0.1

// Predictor runs impact propagation against one graph snapshot.
// It is safe for concurrent use.
type Predictor struct {
	graph    *graph.Graph
	index    *graph.SymbolIndex
	settings Settings
	rules    *rules.Runtime
	logger   *slog.Logger
	cache    *Cache
	scorer   *scorer
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithSettings overrides depth and scoring settings.
func WithSettings(s Settings) Option {
	return func(p *Predictor) {
		p.settings = s
	}
}

// WithRules evaluates the runtime's scripts for every affected node.
func WithRules(r *rules.Runtime) Option {
	return func(p *Predictor) {
		p.rules = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Predictor) {
		p.logger = l
	}
}

// WithCache supplies the cache to memoize into. By default each Predictor
// owns a fresh Cache.
func WithCache(c *Cache) Option {
	return func(p *Predictor) {
		p.cache = c
	}
}

// NewPredictor creates a Predictor over g. A nil index is built from g.
func NewPredictor(g *graph.Graph, index *graph.SymbolIndex, opts ...Option) *Predictor {
	p := &Predictor{graph: g, index: index}
	for _, opt := range opts {
		opt(p)
	}
	p.settings = p.settings.withDefaults()
	if p.index == nil {
		p.index = graph.NewSymbolIndex(g.Nodes())
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.cache == nil {
		p.cache = NewCache()
	}
	p.scorer = &scorer{g: g, settings: p.settings}
	return p
}

// Cache returns the predictor's cache.
func (p *Predictor) Cache() *Cache { return p.cache }

// PredictName resolves nameOrID (a numeric id, qualified name or simple name)
// and predicts the impact of changing it. Names that match nothing yield a
// low-confidence prediction with suggestions rather than an error.
func (p *Predictor) PredictName(ctx context.Context, nameOrID string, kind ChangeKind) (*Prediction, error) {
	nameOrID = strings.TrimSpace(nameOrID)
	if id, err := strconv.ParseInt(nameOrID, 10, 64); err == nil {
		if _, ok := p.graph.Node(id); ok {
			return p.Predict(ctx, id, kind)
		}
	}
	if id, ok := p.index.Lookup(nameOrID); ok {
		return p.Predict(ctx, id, kind)
	}
	if _, err := ParseChangeKind(string(kind)); err != nil {
		return nil, err
	}
	return p.Unknown(nameOrID, kind), nil
}

// Predict returns the memoized prediction for (symbolID, kind), computing it
// on first request.
func (p *Predictor) Predict(ctx context.Context, symbolID int64, kind ChangeKind) (*Prediction, error) {
	if _, err := ParseChangeKind(string(kind)); err != nil {
		return nil, err
	}
	node, ok := p.graph.Node(symbolID)
	if !ok {
		return p.Unknown(strconv.FormatInt(symbolID, 10), kind), nil
	}
	return p.cache.GetOrCompute(ctx, Key{SymbolID: symbolID, Kind: kind}, func(ctx context.Context) (*Prediction, error) {
		return p.compute(ctx, node, kind), nil
	})
}

// Unknown builds the degraded prediction returned for an unindexed name.
func (p *Predictor) Unknown(name string, kind ChangeKind) *Prediction {
	recs := []string{fmt.Sprintf("Symbol %q was not found in the index.", name)}
	if s := suggest(name, p.index.Names()); len(s) > 0 {
		recs = append(recs, "Did you mean: "+strings.Join(s, ", ")+"?")
	}
	return &Prediction{
		SymbolName: name,
		ChangeKind: kind,
		Confidence: unknownConfidence,
		Affected:   []AffectedNode{},
		Risk: RiskAssessment{
			TestingRequired: []string{},
			ReviewersNeeded: []string{},
		},
		Recommendations: recs,
	}
}

type queued struct {
	id    int64
	depth int
	path  []int64
}

func (p *Predictor) compute(ctx context.Context, changed *graph.Node, kind ChangeKind) *Prediction {
	start := time.Now()
	ctx, span := startPredictionSpan(ctx, changed.ID, kind)
	defer span.End()

	maxDepth := p.settings.MaxDepth
	affected := []AffectedNode{}
	var risk riskCollector
	depthCapped := false

	visited := make(map[int64]bool)
	discovered := map[int64]bool{changed.ID: true}
	queue := []queued{{id: changed.ID}}
	for head := 0; head < len(queue); head++ {
		item := queue[head]
		if visited[item.id] || item.depth > maxDepth {
			continue
		}
		visited[item.id] = true

		if item.depth > 0 {
			node, _ := p.graph.Node(item.id)
			affected = append(affected, p.score(ctx, node, item, kind, &risk))
		}

		for _, dep := range p.graph.Dependents(item.id) {
			if visited[dep] {
				continue
			}
			if item.depth+1 > maxDepth {
				depthCapped = depthCapped || !discovered[dep]
				continue
			}
			discovered[dep] = true
			path := append(slices.Clone(item.path), item.id)
			queue = append(queue, queued{id: dep, depth: item.depth + 1, path: path})
		}
	}

	sort.SliceStable(affected, func(i, j int) bool {
		a, b := affected[i], affected[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.SymbolID < b.SymbolID
	})

	pred := &Prediction{
		SymbolID:   changed.ID,
		SymbolName: changed.DisplayName(),
		ChangeKind: kind,
		Found:      true,
		Confidence: changed.Confidence,
		Affected:   affected,
		Risk:       risk.assess(kind, affected),
	}
	if pred.Confidence <= 0 {
		pred.Confidence = 1
	}
	for _, a := range affected {
		pred.TotalFixMinutes += a.EstimatedFixMinutes
	}
	pred.TotalFixMinutes = round1(pred.TotalFixMinutes)
	pred.Recommendations = recommendations(pred, maxDepth, depthCapped)

	recordPrediction(ctx, span, time.Since(start), pred)
	p.logger.Debug("impact predicted",
		slog.Int64("symbol_id", changed.ID),
		slog.String("change_kind", string(kind)),
		slog.Int("affected", len(affected)),
		slog.Float64("risk", pred.Risk.Overall))
	return pred
}

func (p *Predictor) score(ctx context.Context, n *graph.Node, item queued, kind ChangeKind, risk *riskCollector) AffectedNode {
	usage := p.scorer.usageCount(n)
	sev := severity(item.depth, kind, p.scorer.criticality(n, usage), usage)
	actions := p.scorer.actions(n, kind)
	risk.addNode(n, sev, p.settings.TagRules)

	if p.rules != nil {
		out := p.rules.Evaluate(ctx, rules.Input{
			Symbol: rules.Symbol{
				ID:            n.ID,
				Name:          n.Name,
				QualifiedName: n.QualifiedName,
				Kind:          n.Kind,
				FilePath:      n.FilePath,
				Namespace:     n.Namespace,
				Tags:          n.Tags,
				Usage:         usage,
			},
			ChangeKind: string(kind),
			Severity:   sev,
			Depth:      item.depth,
		})
		actions = dedupe(append(actions, out.Actions...))
		risk.testing = append(risk.testing, out.Testing...)
		risk.reviewers = append(risk.reviewers, out.Reviewers...)
	}

	return AffectedNode{
		SymbolID:            n.ID,
		Name:                n.DisplayName(),
		Kind:                n.Kind,
		FilePath:            n.FilePath,
		Depth:               item.depth,
		Severity:            sev,
		PropagationPath:     item.path,
		RequiredActions:     actions,
		EstimatedFixMinutes: p.scorer.fixMinutes(n, sev, kind),
	}
}
