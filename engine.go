package ripple

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/warxhead1/ripple/internal/graph"
	"github.com/warxhead1/ripple/internal/impact"
	"github.com/warxhead1/ripple/internal/rules"
	"github.com/warxhead1/ripple/internal/store"
)

// DefaultProject is the project name used when WithProject is not given.
const DefaultProject = "default"

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("ripple: engine closed")

// snapshot is one immutable view of the graph together with the predictor
// and cache that belong to it. Snapshots are replaced, never mutated.
type snapshot struct {
	graph     *graph.Graph
	index     *graph.SymbolIndex
	predictor *impact.Predictor
	stats     graph.BuildStats
	builtAt   time.Time
}

// Engine orchestrates reference resolution, snapshot builds and analysis
// over one project in a SQLite store. It is safe for concurrent use.
type Engine struct {
	store *store.Store
	// source is the snapshot and resolution path into store.
	source    store.Source
	cfg       Config
	logger    *slog.Logger
	rules     *rules.Runtime
	rulesFS   fs.FS
	project   string
	projectID int64

	// mu serializes writers: rebuilds, resolution and imports.
	mu     sync.Mutex
	snap   atomic.Pointer[snapshot]
	closed atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets analysis configuration. Zero fields take defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProject selects the project the engine operates on, creating it if it
// does not exist.
func WithProject(name string) Option {
	return func(e *Engine) {
		e.project = name
	}
}

// WithRulesFS loads rule scripts from fsys instead of Config.RulesDir. This
// enables embedding rules via go:embed.
func WithRulesFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.rulesFS = fsys
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{project: DefaultProject}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.cfg = e.cfg.withDefaults()
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ripple: %w", err)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("ripple: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ripple: migrate: %w", err)
	}
	e.store = s
	e.source = s

	e.projectID, err = s.EnsureProject(e.project, "")
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("ripple: project %q: %w", e.project, err)
	}

	if e.rulesFS != nil || e.cfg.RulesDir != "" {
		rtOpts := []rules.Option{rules.WithLogger(e.logger)}
		if e.rulesFS != nil {
			rtOpts = append(rtOpts, rules.WithFS(e.rulesFS))
		}
		e.rules = rules.NewRuntime(e.cfg.RulesDir, rtOpts...)
		if err := e.rules.Load(); err != nil {
			s.Close()
			return nil, fmt.Errorf("ripple: %w", err)
		}
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.snap.Store(nil)
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ProjectID returns the id of the engine's project.
func (e *Engine) ProjectID() int64 {
	return e.projectID
}

// Rebuild loads the project from the store, builds a new snapshot and swaps
// it in atomically. Queries already running keep the snapshot they started
// with; the old prediction cache is discarded with it.
func (e *Engine) Rebuild(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.rebuildLocked(ctx)
	return err
}

func (e *Engine) rebuildLocked(ctx context.Context) (*snapshot, error) {
	syms, err := e.source.AllSymbols(e.projectID)
	if err != nil {
		return nil, fmt.Errorf("ripple: load symbols: %w", err)
	}
	// Load every relationship; the builder applies the threshold and
	// reports what it dropped.
	rels, err := e.source.Relationships(e.projectID, 0)
	if err != nil {
		return nil, fmt.Errorf("ripple: load relationships: %w", err)
	}

	nodes := graph.NodesFromSymbols(syms)
	builder := graph.Builder{MinConfidence: e.cfg.MinConfidence, Logger: e.logger}
	g, stats := builder.Build(ctx, nodes, graph.RelationshipsFromStore(rels))
	index := graph.NewSymbolIndex(g.Nodes())

	predOpts := []impact.Option{
		impact.WithSettings(e.cfg.impactSettings()),
		impact.WithLogger(e.logger),
	}
	if e.rules != nil {
		predOpts = append(predOpts, impact.WithRules(e.rules))
	}

	snap := &snapshot{
		graph:     g,
		index:     index,
		predictor: impact.NewPredictor(g, index, predOpts...),
		stats:     stats,
		builtAt:   time.Now(),
	}
	e.snap.Store(snap)
	e.logger.Info("snapshot rebuilt",
		slog.String("project", e.project),
		slog.Int("symbols", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("dropped", stats.BelowThreshold+stats.Unresolved+stats.Dangling))
	return snap, nil
}

// current returns the live snapshot, building the first one on demand.
func (e *Engine) current(ctx context.Context) (*snapshot, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if s := e.snap.Load(); s != nil {
		return s, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.snap.Load(); s != nil {
		return s, nil
	}
	return e.rebuildLocked(ctx)
}

// invalidate drops the live snapshot so the next query rebuilds.
func (e *Engine) invalidate() {
	e.snap.Store(nil)
}

// ResolveReferences binds relationships whose target is still a bare name
// and returns how many were newly resolved. Names that match no symbol are
// left unresolved and are not an error.
func (e *Engine) ResolveReferences(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	syms, err := e.source.AllSymbols(e.projectID)
	if err != nil {
		return 0, fmt.Errorf("ripple: load symbols: %w", err)
	}
	pending, err := e.source.UnresolvedRelationships(e.projectID)
	if err != nil {
		return 0, fmt.Errorf("ripple: load unresolved relationships: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	index := graph.NewSymbolIndex(graph.NodesFromSymbols(syms))
	bindings := graph.NewResolver(index, e.logger).Resolve(graph.RelationshipsFromStore(pending))

	resolutions := make([]store.Resolution, len(bindings))
	for i, b := range bindings {
		resolutions[i] = store.Resolution{RelationshipID: b.RelationshipID, SymbolID: b.SymbolID}
	}
	n, err := e.source.ApplyResolutions(resolutions)
	if err != nil {
		return 0, fmt.Errorf("ripple: %w", err)
	}
	if n > 0 {
		e.invalidate()
	}
	e.logger.Info("references resolved",
		slog.String("project", e.project),
		slog.Int("pending", len(pending)),
		slog.Int("resolved", n))
	return n, nil
}

// EntryPoints returns the symbols of the given kinds that nothing calls. An
// empty kinds uses Config.EntryPointKinds.
func (e *Engine) EntryPoints(ctx context.Context, kinds ...string) ([]int64, error) {
	q, err := e.Query(ctx)
	if err != nil {
		return nil, err
	}
	return q.EntryPoints(kinds...), nil
}

// TraceCallChain walks calls edges depth-first from entry. A maxDepth of 0
// uses Config.MaxCallDepth.
func (e *Engine) TraceCallChain(ctx context.Context, entry int64, maxDepth int) (*CallChain, error) {
	q, err := e.Query(ctx)
	if err != nil {
		return nil, err
	}
	return q.TraceCallChain(entry, maxDepth)
}

// TraceAll traces every entry point and keeps chains with at least one
// callee.
func (e *Engine) TraceAll(ctx context.Context) ([]*CallChain, error) {
	q, err := e.Query(ctx)
	if err != nil {
		return nil, err
	}
	return q.TraceAll()
}

func (e *Engine) traceAll(snap *snapshot) ([]*CallChain, error) {
	return (&QueryBuilder{snap: snap, cfg: e.cfg}).TraceAll()
}

// FindCycles returns every circular dependency group in traversal order.
func (e *Engine) FindCycles(ctx context.Context) ([][]int64, error) {
	q, err := e.Query(ctx)
	if err != nil {
		return nil, err
	}
	return q.FindCycles(), nil
}

// PredictImpact predicts what a change of the given kind to nameOrID (a
// numeric id, qualified name or simple name) affects. Unknown names yield a
// low-confidence prediction, not an error. sim, when given, annotates a copy
// of the cached prediction.
func (e *Engine) PredictImpact(ctx context.Context, nameOrID string, kind ChangeKind, sim *SimulatedChange) (*Prediction, error) {
	snap, err := e.current(ctx)
	if err != nil {
		return nil, err
	}
	pred, err := snap.predictor.PredictName(ctx, nameOrID, kind)
	if err != nil {
		return nil, fmt.Errorf("ripple: predict %q: %w", nameOrID, err)
	}
	return pred.WithSimulation(sim), nil
}

// PersistCallChains traces every entry point and replaces the project's
// stored call chains with the result. It returns the number of chains.
func (e *Engine) PersistCallChains(ctx context.Context) (int, error) {
	snap, err := e.current(ctx)
	if err != nil {
		return 0, err
	}
	chains, err := e.traceAll(snap)
	if err != nil {
		return 0, err
	}

	stored := make([]store.CallChain, len(chains))
	for i, c := range chains {
		sc := store.CallChain{EntryPointID: c.EntryPoint, MaxDepth: c.MaxDepth}
		sc.Steps = make([]store.CallChainStep, len(c.Steps))
		for j, step := range c.Steps {
			sc.Steps[j] = store.CallChainStep{
				Index:    j,
				SymbolID: step.SymbolID,
				CallerID: step.CallerID,
				Depth:    step.Depth,
			}
		}
		stored[i] = sc
	}
	if err := e.store.ReplaceCallChains(e.projectID, stored); err != nil {
		return 0, fmt.Errorf("ripple: %w", err)
	}
	e.logger.Info("call chains persisted", slog.String("project", e.project), slog.Int("chains", len(stored)))
	return len(stored), nil
}

// FlagCycles marks every member of every cycle with a circular-dependency
// marker, replacing earlier markers of that kind. It returns the number of
// distinct symbols flagged.
func (e *Engine) FlagCycles(ctx context.Context) (int, error) {
	snap, err := e.current(ctx)
	if err != nil {
		return 0, err
	}
	cycles := graph.FindCycles(snap.graph)

	var markers []store.Marker
	flagged := make(map[int64]struct{})
	for _, cycle := range cycles {
		detail := describeCycle(snap.graph, cycle)
		for _, id := range cycle {
			markers = append(markers, store.Marker{SymbolID: id, Detail: detail})
			flagged[id] = struct{}{}
		}
	}
	if err := e.store.ReplaceMarkers(e.projectID, store.MarkerCircularDependency, markers); err != nil {
		return 0, fmt.Errorf("ripple: %w", err)
	}
	e.logger.Info("cycles flagged",
		slog.String("project", e.project),
		slog.Int("cycles", len(cycles)),
		slog.Int("symbols", len(flagged)))
	return len(flagged), nil
}

// describeCycle renders a cycle as "A -> B -> C -> A".
func describeCycle(g *graph.Graph, cycle []int64) string {
	names := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		names = append(names, nodeName(g, id))
	}
	if len(cycle) > 0 {
		names = append(names, nodeName(g, cycle[0]))
	}
	return strings.Join(names, " -> ")
}

func nodeName(g *graph.Graph, id int64) string {
	if n, ok := g.Node(id); ok {
		return n.DisplayName()
	}
	return fmt.Sprintf("#%d", id)
}

// Stats describes the live snapshot.
type Stats struct {
	Project     string     `json:"project"`
	Symbols     int        `json:"symbols"`
	Edges       int        `json:"edges"`
	Build       BuildStats `json:"build"`
	Fingerprint string     `json:"fingerprint"`
	Cache       CacheStats `json:"cache"`
	BuiltAt     time.Time  `json:"built_at"`
}

// Stats returns counters for the live snapshot, building it if needed.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	snap, err := e.current(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Project:     e.project,
		Symbols:     snap.graph.NodeCount(),
		Edges:       snap.graph.EdgeCount(),
		Build:       snap.stats,
		Fingerprint: fmt.Sprintf("%016x", snap.graph.Fingerprint()),
		Cache:       snap.predictor.Cache().Stats(),
		BuiltAt:     snap.builtAt,
	}, nil
}
