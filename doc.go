// Package ripple answers two questions over an indexed codebase: what calls
// what, transitively, and what breaks if a symbol changes.
//
// Symbols and relationships are produced by external parsers and stored in
// SQLite. Ripple binds textual relationship targets to symbols, builds an
// immutable dependency graph snapshot from the confidence-admitted edges, and
// runs three independent analyses against it: call chain tracing from entry
// points, cycle detection, and change-impact propagation.
//
// # Pipeline
//
//  1. Import: feed symbols and relationships with [Engine.Import] (or write
//     them directly through [Engine.Store]).
//
//  2. Resolve: [Engine.ResolveReferences] binds relationships whose target is
//     still a bare name. Names that match nothing stay unresolved.
//
//  3. Query: the first query builds a snapshot; later queries share it until
//     [Engine.Rebuild] swaps in a new one.
//
// # Usage
//
//	e, err := ripple.New("ripple.db", ripple.WithProject("engine"))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	n, err := e.ResolveReferences(ctx)
//	chain, err := e.TraceCallChain(ctx, entryID, 0)
//	pred, err := e.PredictImpact(ctx, "Renderer::draw", ripple.ChangeSignature, nil)
//
// # Output contract
//
//   - [Engine.ResolveReferences]: number of newly bound relationships.
//   - [Engine.EntryPoints]: functions and methods nothing calls.
//   - [Engine.TraceCallChain]: depth-first call path from one entry point.
//   - [Engine.FindCycles]: circular dependency groups.
//   - [Engine.PredictImpact]: affected dependents with severity, actions, fix
//     estimates and an aggregated risk assessment.
//
// [Engine.PersistCallChains] and [Engine.FlagCycles] write the chain and
// circular-dependency artifacts back to the store. [Engine.Analyze] runs
// tracing, cycle detection and hotspot predictions concurrently.
//
// # Rules
//
// Impact scoring can be extended with Risor scripts (*.risor) placed in the
// configured rules directory. Each script runs once per affected symbol and
// may add required actions, testing requirements and reviewers.
package ripple
