package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warxhead1/ripple"
	"github.com/warxhead1/ripple/internal/mcpserver"
)

var (
	flagKinds       []string
	flagMaxDepth    int
	flagAll         bool
	flagFlag        bool
	flagPersist     bool
	flagChangeKind  string
	flagDescription string
	flagBefore      string
	flagAfter       string
	flagNoResolve   bool
)

var loadCmd = &cobra.Command{
	Use:   "load <file|->",
	Short: "Load parsed symbols and relationships from a JSON document",
	Long:  "Writes the symbols and relationships of an import document in one transaction, then resolves pending references unless --no-resolve is set. Use - to read stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Bind unresolved relationships to indexed symbols",
	Args:  cobra.NoArgs,
	RunE:  runResolve,
}

var entryPointsCmd = &cobra.Command{
	Use:   "entry-points",
	Short: "List symbols no call edge reaches",
	Args:  cobra.NoArgs,
	RunE:  runEntryPoints,
}

var traceCmd = &cobra.Command{
	Use:   "trace [symbol]",
	Short: "Trace the call chain from an entry point",
	Long:  "Walks calls edges depth-first from the given symbol (id, qualified name or name). With --all, traces every entry point; --persist stores those chains.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTrace,
}

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Find circular dependency groups",
	Long:  "Reports every cycle across all relationship types. With --flag, members are marked with a circular-dependency marker in the database.",
	Args:  cobra.NoArgs,
	RunE:  runCycles,
}

var impactCmd = &cobra.Command{
	Use:   "impact <symbol>",
	Short: "Predict the impact of changing a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runImpact,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Trace every entry point, find cycles and rank hotspots",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show graph build statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var searchCmd = &cobra.Command{
	Use:   "search <pattern>",
	Short: "Find symbols whose qualified name matches a glob pattern",
	Long:  "Matches qualified names against a doublestar glob, e.g. 'Renderer::*' or '**draw*'.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var depsCmd = &cobra.Command{
	Use:   "deps <symbol>",
	Short: "List the symbols a symbol depends on",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeps,
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents <symbol>",
	Short: "List the symbols that depend on a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	loadCmd.Flags().BoolVar(&flagNoResolve, "no-resolve", false, "skip reference resolution after loading")

	entryPointsCmd.Flags().StringSliceVar(&flagKinds, "kinds", nil, "symbol kinds that may start a chain (default from config)")

	traceCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "maximum call depth (default from config)")
	traceCmd.Flags().BoolVar(&flagAll, "all", false, "trace every entry point")
	traceCmd.Flags().BoolVar(&flagPersist, "persist", false, "store the chains of every entry point (implies --all)")

	cyclesCmd.Flags().BoolVar(&flagFlag, "flag", false, "mark cycle members in the database")

	impactCmd.Flags().StringVar(&flagChangeKind, "kind", "signature", "change kind: type|value|signature|dependency|removal")
	impactCmd.Flags().StringVar(&flagDescription, "description", "", "free-text description of the change")
	impactCmd.Flags().StringVar(&flagBefore, "before", "", "current form of the changed code")
	impactCmd.Flags().StringVar(&flagAfter, "after", "", "proposed form of the changed code")
}

func runLoad(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return outputError("load", err)
		}
		defer f.Close()
		r = f
	}

	e, err := openEngine(false)
	if err != nil {
		return outputError("load", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	res, err := e.Import(ctx, r)
	if err != nil {
		return outputError("load", err)
	}
	out := CLILoad{
		Source:        args[0],
		Symbols:       res.Symbols,
		Relationships: res.Relationships,
		Unresolved:    res.Unresolved,
	}
	if !flagNoResolve && res.Unresolved > 0 {
		n, err := e.ResolveReferences(ctx)
		if err != nil {
			return outputError("load", err)
		}
		out.Unresolved -= n
	}
	return outputResult(CLIResult{Command: "load", Results: out})
}

func runResolve(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("resolve", err)
	}
	defer e.Close()

	n, err := e.ResolveReferences(cmd.Context())
	if err != nil {
		return outputError("resolve", err)
	}
	return outputResult(CLIResult{Command: "resolve", Results: CLICount{Label: "resolved", Count: n}})
}

func runEntryPoints(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("entry-points", err)
	}
	defer e.Close()

	q, err := e.Query(cmd.Context())
	if err != nil {
		return outputError("entry-points", err)
	}
	syms := q.Symbols(q.EntryPoints(flagKinds...))
	total := len(syms)
	return outputResult(CLIResult{Command: "entry-points", Results: syms, TotalCount: &total})
}

func runTrace(cmd *cobra.Command, args []string) error {
	all := flagAll || flagPersist
	if !all && len(args) == 0 {
		return outputError("trace", fmt.Errorf("requires a symbol argument or --all"))
	}

	e, err := openEngine(true)
	if err != nil {
		return outputError("trace", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	q, err := e.Query(ctx)
	if err != nil {
		return outputError("trace", err)
	}

	var chains []*ripple.CallChain
	if all {
		if flagPersist {
			if _, err := e.PersistCallChains(ctx); err != nil {
				return outputError("trace", err)
			}
		}
		chains, err = q.TraceAll()
		if err != nil {
			return outputError("trace", err)
		}
	} else {
		id, err := q.Lookup(args[0])
		if err != nil {
			return outputError("trace", err)
		}
		chain, err := q.TraceCallChain(id, flagMaxDepth)
		if err != nil {
			return outputError("trace", err)
		}
		chains = []*ripple.CallChain{chain}
	}

	out := chainsToCLI(q, chains)
	total := len(out)
	return outputResult(CLIResult{Command: "trace", Results: out, TotalCount: &total})
}

func runCycles(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("cycles", err)
	}
	defer e.Close()

	ctx := cmd.Context()
	if flagFlag {
		if _, err := e.FlagCycles(ctx); err != nil {
			return outputError("cycles", err)
		}
	}
	q, err := e.Query(ctx)
	if err != nil {
		return outputError("cycles", err)
	}
	out := cyclesToCLI(q, q.FindCycles())
	total := len(out)
	return outputResult(CLIResult{Command: "cycles", Results: out, TotalCount: &total})
}

func runImpact(cmd *cobra.Command, args []string) error {
	kind, err := ripple.ParseChangeKind(flagChangeKind)
	if err != nil {
		return outputError("impact", err)
	}

	e, err := openEngine(true)
	if err != nil {
		return outputError("impact", err)
	}
	defer e.Close()

	var sim *ripple.SimulatedChange
	if flagDescription != "" || flagBefore != "" || flagAfter != "" {
		sim = &ripple.SimulatedChange{Description: flagDescription, Before: flagBefore, After: flagAfter}
	}
	pred, err := e.PredictImpact(cmd.Context(), args[0], kind, sim)
	if err != nil {
		return outputError("impact", err)
	}
	return outputResult(CLIResult{Command: "impact", Results: pred})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("analyze", err)
	}
	defer e.Close()

	a, err := e.Analyze(cmd.Context())
	if err != nil {
		return outputError("analyze", err)
	}
	q := a.Query()

	out := CLIAnalysis{
		Fingerprint: a.Fingerprint,
		EntryPoints: q.Symbols(a.EntryPoints),
		Chains:      chainsToCLI(q, a.Chains),
		Cycles:      cyclesToCLI(q, a.Cycles),
		Hotspots:    make([]CLIHotspot, 0, len(a.Hotspots)),
		DurationMS:  a.Duration.Milliseconds(),
	}
	for _, p := range a.Hotspots {
		sym, _ := q.Symbol(p.SymbolID)
		out.Hotspots = append(out.Hotspots, CLIHotspot{
			Symbol:              sym,
			Affected:            len(p.Affected),
			Risk:                p.Risk.Overall,
			BreakingChangeCount: p.Risk.BreakingChangeCount,
			TotalFixMinutes:     p.TotalFixMinutes,
		})
	}
	return outputResult(CLIResult{Command: "analyze", Results: out})
}

func runStats(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("stats", err)
	}
	defer e.Close()

	st, err := e.Stats(cmd.Context())
	if err != nil {
		return outputError("stats", err)
	}
	return outputResult(CLIResult{Command: "stats", Results: st})
}

func runSearch(cmd *cobra.Command, args []string) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError("search", err)
	}
	defer e.Close()

	q, err := e.Query(cmd.Context())
	if err != nil {
		return outputError("search", err)
	}
	syms, err := q.Search(args[0])
	if err != nil {
		return outputError("search", err)
	}
	total := len(syms)
	return outputResult(CLIResult{Command: "search", Results: syms, TotalCount: &total})
}

func runDeps(cmd *cobra.Command, args []string) error {
	return runNeighbors(cmd, "deps", args[0], (*ripple.QueryBuilder).Dependencies)
}

func runDependents(cmd *cobra.Command, args []string) error {
	return runNeighbors(cmd, "dependents", args[0], (*ripple.QueryBuilder).Dependents)
}

func runNeighbors(cmd *cobra.Command, command, symbol string, neighbors func(*ripple.QueryBuilder, int64) []ripple.SymbolResult) error {
	e, err := openEngine(true)
	if err != nil {
		return outputError(command, err)
	}
	defer e.Close()

	q, err := e.Query(cmd.Context())
	if err != nil {
		return outputError(command, err)
	}
	id, err := q.Lookup(symbol)
	if err != nil {
		return outputError(command, err)
	}
	syms := neighbors(q, id)
	total := len(syms)
	return outputResult(CLIResult{Command: command, Results: syms, TotalCount: &total})
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEngine(false)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := mcpserver.New(e, newLogger()).Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

// chainsToCLI names every step of every chain.
func chainsToCLI(q *ripple.QueryBuilder, chains []*ripple.CallChain) []CLIChain {
	out := make([]CLIChain, len(chains))
	for i, c := range chains {
		entry, _ := q.Symbol(c.EntryPoint)
		steps := make([]CLIStep, len(c.Steps))
		for j, s := range c.Steps {
			steps[j] = CLIStep{SymbolID: s.SymbolID, Name: q.Name(s.SymbolID), CallerID: s.CallerID, Depth: s.Depth}
		}
		out[i] = CLIChain{EntryPoint: entry, MaxDepth: c.MaxDepth, Steps: steps}
	}
	return out
}

// cyclesToCLI names the members of every cycle.
func cyclesToCLI(q *ripple.QueryBuilder, cycles [][]int64) []CLICycle {
	out := make([]CLICycle, len(cycles))
	for i, c := range cycles {
		names := make([]string, len(c))
		for j, id := range c {
			names[j] = q.Name(id)
		}
		out[i] = CLICycle{SymbolIDs: c, Names: names}
	}
	return out
}
