package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/warxhead1/ripple"
)

// Arguments structs

type ResolveReferencesArgs struct{}

type EntryPointsArgs struct {
	Kinds []string `json:"kinds,omitempty" jsonschema:"symbol kinds that may start a call chain; defaults to function and method"`
}

type TraceCallChainArgs struct {
	Symbol   string `json:"symbol" jsonschema:"entry point id, qualified name or simple name"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"maximum call depth; defaults to the configured limit"`
}

type FindCyclesArgs struct{}

type PredictImpactArgs struct {
	Symbol      string `json:"symbol" jsonschema:"symbol id, qualified name or simple name"`
	ChangeKind  string `json:"change_kind" jsonschema:"one of type, value, signature, dependency, removal"`
	Description string `json:"description,omitempty" jsonschema:"free-text description of the change"`
	Before      string `json:"before,omitempty" jsonschema:"the current form of the changed code"`
	After       string `json:"after,omitempty" jsonschema:"the proposed form of the changed code"`
}

type AnalyzeArgs struct{}

// Results structs

type ResolveReferencesResult struct {
	Resolved int `json:"resolved"`
}

type EntryPointsResult struct {
	EntryPoints []ripple.SymbolResult `json:"entry_points"`
}

type ChainStep struct {
	SymbolID int64  `json:"symbol_id"`
	Name     string `json:"name"`
	CallerID *int64 `json:"caller_id,omitempty"`
	Depth    int    `json:"depth"`
}

type TraceCallChainResult struct {
	EntryPoint int64       `json:"entry_point"`
	MaxDepth   int         `json:"max_depth"`
	Steps      []ChainStep `json:"steps"`
}

type Cycle struct {
	SymbolIDs []int64  `json:"symbol_ids"`
	Names     []string `json:"names"`
}

type FindCyclesResult struct {
	Cycles []Cycle `json:"cycles"`
}

type Hotspot struct {
	SymbolID            int64   `json:"symbol_id"`
	Name                string  `json:"name"`
	Affected            int     `json:"affected"`
	Risk                float64 `json:"risk"`
	BreakingChangeCount int     `json:"breaking_change_count"`
}

type AnalyzeResult struct {
	Fingerprint string    `json:"fingerprint"`
	EntryPoints int       `json:"entry_points"`
	CallChains  int       `json:"call_chains"`
	Cycles      []Cycle   `json:"cycles"`
	Hotspots    []Hotspot `json:"hotspots"`
}

func (s *Server) registerTools() {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_references",
		Description: "Binds relationships whose target is still a bare name to indexed symbols and returns how many were newly resolved",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ResolveReferencesArgs) (*mcp.CallToolResult, ResolveReferencesResult, error) {
		s.logCall("resolve_references")
		n, err := s.engine.ResolveReferences(ctx)
		if err != nil {
			return nil, ResolveReferencesResult{}, err
		}
		return nil, ResolveReferencesResult{Resolved: n}, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "entry_points",
		Description: "Lists functions and methods that no call edge reaches",
		Annotations: readOnly,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EntryPointsArgs) (*mcp.CallToolResult, EntryPointsResult, error) {
		s.logCall("entry_points")
		q, err := s.engine.Query(ctx)
		if err != nil {
			return nil, EntryPointsResult{}, err
		}
		return nil, EntryPointsResult{EntryPoints: q.Symbols(q.EntryPoints(args.Kinds...))}, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "trace_call_chain",
		Description: "Traces the depth-first call path from an entry point, visiting each symbol at most once",
		Annotations: readOnly,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TraceCallChainArgs) (*mcp.CallToolResult, TraceCallChainResult, error) {
		s.logCall("trace_call_chain", slog.String("symbol", args.Symbol))
		q, err := s.engine.Query(ctx)
		if err != nil {
			return nil, TraceCallChainResult{}, err
		}
		id, err := q.Lookup(args.Symbol)
		if err != nil {
			return nil, TraceCallChainResult{}, err
		}
		chain, err := q.TraceCallChain(id, args.MaxDepth)
		if err != nil {
			return nil, TraceCallChainResult{}, err
		}
		out := TraceCallChainResult{
			EntryPoint: chain.EntryPoint,
			MaxDepth:   chain.MaxDepth,
			Steps:      make([]ChainStep, len(chain.Steps)),
		}
		for i, step := range chain.Steps {
			out.Steps[i] = ChainStep{
				SymbolID: step.SymbolID,
				Name:     q.Name(step.SymbolID),
				CallerID: step.CallerID,
				Depth:    step.Depth,
			}
		}
		return nil, out, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_cycles",
		Description: "Finds circular dependency groups across every relationship type",
		Annotations: readOnly,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindCyclesArgs) (*mcp.CallToolResult, FindCyclesResult, error) {
		s.logCall("find_cycles")
		q, err := s.engine.Query(ctx)
		if err != nil {
			return nil, FindCyclesResult{}, err
		}
		return nil, FindCyclesResult{Cycles: namedCycles(q, q.FindCycles())}, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "predict_impact",
		Description: "Predicts which dependents a change to a symbol affects, how severely, and what it takes to fix them",
		Annotations: readOnly,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PredictImpactArgs) (*mcp.CallToolResult, ripple.Prediction, error) {
		s.logCall("predict_impact", slog.String("symbol", args.Symbol), slog.String("change_kind", args.ChangeKind))
		kind, err := ripple.ParseChangeKind(args.ChangeKind)
		if err != nil {
			return nil, ripple.Prediction{}, err
		}
		var sim *ripple.SimulatedChange
		if args.Description != "" || args.Before != "" || args.After != "" {
			sim = &ripple.SimulatedChange{Description: args.Description, Before: args.Before, After: args.After}
		}
		pred, err := s.engine.PredictImpact(ctx, args.Symbol, kind, sim)
		if err != nil {
			return nil, ripple.Prediction{}, err
		}
		return nil, *pred, nil
	})

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze",
		Description: "Runs call chain tracing, cycle detection and signature-change predictions for the most depended-on symbols",
		Annotations: readOnly,
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeArgs) (*mcp.CallToolResult, AnalyzeResult, error) {
		s.logCall("analyze")
		a, err := s.engine.Analyze(ctx)
		if err != nil {
			return nil, AnalyzeResult{}, err
		}
		q := a.Query()
		out := AnalyzeResult{
			Fingerprint: a.Fingerprint,
			EntryPoints: len(a.EntryPoints),
			CallChains:  len(a.Chains),
			Cycles:      namedCycles(q, a.Cycles),
			Hotspots:    make([]Hotspot, len(a.Hotspots)),
		}
		for i, p := range a.Hotspots {
			out.Hotspots[i] = Hotspot{
				SymbolID:            p.SymbolID,
				Name:                p.SymbolName,
				Affected:            len(p.Affected),
				Risk:                p.Risk.Overall,
				BreakingChangeCount: p.Risk.BreakingChangeCount,
			}
		}
		return nil, out, nil
	})
}

func namedCycles(q *ripple.QueryBuilder, cycles [][]int64) []Cycle {
	out := make([]Cycle, len(cycles))
	for i, c := range cycles {
		names := make([]string, len(c))
		for j, id := range c {
			names[j] = q.Name(id)
		}
		out[i] = Cycle{SymbolIDs: c, Names: names}
	}
	return out
}

func (s *Server) logCall(tool string, attrs ...any) {
	s.logger.Debug("tool called", append([]any{slog.String("tool", tool)}, attrs...)...)
}
