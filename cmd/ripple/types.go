package main

import "github.com/warxhead1/ripple"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLILoad reports what a load wrote.
type CLILoad struct {
	Source        string `json:"source"`
	Symbols       int    `json:"symbols"`
	Relationships int    `json:"relationships"`
	Unresolved    int    `json:"unresolved"`
}

// CLICount is a single named counter, e.g. resolved references.
type CLICount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CLIStep is one call chain step with its symbol name filled in.
type CLIStep struct {
	SymbolID int64  `json:"symbol_id"`
	Name     string `json:"name"`
	CallerID *int64 `json:"caller_id,omitempty"`
	Depth    int    `json:"depth"`
}

// CLIChain is a call chain rooted at one entry point.
type CLIChain struct {
	EntryPoint ripple.SymbolResult `json:"entry_point"`
	MaxDepth   int                 `json:"max_depth"`
	Steps      []CLIStep           `json:"steps"`
}

// CLICycle is one circular dependency group.
type CLICycle struct {
	SymbolIDs []int64  `json:"symbol_ids"`
	Names     []string `json:"names"`
}

// CLIHotspot summarizes the signature-change prediction for one heavily
// depended-on symbol.
type CLIHotspot struct {
	Symbol              ripple.SymbolResult `json:"symbol"`
	Affected            int                 `json:"affected"`
	Risk                float64             `json:"risk"`
	BreakingChangeCount int                 `json:"breaking_change_count"`
	TotalFixMinutes     float64             `json:"total_fix_minutes"`
}

// CLIAnalysis is the JSON-friendly form of ripple.Analysis.
type CLIAnalysis struct {
	Fingerprint string                `json:"fingerprint"`
	EntryPoints []ripple.SymbolResult `json:"entry_points"`
	Chains      []CLIChain            `json:"call_chains"`
	Cycles      []CLICycle            `json:"cycles"`
	Hotspots    []CLIHotspot          `json:"hotspots"`
	DurationMS  int64                 `json:"duration_ms"`
}
