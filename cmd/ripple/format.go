package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/warxhead1/ripple"
)

// formatSymbolsText formats symbols as aligned columns.
func formatSymbolsText(w io.Writer, syms []ripple.SymbolResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tFILE\tLINE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", s.ID, displayName(s), s.Kind, s.File, s.Line)
	}
	tw.Flush()
}

// formatChainsText prints each chain as an indented call tree.
func formatChainsText(w io.Writer, chains []CLIChain) {
	for i, c := range chains {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (#%d)\n", displayName(c.EntryPoint), c.EntryPoint.ID)
		for _, s := range c.Steps[1:] {
			fmt.Fprintf(w, "%s%s (#%d)\n", strings.Repeat("  ", s.Depth), s.Name, s.SymbolID)
		}
	}
}

// formatCyclesText prints one cycle per line, closing the loop.
func formatCyclesText(w io.Writer, cycles []CLICycle) {
	for _, c := range cycles {
		if len(c.Names) == 0 {
			continue
		}
		fmt.Fprintln(w, strings.Join(append(c.Names, c.Names[0]), " -> "))
	}
}

// formatPredictionText formats a prediction as a summary followed by the
// affected symbols.
func formatPredictionText(w io.Writer, p *ripple.Prediction) {
	fmt.Fprintf(w, "Impact of %s change to %s\n", p.ChangeKind, p.SymbolName)
	fmt.Fprintf(w, "Confidence: %.2f\n", p.Confidence)
	if !p.Found {
		fmt.Fprintln(w)
		for _, r := range p.Recommendations {
			fmt.Fprintf(w, "  %s\n", r)
		}
		return
	}
	fmt.Fprintf(w, "Risk: %.1f (high %d, medium %d, low %d, breaking %d)\n",
		p.Risk.Overall, p.Risk.HighCount, p.Risk.MediumCount, p.Risk.LowCount, p.Risk.BreakingChangeCount)
	fmt.Fprintf(w, "Estimated fix time: %.0f min\n", p.TotalFixMinutes)
	fmt.Fprintln(w)

	if len(p.Affected) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tKIND\tDEPTH\tSEVERITY\tFIX (MIN)")
		for _, a := range p.Affected {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.1f\t%.1f\n",
				a.SymbolID, a.Name, a.Kind, a.Depth, a.Severity, a.EstimatedFixMinutes)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	printList(w, "Testing:", p.Risk.TestingRequired)
	printList(w, "Reviewers:", p.Risk.ReviewersNeeded)
	printList(w, "Recommendations:", p.Recommendations)
}

// formatAnalysisText formats an analysis as a summary plus the hotspot table.
func formatAnalysisText(w io.Writer, a CLIAnalysis) {
	fmt.Fprintln(w, "Analysis")
	fmt.Fprintln(w, "========")
	fmt.Fprintf(w, "Fingerprint: %s\n", a.Fingerprint)
	fmt.Fprintf(w, "Entry points: %d\n", len(a.EntryPoints))
	fmt.Fprintf(w, "Call chains: %d\n", len(a.Chains))
	fmt.Fprintf(w, "Cycles: %d\n", len(a.Cycles))
	fmt.Fprintf(w, "Duration: %dms\n", a.DurationMS)

	if len(a.Cycles) > 0 {
		fmt.Fprintln(w)
		formatCyclesText(w, a.Cycles)
	}
	if len(a.Hotspots) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Hotspots:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  ID\tNAME\tAFFECTED\tRISK\tBREAKING")
		for _, h := range a.Hotspots {
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%.1f\t%d\n",
				h.Symbol.ID, displayName(h.Symbol), h.Affected, h.Risk, h.BreakingChangeCount)
		}
		tw.Flush()
	}
}

// formatStatsText formats graph statistics as readable text.
func formatStatsText(w io.Writer, st ripple.Stats) {
	fmt.Fprintf(w, "Project: %s\n", st.Project)
	fmt.Fprintf(w, "Symbols: %d\n", st.Symbols)
	fmt.Fprintf(w, "Edges: %d\n", st.Edges)
	fmt.Fprintf(w, "Fingerprint: %s\n", st.Fingerprint)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Relationships:")
	fmt.Fprintf(w, "  considered: %d\n", st.Build.Considered)
	fmt.Fprintf(w, "  admitted: %d\n", st.Build.Admitted)
	fmt.Fprintf(w, "  below threshold: %d\n", st.Build.BelowThreshold)
	fmt.Fprintf(w, "  unresolved: %d\n", st.Build.Unresolved)
	fmt.Fprintf(w, "  dangling: %d\n", st.Build.Dangling)
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, it := range items {
		fmt.Fprintf(w, "  %s\n", it)
	}
}

func displayName(s ripple.SymbolResult) string {
	if s.QualifiedName != "" {
		return s.QualifiedName
	}
	return s.Name
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	w := io.Writer(os.Stdout)

	switch v := result.Results.(type) {
	case []ripple.SymbolResult:
		formatSymbolsText(w, v)
	case []CLIChain:
		formatChainsText(w, v)
	case []CLICycle:
		formatCyclesText(w, v)
	case *ripple.Prediction:
		formatPredictionText(w, v)
	case CLIAnalysis:
		formatAnalysisText(w, v)
	case ripple.Stats:
		formatStatsText(w, v)
	case CLICount:
		fmt.Fprintf(w, "%s: %d\n", v.Label, v.Count)
	case CLILoad:
		fmt.Fprintf(w, "Loaded %s: %d symbols, %d relationships, %d unresolved\n",
			v.Source, v.Symbols, v.Relationships, v.Unresolved)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}
