package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/warxhead1/ripple"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagProject string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ripple",
	Short:         "Symbol relationship graph and change impact analysis",
	Long:          "Ripple resolves symbol relationships stored in a SQLite index, traces call chains, finds circular dependencies and predicts the impact of changes.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .ripple/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ripple.yml in the repo root, if present)")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", ripple.DefaultProject, "project name within the database")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(entryPointsCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(dependentsCmd)
	rootCmd.AddCommand(serveCmd)
}

// openEngine opens the engine over the --db path (or default). With
// mustExist, a missing database is an error rather than a fresh index.
func openEngine(mustExist bool) (*ripple.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	dbPath := resolveDBPath(repoRoot)

	if mustExist {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s (run 'ripple load' first)", dbPath)
		}
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
	}

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return nil, err
	}
	return ripple.New(dbPath,
		ripple.WithConfig(cfg),
		ripple.WithLogger(newLogger()),
		ripple.WithProject(flagProject),
	)
}

// loadConfig reads --config, or a ripple.yml found in the repo root.
func loadConfig(repoRoot string) (ripple.Config, error) {
	if flagConfig != "" {
		return ripple.LoadConfigFile(flagConfig)
	}
	return ripple.LoadConfig(repoRoot)
}

// newLogger writes text logs to stderr so stdout stays machine-readable.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".ripple", "index.db")
}
