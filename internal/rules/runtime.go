// Package rules runs user-supplied Risor scripts that extend impact
// predictions with project-specific actions, tests and reviewers.
//
// Each script runs once per affected symbol with these globals:
//
//	symbol       map: id, name, qualified_name, kind, file, namespace, tags, usage
//	change_kind  "type" | "value" | "signature" | "dependency" | "removal"
//	severity     float in [0, 10]
//	depth        hops from the changed symbol
//	add_action(s), add_testing(s), add_reviewer(s)
//	log.Info(s), log.Warn(s), log.Error(s)
//
// Scripts under lib/ are importable helpers and never run as rules.
package rules

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/risor-io/risor"
	"github.com/risor-io/risor/compiler"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"github.com/risor-io/risor/parser"
)

// Input describes one affected symbol.
type Input struct {
	Symbol     Symbol
	ChangeKind string
	Severity   float64
	Depth      int
}

// Symbol is the script-visible view of a graph node.
type Symbol struct {
	ID            int64
	Name          string
	QualifiedName string
	Kind          string
	FilePath      string
	Namespace     string
	Tags          []string
	Usage         int
}

// Output collects what scripts asked to add.
type Output struct {
	Actions   []string
	Testing   []string
	Reviewers []string
}

func (o *Output) merge(other Output) {
	o.Actions = append(o.Actions, other.Actions...)
	o.Testing = append(o.Testing, other.Testing...)
	o.Reviewers = append(o.Reviewers, other.Reviewers...)
}

// Empty reports whether nothing was collected.
func (o Output) Empty() bool {
	return len(o.Actions) == 0 && len(o.Testing) == 0 && len(o.Reviewers) == 0
}

type script struct {
	path string
	code *compiler.Code
}

// Runtime loads rule scripts once and evaluates them on demand. Evaluate is
// safe for concurrent use after Load returns.
type Runtime struct {
	dir     string
	fsys    fs.FS
	logger  *slog.Logger
	scripts []script
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFS loads scripts from fsys instead of from disk.
func WithFS(fsys fs.FS) Option {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger sets the logger used for script failures and script log calls.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime reading *.risor files under dir. With
// neither dir nor WithFS the runtime has no scripts and Evaluate is a no-op.
func NewRuntime(dir string, opts ...Option) *Runtime {
	r := &Runtime{dir: dir}
	for _, opt := range opts {
		opt(r)
	}
	if r.fsys == nil && dir != "" {
		r.fsys = os.DirFS(dir)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Load discovers and compiles every rule script, sorted by path. A script
// that does not compile is logged and left out.
func (r *Runtime) Load() error {
	if r.fsys == nil {
		return nil
	}
	paths, err := doublestar.Glob(r.fsys, "**/*.risor")
	if err != nil {
		return fmt.Errorf("rules: listing scripts: %w", err)
	}
	sort.Strings(paths)

	scripts := make([]script, 0, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, "lib/") {
			continue
		}
		data, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			return fmt.Errorf("rules: loading script %s: %w", p, err)
		}
		code, err := r.compile(string(data), p)
		if err != nil {
			r.logger.Warn("rule script failed", slog.String("script", p), slog.String("error", err.Error()))
			continue
		}
		scripts = append(scripts, script{path: p, code: code})
	}
	r.scripts = scripts
	r.logger.Debug("loaded rule scripts", slog.Int("count", len(scripts)))
	return nil
}

// Scripts returns the loaded script paths.
func (r *Runtime) Scripts() []string {
	out := make([]string, len(r.scripts))
	for i, s := range r.scripts {
		out[i] = s.path
	}
	return out
}

// Evaluate runs every loaded script against in and merges their output.
// A failing script is logged and skipped.
func (r *Runtime) Evaluate(ctx context.Context, in Input) Output {
	var out Output
	for _, s := range r.scripts {
		got, err := r.run(ctx, s.code, s.path, in)
		if err != nil {
			r.logger.Warn("rule script failed",
				slog.String("script", s.path),
				slog.Int64("symbol_id", in.Symbol.ID),
				slog.String("error", err.Error()))
			continue
		}
		out.merge(got)
	}
	return out
}

// RunSource executes Risor source directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, in Input) (Output, error) {
	code, err := r.compile(source, "<inline>")
	if err != nil {
		return Output{}, err
	}
	return r.run(ctx, code, "<inline>", in)
}

// compile parses and compiles source against the global names every run
// provides. Compiled code is immutable and shared across runs.
func (r *Runtime) compile(source, label string) (*compiler.Code, error) {
	cfg := risor.NewConfig(r.options(r.buildGlobals(Input{}, &Output{}))...)
	ast, err := parser.Parse(context.Background(), source, parser.WithFile(label))
	if err != nil {
		return nil, fmt.Errorf("rules: script %s: %w", label, err)
	}
	code, err := compiler.Compile(ast, cfg.CompilerOpts()...)
	if err != nil {
		return nil, fmt.Errorf("rules: script %s: %w", label, err)
	}
	return code, nil
}

func (r *Runtime) run(ctx context.Context, code *compiler.Code, label string, in Input) (Output, error) {
	var out Output
	if _, err := risor.EvalCode(ctx, code, r.options(r.buildGlobals(in, &out))...); err != nil {
		return Output{}, fmt.Errorf("rules: script %s: %w", label, err)
	}
	return out, nil
}

func (r *Runtime) options(globals map[string]any) []risor.Option {
	opts := make([]risor.Option, 0, len(globals)+1)
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}
	return opts
}

// buildImporter lets rule scripts import helpers from the rules directory.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	if r.fsys == nil {
		return nil
	}
	names := make([]string, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	return importer.NewFSImporter(importer.FSImporterOptions{
		GlobalNames: names,
		SourceFS:    r.fsys,
		Extensions:  []string{".risor"},
	})
}

func (r *Runtime) buildGlobals(in Input, out *Output) map[string]any {
	return map[string]any{
		"symbol":       symbolObject(in.Symbol),
		"change_kind":  object.NewString(in.ChangeKind),
		"severity":     object.NewFloat(in.Severity),
		"depth":        object.NewInt(int64(in.Depth)),
		"add_action":   makeCollectFn("add_action", &out.Actions),
		"add_testing":  makeCollectFn("add_testing", &out.Testing),
		"add_reviewer": makeCollectFn("add_reviewer", &out.Reviewers),
		"log":          mustProxy(&logObject{logger: r.logger}),
	}
}

func symbolObject(s Symbol) *object.Map {
	tags := make([]object.Object, len(s.Tags))
	for i, t := range s.Tags {
		tags[i] = object.NewString(t)
	}
	return object.NewMap(map[string]object.Object{
		"id":             object.NewInt(s.ID),
		"name":           object.NewString(s.Name),
		"qualified_name": object.NewString(s.QualifiedName),
		"kind":           object.NewString(s.Kind),
		"file":           object.NewString(s.FilePath),
		"dir":            object.NewString(path.Dir(s.FilePath)),
		"namespace":      object.NewString(s.Namespace),
		"tags":           object.NewList(tags),
		"usage":          object.NewInt(int64(s.Usage)),
	})
}

// makeCollectFn creates a host function appending its string argument to dst.
//
// add_action(text) → nil
func makeCollectFn(name string, dst *[]string) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError(name, 1, len(args))
		}
		s, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("%s: argument must be a string, got %s", name, args[0].Type())
		}
		if v := strings.TrimSpace(s.Value()); v != "" {
			*dst = append(*dst, v)
		}
		return object.Nil
	})
}

// logObject provides log.Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Info(msg string)  { l.logger.Info(msg, slog.String("source", "rules")) }
func (l *logObject) Warn(msg string)  { l.logger.Warn(msg, slog.String("source", "rules")) }
func (l *logObject) Error(msg string) { l.logger.Error(msg, slog.String("source", "rules")) }

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("rules: proxy error: %v", err))
	}
	return p
}
