package ripple

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/warxhead1/ripple/internal/store"
)

// ErrInvalidImport is returned for import documents that reference unknown
// keys or omit required fields.
var ErrInvalidImport = errors.New("invalid import document")

// ImportDocument is the JSON feed external parsers produce. Symbols are
// referenced by document-local keys; a relationship target is either a key
// (already resolved) or a bare name left for ResolveReferences.
type ImportDocument struct {
	Symbols       []ImportSymbol       `json:"symbols"`
	Relationships []ImportRelationship `json:"relationships"`
}

// ImportSymbol is one parsed symbol.
type ImportSymbol struct {
	Key           string   `json:"key"`
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualified_name,omitempty"`
	Kind          string   `json:"kind"`
	File          string   `json:"file,omitempty"`
	Line          int      `json:"line,omitempty"`
	Column        int      `json:"column,omitempty"`
	Namespace     string   `json:"namespace,omitempty"`
	Parent        string   `json:"parent,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
}

// ImportRelationship is one parsed relationship.
type ImportRelationship struct {
	From       string   `json:"from"`
	To         string   `json:"to,omitempty"`
	ToName     string   `json:"to_name,omitempty"`
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence,omitempty"`
	Line       *int     `json:"line,omitempty"`
	Column     *int     `json:"column,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
}

// ImportResult counts the rows written by Import.
type ImportResult struct {
	Symbols       int `json:"symbols"`
	Relationships int `json:"relationships"`
	Unresolved    int `json:"unresolved"`
}

// Import decodes an ImportDocument from r and writes it in one transaction.
// Missing confidences default to 1.
func (e *Engine) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var doc ImportDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return ImportResult{}, fmt.Errorf("ripple: decode import: %w", err)
	}
	return e.ImportDocument(ctx, &doc)
}

// ImportDocument writes doc in one transaction.
func (e *Engine) ImportDocument(ctx context.Context, doc *ImportDocument) (ImportResult, error) {
	if e.closed.Load() {
		return ImportResult{}, ErrClosed
	}
	batch, res, err := buildBatch(doc)
	if err != nil {
		return ImportResult{}, fmt.Errorf("ripple: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return ImportResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.store.CommitBatch(e.projectID, batch); err != nil {
		return ImportResult{}, fmt.Errorf("ripple: import: %w", err)
	}
	e.invalidate()
	e.logger.Info("import committed",
		slog.String("project", e.project),
		slog.Int("symbols", res.Symbols),
		slog.Int("relationships", res.Relationships))
	return res, nil
}

func buildBatch(doc *ImportDocument) (*store.ImportBatch, ImportResult, error) {
	var res ImportResult
	batch := store.NewImportBatch()
	keys := make(map[string]int64, len(doc.Symbols))

	for i, s := range doc.Symbols {
		if s.Name == "" || s.Kind == "" {
			return nil, res, fmt.Errorf("symbol %d: name and kind are required: %w", i, ErrInvalidImport)
		}
		symConf, err := importConfidence(s.Confidence)
		if err != nil {
			return nil, res, fmt.Errorf("symbol %q: %w", s.Name, err)
		}
		sym := &store.Symbol{
			Name:          s.Name,
			QualifiedName: s.QualifiedName,
			Kind:          s.Kind,
			FilePath:      s.File,
			Line:          s.Line,
			Column:        s.Column,
			Namespace:     s.Namespace,
			Tags:          s.Tags,
			Confidence:    symConf,
		}
		if s.Parent != "" {
			parent, ok := keys[s.Parent]
			if !ok {
				return nil, res, fmt.Errorf("symbol %q: unknown parent %q: %w", s.Name, s.Parent, ErrInvalidImport)
			}
			sym.ParentSymbolID = &parent
		}
		id := batch.AddSymbol(sym)
		if s.Key != "" {
			if _, dup := keys[s.Key]; dup {
				return nil, res, fmt.Errorf("duplicate key %q: %w", s.Key, ErrInvalidImport)
			}
			keys[s.Key] = id
		}
		res.Symbols++
	}

	for i, r := range doc.Relationships {
		from, ok := keys[r.From]
		if !ok {
			return nil, res, fmt.Errorf("relationship %d: unknown from %q: %w", i, r.From, ErrInvalidImport)
		}
		if r.Type == "" || (r.To == "" && r.ToName == "") {
			return nil, res, fmt.Errorf("relationship %d: type and a target are required: %w", i, ErrInvalidImport)
		}
		relConf, err := importConfidence(r.Confidence)
		if err != nil {
			return nil, res, fmt.Errorf("relationship %d: %w", i, err)
		}
		rel := &store.Relationship{
			FromSymbolID:   from,
			ToName:         r.ToName,
			Type:           r.Type,
			Confidence:     relConf,
			ContextLine:    r.Line,
			ContextColumn:  r.Column,
			ContextSnippet: r.Snippet,
		}
		if r.To != "" {
			to, ok := keys[r.To]
			if !ok {
				return nil, res, fmt.Errorf("relationship %d: unknown to %q: %w", i, r.To, ErrInvalidImport)
			}
			rel.ToSymbolID = &to
		} else {
			res.Unresolved++
		}
		batch.AddRelationship(rel)
		res.Relationships++
	}
	return batch, res, nil
}

// importConfidence defaults a missing confidence to 1 and rejects values
// outside [0, 1].
func importConfidence(c *float64) (float64, error) {
	if c == nil {
		return 1, nil
	}
	if !(*c >= 0 && *c <= 1) {
		return 0, fmt.Errorf("confidence %v outside [0, 1]: %w", *c, ErrInvalidImport)
	}
	return *c, nil
}
