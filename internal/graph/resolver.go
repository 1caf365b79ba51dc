package graph

import "log/slog"

// Binding ties an unresolved relationship to the symbol it names.
type Binding struct {
	RelationshipID int64
	SymbolID       int64
}

// Resolver binds textual relationship targets against a SymbolIndex.
type Resolver struct {
	index  *SymbolIndex
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger discards output.
func NewResolver(index *SymbolIndex, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{index: index, logger: logger}
}

// Resolve returns a binding for every pending relationship whose target
// name matches an indexed symbol. Relationships already bound, and names
// that match nothing, are skipped; unmatched names are not an error.
func (r *Resolver) Resolve(pending []Relationship) []Binding {
	bindings := make([]Binding, 0, len(pending))
	for _, rel := range pending {
		if rel.To != nil {
			continue
		}
		from, _ := r.index.Node(rel.From)
		id, ok := r.index.Resolve(rel.ToName, from)
		if !ok {
			r.logger.Debug("unresolved reference",
				slog.Int64("relationship_id", rel.ID),
				slog.String("name", rel.ToName))
			continue
		}
		bindings = append(bindings, Binding{RelationshipID: rel.ID, SymbolID: id})
	}
	return bindings
}
