package graph

import "github.com/warxhead1/ripple/internal/store"

// NodesFromSymbols converts stored symbols to graph nodes.
func NodesFromSymbols(syms []*store.Symbol) []*Node {
	nodes := make([]*Node, 0, len(syms))
	for _, s := range syms {
		nodes = append(nodes, &Node{
			ID:            s.ID,
			Name:          s.Name,
			QualifiedName: s.QualifiedName,
			Kind:          s.Kind,
			FilePath:      s.FilePath,
			Line:          s.Line,
			Column:        s.Column,
			Namespace:     s.Namespace,
			ParentID:      s.ParentSymbolID,
			Tags:          s.Tags,
			Confidence:    s.Confidence,
		})
	}
	return nodes
}

// RelationshipsFromStore converts stored relationships to builder input.
func RelationshipsFromStore(rels []*store.Relationship) []Relationship {
	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		t, _ := ParseRelationType(r.Type)
		rel := Relationship{
			ID:         r.ID,
			From:       r.FromSymbolID,
			To:         r.ToSymbolID,
			ToName:     r.ToName,
			Type:       t,
			Confidence: r.Confidence,
		}
		if r.ContextLine != nil || r.ContextSnippet != "" {
			ctx := &EdgeContext{Snippet: r.ContextSnippet}
			if r.ContextLine != nil {
				ctx.Line = *r.ContextLine
			}
			if r.ContextColumn != nil {
				ctx.Column = *r.ContextColumn
			}
			rel.Context = ctx
		}
		out = append(out, rel)
	}
	return out
}
