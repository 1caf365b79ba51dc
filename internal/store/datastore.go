package store

// Source is the read and write-back contract the analysis engine needs from
// a symbol store. Store implements it over SQLite.
type Source interface {
	AllSymbols(projectID int64) ([]*Symbol, error)
	Relationships(projectID int64, minConfidence float64) ([]*Relationship, error)
	UnresolvedRelationships(projectID int64) ([]*Relationship, error)
	UpdateResolvedTarget(relationshipID, symbolID int64) error
	ApplyResolutions(bindings []Resolution) (int, error)
}

// Compile-time check: *Store satisfies Source.
var _ Source = (*Store)(nil)
