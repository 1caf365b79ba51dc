package store

// Project groups the symbols and relationships of one indexed codebase.
type Project struct {
	ID       int64
	Name     string
	RootPath string
}

// Symbol is a named code entity produced by an external parser.
// QualifiedName may be empty when the parser could not qualify it.
type Symbol struct {
	ID             int64
	ProjectID      int64
	Name           string
	QualifiedName  string
	Kind           string
	FilePath       string
	Line           int
	Column         int
	Namespace      string
	ParentSymbolID *int64
	Tags           []string
	Confidence     float64
}

// Relationship is a directed, typed fact between two symbols. Until it is
// resolved, ToSymbolID is nil and ToName holds the textual target.
type Relationship struct {
	ID             int64
	ProjectID      int64
	FromSymbolID   int64
	ToSymbolID     *int64
	ToName         string
	Type           string
	Confidence     float64
	ContextLine    *int
	ContextColumn  *int
	ContextSnippet string
}

// Resolved reports whether the relationship target is bound to a symbol id.
func (r *Relationship) Resolved() bool {
	return r.ToSymbolID != nil
}

// Resolution binds an unresolved relationship to a symbol.
type Resolution struct {
	RelationshipID int64
	SymbolID       int64
}

// CallChain is a persisted execution path rooted at an entry point.
type CallChain struct {
	ID           int64
	ProjectID    int64
	EntryPointID int64
	MaxDepth     int
	Steps        []CallChainStep
}

// CallChainStep is one position in a CallChain. CallerID is nil for the
// entry point itself.
type CallChainStep struct {
	Index    int
	SymbolID int64
	CallerID *int64
	Depth    int
}

// Marker flags a symbol with a finding such as a circular dependency.
type Marker struct {
	ID        int64
	ProjectID int64
	SymbolID  int64
	Marker    string
	Detail    string
}

// MarkerCircularDependency flags members of a dependency cycle.
const MarkerCircularDependency = "circular-dependency"
