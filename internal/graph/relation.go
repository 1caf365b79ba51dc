package graph

import (
	"strings"
)

// RelationType is one of the fixed relationship kinds a parser can emit.
// Values are distinct bits so a set of types between two symbols fits in a
// single RelationType.
type RelationType uint16

const (
	RelCalls RelationType = 1 << iota
	RelUses
	RelCreates
	RelInherits
	RelReadsField
	RelWritesField
	RelInitializesField
	RelDependsOn
	// RelOther covers parser types outside the fixed set. They still count
	// as dependencies but never as calls.
	RelOther
)

var relationNames = []struct {
	t    RelationType
	name string
}{
	{RelCalls, "calls"},
	{RelUses, "uses"},
	{RelCreates, "creates"},
	{RelInherits, "inherits"},
	{RelReadsField, "reads_field"},
	{RelWritesField, "writes_field"},
	{RelInitializesField, "initializes_field"},
	{RelDependsOn, "depends_on"},
	{RelOther, "other"},
}

// ParseRelationType maps a stored relationship type to its RelationType.
// Unknown names map to RelOther with ok=false.
func ParseRelationType(s string) (RelationType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, rn := range relationNames {
		if rn.name == s && rn.t != RelOther {
			return rn.t, true
		}
	}
	return RelOther, false
}

// Has reports whether every bit of other is set in t.
func (t RelationType) Has(other RelationType) bool {
	return other != 0 && t&other == other
}

// String renders a single type by name and a set as "a|b".
func (t RelationType) String() string {
	if t == 0 {
		return "none"
	}
	var parts []string
	for _, rn := range relationNames {
		if t&rn.t != 0 {
			parts = append(parts, rn.name)
		}
	}
	return strings.Join(parts, "|")
}

// EdgeContext locates the source text that produced a relationship.
type EdgeContext struct {
	Line    int
	Column  int
	Snippet string
}

// Relationship is a parser fact as seen by the graph builder. To is nil
// while the target is still an unresolved name.
type Relationship struct {
	ID         int64
	From       int64
	To         *int64
	ToName     string
	Type       RelationType
	Confidence float64
	Context    *EdgeContext
}

// Node is the read-only view of a symbol held by the graph.
type Node struct {
	ID            int64
	Name          string
	QualifiedName string
	Kind          string
	FilePath      string
	Line          int
	Column        int
	Namespace     string
	ParentID      *int64
	Tags          []string
	Confidence    float64
}

// HasTag reports whether the node carries tag, case-insensitively.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// DisplayName prefers the qualified name.
func (n *Node) DisplayName() string {
	if n.QualifiedName != "" {
		return n.QualifiedName
	}
	return n.Name
}
