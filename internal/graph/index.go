package graph

import (
	"sort"
	"strings"
)

// SymbolIndex maps names to symbol ids for one snapshot.
//
// Qualified names are keyed first. A simple name is then keyed for the
// lowest-id symbol carrying it, unless that string is already a qualified
// name; later symbols with a colliding simple name never overwrite it.
type SymbolIndex struct {
	nodes       map[int64]*Node
	byQualified map[string]int64
	bySimple    map[string]int64
	candidates  map[string][]int64 // simple name -> ids ascending
}

// NewSymbolIndex indexes nodes. Input order does not matter.
func NewSymbolIndex(nodes []*Node) *SymbolIndex {
	sorted := make([]*Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ix := &SymbolIndex{
		nodes:       make(map[int64]*Node, len(nodes)),
		byQualified: make(map[string]int64, len(nodes)),
		bySimple:    make(map[string]int64, len(nodes)),
		candidates:  make(map[string][]int64, len(nodes)),
	}
	for _, n := range sorted {
		ix.nodes[n.ID] = n
		if n.QualifiedName == "" {
			continue
		}
		if _, ok := ix.byQualified[n.QualifiedName]; !ok {
			ix.byQualified[n.QualifiedName] = n.ID
		}
	}
	for _, n := range sorted {
		if n.Name == "" {
			continue
		}
		ix.candidates[n.Name] = append(ix.candidates[n.Name], n.ID)
		if _, ok := ix.byQualified[n.Name]; ok {
			continue
		}
		if _, ok := ix.bySimple[n.Name]; !ok {
			ix.bySimple[n.Name] = n.ID
		}
	}
	return ix
}

// Len returns the number of indexed symbols.
func (ix *SymbolIndex) Len() int { return len(ix.nodes) }

// Node returns the indexed node with the given id.
func (ix *SymbolIndex) Node(id int64) (*Node, bool) {
	n, ok := ix.nodes[id]
	return n, ok
}

// Lookup resolves name through the qualified map and then the simple-name
// fallback, without regard to where the reference comes from.
func (ix *SymbolIndex) Lookup(name string) (int64, bool) {
	if id, ok := ix.byQualified[name]; ok {
		return id, true
	}
	id, ok := ix.bySimple[name]
	return id, ok
}

// Resolve binds a textual target seen in from's code to a symbol id.
// An exact qualified match wins. A partially qualified target such as
// Renderer::draw binds only to symbols whose qualified name ends with it on
// a separator boundary. A bare target considers every symbol with that
// simple name. Candidates are ranked: same file as from, then same
// namespace, then lowest id.
func (ix *SymbolIndex) Resolve(name string, from *Node) (int64, bool) {
	if name == "" {
		return 0, false
	}
	if id, ok := ix.byQualified[name]; ok {
		return id, true
	}
	cands := ix.candidates[name]
	if len(cands) == 0 {
		if seg := lastSegment(name); seg != name {
			cands = ix.qualifiedSuffixMatches(ix.candidates[seg], name)
		}
	}
	switch {
	case len(cands) == 0:
		return 0, false
	case len(cands) == 1 || from == nil:
		return cands[0], true
	}

	if from.FilePath != "" {
		for _, id := range cands {
			if ix.nodes[id].FilePath == from.FilePath {
				return id, true
			}
		}
	}
	if ns := namespaceOf(from); ns != "" {
		for _, id := range cands {
			if namespaceOf(ix.nodes[id]) == ns {
				return id, true
			}
		}
	}
	return cands[0], true
}

// Names returns every distinct simple and qualified name, sorted.
func (ix *SymbolIndex) Names() []string {
	seen := make(map[string]struct{}, len(ix.byQualified)+len(ix.candidates))
	for name := range ix.byQualified {
		seen[name] = struct{}{}
	}
	for name := range ix.candidates {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// namespaceOf returns the declared namespace, or the qualifier of the
// qualified name when none was recorded.
func namespaceOf(n *Node) string {
	if n.Namespace != "" {
		return n.Namespace
	}
	q := n.QualifiedName
	for _, sep := range []string{"::", "."} {
		if i := strings.LastIndex(q, sep); i > 0 {
			return q[:i]
		}
	}
	return ""
}

// qualifiedSuffixMatches keeps the ids whose qualified name ends with
// target preceded by a separator.
func (ix *SymbolIndex) qualifiedSuffixMatches(ids []int64, target string) []int64 {
	var out []int64
	for _, id := range ids {
		q := ix.nodes[id].QualifiedName
		if !strings.HasSuffix(q, target) {
			continue
		}
		prefix := q[:len(q)-len(target)]
		for _, sep := range []string{"::", ".", "->"} {
			if strings.HasSuffix(prefix, sep) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

func lastSegment(name string) string {
	seg := name
	for _, sep := range []string{"::", ".", "->"} {
		if i := strings.LastIndex(seg, sep); i >= 0 {
			seg = seg[i+len(sep):]
		}
	}
	return seg
}
