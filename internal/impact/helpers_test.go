package impact

import (
	"testing"

	"github.com/warxhead1/ripple/internal/graph"
)

func ptr[T any](v T) *T { return &v }

func node(id int64, name string, tags ...string) *graph.Node {
	return &graph.Node{ID: id, Name: name, QualifiedName: name, Kind: "function", Tags: tags, Confidence: 0.9}
}

// dependsOn returns a calls relationship from -> to, meaning from depends on to.
func dependsOn(id, from, to int64) graph.Relationship {
	return graph.Relationship{ID: id, From: from, To: ptr(to), Type: graph.RelCalls, Confidence: 1}
}

// entryMidLeaf builds Entry(1) -> Mid(2) -> Leaf(3).
func entryMidLeaf(t *testing.T) *graph.Graph {
	t.Helper()
	return graph.Build(
		[]*graph.Node{node(1, "Entry"), node(2, "Mid"), node(3, "Leaf")},
		[]graph.Relationship{dependsOn(1, 1, 2), dependsOn(2, 2, 3)},
		graph.DefaultMinConfidence,
	)
}

// chain builds n nodes where node i+1 depends on node i, so node 1 is the
// deepest dependency and node n the outermost dependent.
func chain(t *testing.T, n int64) *graph.Graph {
	t.Helper()
	var nodes []*graph.Node
	var rels []graph.Relationship
	for i := int64(1); i <= n; i++ {
		nodes = append(nodes, node(i, "n"+string(rune('a'+i-1))))
		if i > 1 {
			rels = append(rels, dependsOn(i, i, i-1))
		}
	}
	return graph.Build(nodes, rels, graph.DefaultMinConfidence)
}

func affectedIDs(p *Prediction) []int64 {
	ids := make([]int64, len(p.Affected))
	for i, a := range p.Affected {
		ids[i] = a.SymbolID
	}
	return ids
}

func findAffected(p *Prediction, id int64) *AffectedNode {
	for i := range p.Affected {
		if p.Affected[i].SymbolID == id {
			return &p.Affected[i]
		}
	}
	return nil
}
