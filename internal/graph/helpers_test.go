package graph

import "testing"

func ptr[T any](v T) *T { return &v }

// fn returns a function node with the given id and name.
func fn(id int64, name string) *Node {
	return &Node{ID: id, Name: name, QualifiedName: name, Kind: "function", Confidence: 1}
}

// rel returns a resolved relationship of type t with full confidence.
func rel(id, from, to int64, t RelationType) Relationship {
	return Relationship{ID: id, From: from, To: ptr(to), Type: t, Confidence: 1}
}

// callGraph builds a graph of function nodes 1..n joined by calls edges.
func callGraph(t *testing.T, n int64, edges ...[2]int64) *Graph {
	t.Helper()
	var nodes []*Node
	for id := int64(1); id <= n; id++ {
		nodes = append(nodes, fn(id, string(rune('A'+id-1))))
	}
	var rels []Relationship
	for i, e := range edges {
		rels = append(rels, rel(int64(i+1), e[0], e[1], RelCalls))
	}
	return Build(nodes, rels, DefaultMinConfidence)
}
