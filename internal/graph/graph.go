package graph

import (
	"encoding/binary"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Graph is an immutable dependency snapshot. forward[a] holds what a depends
// on, reverse[b] what depends on b, and b ∈ forward[a] ⇔ a ∈ reverse[b].
// All neighbor lists are sorted by ascending id. A Graph is safe for
// concurrent reads.
type Graph struct {
	nodes map[int64]*Node
	ids   []int64

	forward map[int64]map[int64]RelationType
	reverse map[int64]map[int64]RelationType

	fwdSorted  map[int64][]int64
	revSorted  map[int64][]int64
	callSorted map[int64][]int64

	edgeCount   int
	fingerprint uint64
}

// Node returns the node with the given id.
func (g *Graph) Node(id int64) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node ordered by id.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// IDs returns every node id in ascending order.
func (g *Graph) IDs() []int64 { return slices.Clone(g.ids) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.ids) }

// EdgeCount returns the number of distinct (from, to) pairs.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Dependencies returns what id depends on.
func (g *Graph) Dependencies(id int64) []int64 { return slices.Clone(g.fwdSorted[id]) }

// Dependents returns what depends on id.
func (g *Graph) Dependents(id int64) []int64 { return slices.Clone(g.revSorted[id]) }

// Callees returns the targets of id's calls edges.
func (g *Graph) Callees(id int64) []int64 { return slices.Clone(g.callSorted[id]) }

// DependentCount returns the reverse in-degree of id.
func (g *Graph) DependentCount(id int64) int { return len(g.revSorted[id]) }

// DependencyCount returns the forward out-degree of id.
func (g *Graph) DependencyCount(id int64) int { return len(g.fwdSorted[id]) }

// EdgeTypes returns the set of relationship types from a to b, or 0.
func (g *Graph) EdgeTypes(from, to int64) RelationType {
	return g.forward[from][to]
}

// HasCaller reports whether any calls edge targets id.
func (g *Graph) HasCaller(id int64) bool {
	for _, t := range g.reverse[id] {
		if t.Has(RelCalls) {
			return true
		}
	}
	return false
}

// Fingerprint identifies the snapshot's node and edge sets. Two graphs built
// from the same admitted input share a fingerprint.
func (g *Graph) Fingerprint() uint64 { return g.fingerprint }

func (g *Graph) freeze() {
	g.ids = make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		g.ids = append(g.ids, id)
	}
	slices.Sort(g.ids)

	g.fwdSorted = sortedAdjacency(g.forward)
	g.revSorted = sortedAdjacency(g.reverse)
	g.callSorted = make(map[int64][]int64)
	for from, ids := range g.fwdSorted {
		for _, to := range ids {
			if g.forward[from][to].Has(RelCalls) {
				g.callSorted[from] = append(g.callSorted[from], to)
			}
		}
	}

	h := xxhash.New()
	var buf [8]byte
	write := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	for _, id := range g.ids {
		write(uint64(id))
		for _, to := range g.fwdSorted[id] {
			write(uint64(to))
			write(uint64(g.forward[id][to]))
		}
	}
	g.fingerprint = h.Sum64()
}

func sortedAdjacency(adj map[int64]map[int64]RelationType) map[int64][]int64 {
	out := make(map[int64][]int64, len(adj))
	for id, set := range adj {
		ids := make([]int64, 0, len(set))
		for n := range set {
			ids = append(ids, n)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		out[id] = ids
	}
	return out
}
