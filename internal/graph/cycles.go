package graph

import "slices"

const (
	unvisited uint8 = iota
	onStack
	done
)

type cycleFrame struct {
	id   int64
	next int
}

// FindCycles reports every cycle closed by a back edge during a depth-first
// search over all dependency edges, roots taken in ascending id order. Each
// cycle lists its members in traversal order starting at the node the back
// edge points to. A self-loop is a cycle of one. Returns an empty slice for
// an acyclic graph.
func FindCycles(g *Graph) [][]int64 {
	cycles := [][]int64{}
	state := make(map[int64]uint8, len(g.ids))
	pos := make(map[int64]int)
	var path []int64

	for _, root := range g.ids {
		if state[root] != unvisited {
			continue
		}
		state[root] = onStack
		pos[root] = len(path)
		path = append(path, root)
		stack := []cycleFrame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.fwdSorted[top.id]
			if top.next >= len(deps) {
				state[top.id] = done
				delete(pos, top.id)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}
			dep := deps[top.next]
			top.next++
			switch state[dep] {
			case unvisited:
				state[dep] = onStack
				pos[dep] = len(path)
				path = append(path, dep)
				stack = append(stack, cycleFrame{id: dep})
			case onStack:
				cycles = append(cycles, slices.Clone(path[pos[dep]:]))
			}
		}
	}
	return cycles
}
