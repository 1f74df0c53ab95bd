package graph

import (
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/util"
)

// Components is the strongly connected component partition of a graph.
type Components struct {
	// Of maps every node to its component.
	Of []datastructure.ComponentID
	// Size is the number of nodes per component.
	Size []int
}

func (c Components) Count() int {
	return len(c.Size)
}

func (c Components) SizeOf(n datastructure.NodeID) int {
	return c.Size[c.Of[n]]
}

// StronglyConnectedComponents runs Kosaraju's algorithm. Components are
// numbered in the order the second pass discovers them.
func StronglyConnectedComponents[T any](g *StaticGraph[T]) Components {
	n := g.NumberOfNodes()

	order := make([]datastructure.NodeID, 0, n)
	visited := make([]bool, n)
	for v := 0; v < n; v++ {
		if !visited[v] {
			order = g.dfs(datastructure.NodeID(v), visited, order, g.firstEdge, g.targets)
		}
	}
	order = util.ReverseG(order)

	revFirst, revTargets := g.reverseAdjacency()

	components := Components{Of: make([]datastructure.ComponentID, n), Size: make([]int, 0)}
	visited = make([]bool, n)
	component := make([]datastructure.NodeID, 0)
	for _, v := range order {
		if visited[v] {
			continue
		}
		component = g.dfs(v, visited, component[:0], revFirst, revTargets)
		id := datastructure.ComponentID(len(components.Size))
		for _, node := range component {
			components.Of[node] = id
		}
		components.Size = append(components.Size, len(component))
	}

	return components
}

type dfsFrame struct {
	node datastructure.NodeID
	next datastructure.EdgeID
}

// dfs appends nodes reachable from start in post order.
func (g *StaticGraph[T]) dfs(start datastructure.NodeID, visited []bool, output []datastructure.NodeID,
	firstEdge []datastructure.EdgeID, targets []datastructure.NodeID) []datastructure.NodeID {
	visited[start] = true
	stack := []dfsFrame{{node: start, next: firstEdge[start]}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < firstEdge[top.node+1] {
			to := targets[top.next]
			top.next++
			if !visited[to] {
				visited[to] = true
				stack = append(stack, dfsFrame{node: to, next: firstEdge[to]})
			}
			continue
		}
		output = append(output, top.node)
		stack = stack[:len(stack)-1]
	}
	return output
}

func (g *StaticGraph[T]) reverseAdjacency() ([]datastructure.EdgeID, []datastructure.NodeID) {
	n := g.NumberOfNodes()
	first := make([]datastructure.EdgeID, n+1)
	for _, to := range g.targets {
		first[to+1]++
	}
	for v := 1; v <= n; v++ {
		first[v] += first[v-1]
	}

	pos := make([]datastructure.EdgeID, n)
	copy(pos, first[:n])
	targets := make([]datastructure.NodeID, len(g.targets))
	for from := 0; from < n; from++ {
		for e := g.firstEdge[from]; e < g.firstEdge[from+1]; e++ {
			to := g.targets[e]
			targets[pos[to]] = datastructure.NodeID(from)
			pos[to]++
		}
	}
	return first, targets
}
