package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/util"
)

var (
	ErrInvalidAdjacency = errors.New("invalid adjacency array")
)

type InputEdge[T any] struct {
	Source datastructure.NodeID
	Target datastructure.NodeID
	Data   T
}

func NewInputEdge[T any](source, target datastructure.NodeID, data T) InputEdge[T] {
	return InputEdge[T]{Source: source, Target: target, Data: data}
}

// StaticGraph is an immutable directed multigraph in compressed sparse row
// form. The out edges of node n are the ids [FirstEdge[n], FirstEdge[n+1]).
type StaticGraph[T any] struct {
	firstEdge []datastructure.EdgeID
	targets   []datastructure.NodeID
	data      []T
}

// NewStaticGraph builds the graph from an edge list. Edges keep their input
// order within each source node.
func NewStaticGraph[T any](numNodes int, edges []InputEdge[T]) *StaticGraph[T] {
	sorted := make([]InputEdge[T], len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Source < sorted[j].Source
	})

	g := &StaticGraph[T]{
		firstEdge: make([]datastructure.EdgeID, numNodes+1),
		targets:   make([]datastructure.NodeID, len(sorted)),
		data:      make([]T, len(sorted)),
	}

	for i, e := range sorted {
		if int(e.Source) >= numNodes || int(e.Target) >= numNodes {
			panic(fmt.Sprintf("edge %d->%d references a node outside [0, %d)", e.Source, e.Target, numNodes))
		}
		g.firstEdge[e.Source+1]++
		g.targets[i] = e.Target
		g.data[i] = e.Data
	}
	for n := 1; n <= numNodes; n++ {
		g.firstEdge[n] += g.firstEdge[n-1]
	}

	return g
}

// FromAdjacency wraps already laid out arrays, as read back from storage.
func FromAdjacency[T any](firstEdge []datastructure.EdgeID, targets []datastructure.NodeID, data []T) (*StaticGraph[T], error) {
	if len(firstEdge) == 0 {
		return nil, fmt.Errorf("%w: empty first edge array", ErrInvalidAdjacency)
	}
	if len(targets) != len(data) {
		return nil, fmt.Errorf("%w: %d targets but %d edge payloads", ErrInvalidAdjacency, len(targets), len(data))
	}
	if firstEdge[0] != 0 || int(firstEdge[len(firstEdge)-1]) != len(targets) {
		return nil, fmt.Errorf("%w: first edge array does not span [0, %d)", ErrInvalidAdjacency, len(targets))
	}

	numNodes := len(firstEdge) - 1
	for n := 1; n < len(firstEdge); n++ {
		if firstEdge[n] < firstEdge[n-1] {
			return nil, fmt.Errorf("%w: first edge of node %d decreases", ErrInvalidAdjacency, n)
		}
	}
	for e, target := range targets {
		if int(target) >= numNodes {
			return nil, fmt.Errorf("%w: edge %d targets node %d outside [0, %d)", ErrInvalidAdjacency, e, target, numNodes)
		}
	}

	return &StaticGraph[T]{firstEdge: firstEdge, targets: targets, data: data}, nil
}

func (g *StaticGraph[T]) checkNode(n datastructure.NodeID) {
	if int(n) >= g.NumberOfNodes() {
		panic(fmt.Sprintf("node id %d out of range [0, %d)", n, g.NumberOfNodes()))
	}
}

func (g *StaticGraph[T]) checkEdge(e datastructure.EdgeID) {
	if int(e) >= g.NumberOfEdges() {
		panic(fmt.Sprintf("edge id %d out of range [0, %d)", e, g.NumberOfEdges()))
	}
}

func (g *StaticGraph[T]) NumberOfNodes() int {
	return len(g.firstEdge) - 1
}

func (g *StaticGraph[T]) NumberOfEdges() int {
	return len(g.targets)
}

func (g *StaticGraph[T]) OutDegree(n datastructure.NodeID) int {
	g.checkNode(n)
	return int(g.firstEdge[n+1] - g.firstEdge[n])
}

func (g *StaticGraph[T]) Target(e datastructure.EdgeID) datastructure.NodeID {
	g.checkEdge(e)
	return g.targets[e]
}

// Source finds the node owning e by binary search over the first edge array.
func (g *StaticGraph[T]) Source(e datastructure.EdgeID) datastructure.NodeID {
	g.checkEdge(e)
	return datastructure.NodeID(util.UpperBound(g.firstEdge, e) - 1)
}

// EdgeData returns a copy of the edge payload.
func (g *StaticGraph[T]) EdgeData(e datastructure.EdgeID) T {
	g.checkEdge(e)
	return g.data[e]
}

func (g *StaticGraph[T]) BeginEdges(n datastructure.NodeID) datastructure.EdgeID {
	g.checkNode(n)
	return g.firstEdge[n]
}

func (g *StaticGraph[T]) EndEdges(n datastructure.NodeID) datastructure.EdgeID {
	g.checkNode(n)
	return g.firstEdge[n+1]
}

func (g *StaticGraph[T]) AdjacentEdgeRange(n datastructure.NodeID) datastructure.EdgeRange {
	return datastructure.NewEdgeRange(g.BeginEdges(n), g.EndEdges(n))
}

// FindEdge returns the first out edge of from that targets to.
func (g *StaticGraph[T]) FindEdge(from, to datastructure.NodeID) (datastructure.EdgeID, bool) {
	g.checkNode(to)
	for e := g.BeginEdges(from); e < g.EndEdges(from); e++ {
		if g.targets[e] == to {
			return e, true
		}
	}
	return datastructure.InvalidEdgeID, false
}

// FindEdgeInEitherDirection prefers from->to over to->from.
func (g *StaticGraph[T]) FindEdgeInEitherDirection(from, to datastructure.NodeID) (datastructure.EdgeID, bool) {
	if e, ok := g.FindEdge(from, to); ok {
		return e, true
	}
	return g.FindEdge(to, from)
}

// EdgeMatch is the result of FindEdgeIndicateIfReverse. Reverse is set when
// the edge runs to->from.
type EdgeMatch struct {
	Edge    datastructure.EdgeID
	Found   bool
	Reverse bool
}

func (g *StaticGraph[T]) FindEdgeIndicateIfReverse(from, to datastructure.NodeID) EdgeMatch {
	if e, ok := g.FindEdge(from, to); ok {
		return EdgeMatch{Edge: e, Found: true}
	}
	if e, ok := g.FindEdge(to, from); ok {
		return EdgeMatch{Edge: e, Found: true, Reverse: true}
	}
	return EdgeMatch{Edge: datastructure.InvalidEdgeID}
}

// FirstEdges exposes the raw first edge array for serialization.
func (g *StaticGraph[T]) FirstEdges() []datastructure.EdgeID {
	return g.firstEdge
}

func (g *StaticGraph[T]) Targets() []datastructure.NodeID {
	return g.targets
}

func (g *StaticGraph[T]) Data() []T {
	return g.data
}
