package graph_test

import (
	"testing"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

type edgeWeight struct {
	Weight int32
}

func newGraph(numNodes int, pairs [][2]datastructure.NodeID) *graph.StaticGraph[edgeWeight] {
	edges := make([]graph.InputEdge[edgeWeight], 0, len(pairs))
	for i, p := range pairs {
		edges = append(edges, graph.NewInputEdge(p[0], p[1], edgeWeight{Weight: int32(i)}))
	}
	return graph.NewStaticGraph(numNodes, edges)
}

func TestFindEdgeSingleEdge(t *testing.T) {
	g := newGraph(3, [][2]datastructure.NodeID{{0, 1}})

	e, ok := g.FindEdge(0, 1)
	assert.True(t, ok)
	assert.Equal(t, datastructure.EdgeID(0), e)

	_, ok = g.FindEdge(1, 0)
	assert.False(t, ok)

	e, ok = g.FindEdgeInEitherDirection(1, 0)
	assert.True(t, ok)
	assert.Equal(t, datastructure.EdgeID(0), e)

	match := g.FindEdgeIndicateIfReverse(1, 0)
	assert.Equal(t, graph.EdgeMatch{Edge: 0, Found: true, Reverse: true}, match)

	match = g.FindEdgeIndicateIfReverse(0, 1)
	assert.Equal(t, graph.EdgeMatch{Edge: 0, Found: true, Reverse: false}, match)

	match = g.FindEdgeIndicateIfReverse(0, 2)
	assert.False(t, match.Found)
}

func TestFindEdgePrefersForward(t *testing.T) {
	g := newGraph(2, [][2]datastructure.NodeID{{1, 0}, {0, 1}})

	e, ok := g.FindEdgeInEitherDirection(0, 1)
	require.True(t, ok)
	assert.Equal(t, datastructure.NodeID(1), g.Target(e))
	assert.Equal(t, datastructure.NodeID(0), g.Source(e))
}

func TestAdjacencyProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	numNodes := 200
	pairs := make([][2]datastructure.NodeID, 0)
	for i := 0; i < 1500; i++ {
		pairs = append(pairs, [2]datastructure.NodeID{
			datastructure.NodeID(rng.Intn(numNodes)), datastructure.NodeID(rng.Intn(numNodes)),
		})
	}
	g := newGraph(numNodes, pairs)

	assert.Equal(t, numNodes, g.NumberOfNodes())
	assert.Equal(t, len(pairs), g.NumberOfEdges())

	total := 0
	for n := datastructure.NodeID(0); int(n) < numNodes; n++ {
		begin, end := g.BeginEdges(n), g.EndEdges(n)
		assert.LessOrEqual(t, begin, end)
		assert.Equal(t, datastructure.NewEdgeRange(begin, end), g.AdjacentEdgeRange(n))
		assert.Equal(t, int(end-begin), g.OutDegree(n))
		total += g.OutDegree(n)

		for e := begin; e < end; e++ {
			assert.Less(t, int(g.Target(e)), numNodes)
			assert.Equal(t, n, g.Source(e))
		}
	}
	assert.Equal(t, g.NumberOfEdges(), total)

	for i := 0; i < 500; i++ {
		a := datastructure.NodeID(rng.Intn(numNodes))
		b := datastructure.NodeID(rng.Intn(numNodes))

		e, ok := g.FindEdge(a, b)
		expected := false
		for _, p := range pairs {
			if p[0] == a && p[1] == b {
				expected = true
			}
		}
		assert.Equal(t, expected, ok)
		if ok {
			assert.Equal(t, b, g.Target(e))
			assert.True(t, g.AdjacentEdgeRange(a).Contains(e))
		}

		_, forward := g.FindEdge(a, b)
		_, backward := g.FindEdge(b, a)
		_, either := g.FindEdgeInEitherDirection(a, b)
		assert.Equal(t, forward || backward, either)
	}
}

func TestEdgeOrderIsStablePerSource(t *testing.T) {
	g := newGraph(3, [][2]datastructure.NodeID{{2, 0}, {0, 1}, {2, 1}, {0, 2}})

	assert.Equal(t, edgeWeight{Weight: 1}, g.EdgeData(0))
	assert.Equal(t, edgeWeight{Weight: 3}, g.EdgeData(1))
	assert.Equal(t, edgeWeight{Weight: 0}, g.EdgeData(2))
	assert.Equal(t, edgeWeight{Weight: 2}, g.EdgeData(3))
	assert.Equal(t, 0, g.OutDegree(1))
}

func TestOutOfRangePanics(t *testing.T) {
	g := newGraph(3, [][2]datastructure.NodeID{{0, 1}})

	assert.PanicsWithValue(t, "node id 3 out of range [0, 3)", func() { g.OutDegree(3) })
	assert.PanicsWithValue(t, "edge id 1 out of range [0, 1)", func() { g.Target(1) })
	assert.Panics(t, func() { g.FindEdge(7, 0) })
}

func TestFromAdjacency(t *testing.T) {
	g := newGraph(3, [][2]datastructure.NodeID{{0, 1}, {1, 2}, {2, 0}})

	loaded, err := graph.FromAdjacency(g.FirstEdges(), g.Targets(), g.Data())
	require.NoError(t, err)
	assert.Equal(t, g.NumberOfEdges(), loaded.NumberOfEdges())

	_, err = graph.FromAdjacency([]datastructure.EdgeID{0, 1}, []datastructure.NodeID{5}, []edgeWeight{{}})
	assert.ErrorIs(t, err, graph.ErrInvalidAdjacency)

	_, err = graph.FromAdjacency([]datastructure.EdgeID{0, 2}, []datastructure.NodeID{0}, []edgeWeight{{}})
	assert.ErrorIs(t, err, graph.ErrInvalidAdjacency)
}

func TestKosarajuSCC(t *testing.T) {
	g := newGraph(5, [][2]datastructure.NodeID{
		{0, 1}, {1, 2}, {1, 4}, {2, 3}, {3, 2}, {4, 0},
	})

	scc := graph.StronglyConnectedComponents(g)
	assert.Equal(t, 2, scc.Count())
	assert.Equal(t, 3, scc.Size[0])
	assert.Equal(t, 2, scc.Size[1])

	assert.Equal(t, scc.Of[0], scc.Of[1])
	assert.Equal(t, scc.Of[0], scc.Of[4])
	assert.Equal(t, scc.Of[2], scc.Of[3])
	assert.NotEqual(t, scc.Of[0], scc.Of[2])
	assert.Equal(t, 3, scc.SizeOf(4))
}

func TestKosarajuSCCLongPath(t *testing.T) {
	n := 200000
	pairs := make([][2]datastructure.NodeID, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, [2]datastructure.NodeID{datastructure.NodeID(i), datastructure.NodeID((i + 1) % n)})
	}
	scc := graph.StronglyConnectedComponents(newGraph(n, pairs))
	assert.Equal(t, 1, scc.Count())
	assert.Equal(t, n, scc.Size[0])
}
