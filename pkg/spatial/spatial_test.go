package spatial_test

import (
	"math"
	"sync"
	"testing"

	"github.com/lintang-b-s/roadfacade/pkg/dataset/fixture"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// boxOnlyIndex hides IncrementalNearest to force the expanding radius search.
type boxOnlyIndex struct {
	spatial.SegmentIndex
}

func networkSegments(t *testing.T) []datastructure.RoadSegment {
	d, err := fixture.Network()
	require.NoError(t, err)
	return d.Segments
}

func newQueries(t *testing.T, opts ...spatial.Option) (*spatial.GeospatialQuery, *spatial.GeospatialQuery) {
	idx := spatial.NewRtreeIndex(networkSegments(t), 2, 4)
	return spatial.NewGeospatialQuery(idx, opts...), spatial.NewGeospatialQuery(boxOnlyIndex{idx}, opts...)
}

func segmentAtHeading(id int, heading float64, twoWay bool) datastructure.RoadSegment {
	rad := heading * math.Pi / 180
	seg := datastructure.RoadSegment{
		ForwardEdgeID: datastructure.EdgeID(id),
		ReverseEdgeID: datastructure.InvalidEdgeID,
		Source:        datastructure.NodeID(2 * id),
		Target:        datastructure.NodeID(2*id + 1),
		UCoord:        datastructure.NewFixedPointCoordinate(0, 0),
		VCoord:        datastructure.NewFixedPointCoordinate(0.001*math.Cos(rad), 0.001*math.Sin(rad)),
		EdgeLength:    111,
	}
	if twoWay {
		seg.ReverseEdgeID = datastructure.EdgeID(id + 100)
	}
	return seg
}

func TestNearestPhantomNodesAtNode(t *testing.T) {
	incremental, expanding := newQueries(t)
	coord := fixture.GridCoordinate(1, 1)

	for _, q := range []*spatial.GeospatialQuery{incremental, expanding} {
		results, err := q.NearestPhantomNodes(coord, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)

		p := results[0]
		assert.InDelta(t, 0.0, p.Distance, 0.2)
		node := fixture.GridNode(1, 1)
		assert.True(t, p.ForwardNode == node || p.ReverseNode == node)
		assert.Equal(t, coord, p.Location)
		assert.True(t, p.ForwardEnabled)
		assert.True(t, p.ReverseEnabled)
	}
}

func TestPhantomNodeRatio(t *testing.T) {
	incremental, _ := newQueries(t)
	midpoint := datastructure.NewFixedPointCoordinate(fixture.BaseLat, fixture.BaseLon+fixture.Step/2)

	results, err := incremental.NearestPhantomNodes(midpoint, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, fixture.GridNode(0, 0), results[0].ReverseNode)
	assert.Equal(t, fixture.GridNode(0, 1), results[0].ForwardNode)
	assert.InDelta(t, 0.5, results[0].Ratio, 0.01)
	assert.InDelta(t, 0.0, results[0].Distance, 0.2)
}

func TestNearestPhantomNodesInRange(t *testing.T) {
	incremental, expanding := newQueries(t)
	segments := networkSegments(t)
	coord := datastructure.NewFixedPointCoordinate(fixture.BaseLat+0.0003, fixture.BaseLon+0.0004)
	proj := geo.NewLocalProjection(coord.LatDegrees(), coord.LonDegrees())

	for _, maxDistance := range []float64{0, 40, 120, 250, 5000} {
		expected := 0
		for _, seg := range segments {
			d := proj.ProjectOntoSegment(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees(),
				seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees()).Distance
			if d <= maxDistance {
				expected++
			}
		}

		a, err := incremental.NearestPhantomNodesInRange(coord, maxDistance)
		require.NoError(t, err)
		b, err := expanding.NearestPhantomNodesInRange(coord, maxDistance)
		require.NoError(t, err)

		assert.Len(t, a, expected)
		assert.Equal(t, a, b)
		for i, p := range a {
			assert.LessOrEqual(t, p.Distance, maxDistance)
			if i > 0 {
				assert.LessOrEqual(t, a[i-1].Distance, p.Distance)
			}
		}
	}
}

func TestNearestPhantomNodesPrefixCompatible(t *testing.T) {
	incremental, expanding := newQueries(t)
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 20; i++ {
		coord := datastructure.NewFixedPointCoordinate(fixture.BaseLat+rng.Float64()*0.003, fixture.BaseLon+rng.Float64()*0.003)
		var previous []spatial.PhantomNodeWithDistance
		for k := 1; k <= 8; k++ {
			results, err := incremental.NearestPhantomNodes(coord, k)
			require.NoError(t, err)
			require.Len(t, results, k)
			if k > 1 {
				assert.Equal(t, previous, results[:k-1])
			}

			slow, err := expanding.NearestPhantomNodes(coord, k)
			require.NoError(t, err)
			assert.Equal(t, results, slow)

			previous = results
		}
	}

	// the grid center is equally close to four street pieces
	tied, err := incremental.NearestPhantomNodes(fixture.GridCoordinate(1, 1), 2)
	require.NoError(t, err)
	again, err := incremental.NearestPhantomNodes(fixture.GridCoordinate(1, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, tied, again)
}

func TestBearingFilter(t *testing.T) {
	idx := spatial.NewRtreeIndex([]datastructure.RoadSegment{
		segmentAtHeading(0, 91, false),
		segmentAtHeading(1, 120, false),
		segmentAtHeading(2, 270, true),
	}, 2, 4)
	q := spatial.NewGeospatialQuery(idx)
	coord := datastructure.NewFixedPointCoordinate(0, 0)

	results, err := q.NearestPhantomNodesInRange(coord, 10, spatial.WithBearing(90, 10))
	require.NoError(t, err)
	require.Len(t, results, 2)

	byEdge := map[datastructure.EdgeID]spatial.PhantomNodeWithDistance{}
	for _, p := range results {
		byEdge[p.ForwardEdgeID] = p
	}
	assert.Contains(t, byEdge, datastructure.EdgeID(0))
	assert.NotContains(t, byEdge, datastructure.EdgeID(1))

	// only travelling against the 270 degree segment heads east
	against := byEdge[2]
	assert.False(t, against.ForwardEnabled)
	assert.True(t, against.ReverseEnabled)

	tests := []struct {
		name         string
		bearing      float64
		bearingRange float64
		expected     int
	}{
		{"default is unfiltered", 0, 180, 3},
		{"off default half circle", 0.0001, 180, 1},
		{"full circle", 45, 360, 3},
		{"window covering both eastbound headings", 99, 18.2, 2},
		{"window covering one heading", 100, 19, 1},
		{"nothing heading north", 0, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := q.NearestPhantomNodes(coord, 10, spatial.WithBearing(tt.bearing, tt.bearingRange))
			require.NoError(t, err)
			assert.Len(t, results, tt.expected)
		})
	}
}

func TestNearestWithAlternativeFromBigComponent(t *testing.T) {
	incremental, expanding := newQueries(t)
	island := datastructure.NewFixedPointCoordinate(fixture.BaseLat+10*fixture.Step, fixture.BaseLon+10.5*fixture.Step)

	for _, q := range []*spatial.GeospatialQuery{incremental, expanding} {
		pair, ok, err := q.NearestPhantomNodeWithAlternativeFromBigComponent(island)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, pair.Nearest.Component.IsTiny)
		assert.False(t, pair.BigComponent.Component.IsTiny)
		assert.False(t, pair.Same())
		assert.Less(t, pair.Nearest.Distance, pair.BigComponent.Distance)

		pair, ok, err = q.NearestPhantomNodeWithAlternativeFromBigComponent(fixture.GridCoordinate(0, 0))
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, pair.Same())
		assert.False(t, pair.BigComponent.Component.IsTiny)
	}

	idx := spatial.NewRtreeIndex(networkSegments(t), 2, 4)
	near := spatial.NewGeospatialQuery(idx, spatial.WithMaxSearchRadius(100))
	_, ok, err := near.NearestPhantomNodeWithAlternativeFromBigComponent(island)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCallerDistanceBeyondMaxSearchRadius(t *testing.T) {
	idx := spatial.NewRtreeIndex([]datastructure.RoadSegment{segmentAtHeading(0, 0, false)}, 2, 4)
	incremental := spatial.NewGeospatialQuery(idx)
	expanding := spatial.NewGeospatialQuery(boxOnlyIndex{idx})
	// about 33.4 km east of the segment
	coord := datastructure.NewFixedPointCoordinate(0, 0.3)

	for _, q := range []*spatial.GeospatialQuery{incremental, expanding} {
		results, err := q.NearestPhantomNodesInRange(coord, 50000)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, 33400, results[0].Distance, 100)

		results, err = q.NearestPhantomNodesInRange(coord, 30000)
		require.NoError(t, err)
		assert.Empty(t, results)

		_, ok, err := q.NearestPhantomNodeWithAlternativeFromBigComponent(coord)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	results, err := incremental.NearestPhantomNodes(coord, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = expanding.NearestPhantomNodes(coord, 1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInvalidCoordinate(t *testing.T) {
	incremental, _ := newQueries(t)
	_, err := incremental.NearestPhantomNodes(datastructure.FixedPointCoordinate{Lat: 91_000_000}, 1)
	assert.ErrorIs(t, err, spatial.ErrInvalidCoordinate)

	results, err := incremental.NearestPhantomNodes(fixture.GridCoordinate(0, 0), 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConcurrentQueries(t *testing.T) {
	incremental, _ := newQueries(t)
	rng := rand.New(rand.NewSource(9))

	coords := make([]datastructure.FixedPointCoordinate, 50)
	expected := make([][]spatial.PhantomNodeWithDistance, len(coords))
	for i := range coords {
		coords[i] = datastructure.NewFixedPointCoordinate(fixture.BaseLat+rng.Float64()*0.003, fixture.BaseLon+rng.Float64()*0.003)
		res, err := incremental.NearestPhantomNodes(coords[i], 3)
		require.NoError(t, err)
		expected[i] = res
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, c := range coords {
				res, err := incremental.NearestPhantomNodes(c, 3)
				assert.NoError(t, err)
				assert.Equal(t, expected[i], res)
			}
		}()
	}
	wg.Wait()
}

func TestNodeIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	coords := make([]datastructure.FixedPointCoordinate, 0, 2000)
	for i := 0; i < 2000; i++ {
		coords = append(coords, datastructure.NewFixedPointCoordinate(-7.6+rng.Float64()*0.2, 110.7+rng.Float64()*0.2))
	}
	// trailing shape points are not graph nodes
	idx := spatial.NewNodeIndex(coords, 1500)

	for i := 0; i < 100; i++ {
		q := datastructure.NewFixedPointCoordinate(-7.6+rng.Float64()*0.2, 110.7+rng.Float64()*0.2)

		best, bestDist := datastructure.InvalidNodeID, math.Inf(1)
		for n := 0; n < 1500; n++ {
			d := geo.GreatCircleDistance(q.LatDegrees(), q.LonDegrees(), coords[n].LatDegrees(), coords[n].LonDegrees())
			if d < bestDist {
				best, bestDist = datastructure.NodeID(n), d
			}
		}

		got, ok := idx.NearestNode(q)
		require.True(t, ok)
		assert.Equal(t, best, got)
	}

	_, ok := spatial.NewNodeIndex(nil, 0).NearestNode(coords[0])
	assert.False(t, ok)
}
