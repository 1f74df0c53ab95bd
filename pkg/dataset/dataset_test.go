package dataset_test

import (
	"testing"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/dataset/fixture"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNetwork(t *testing.T) *dataset.Dataset[datastructure.QueryEdgeData] {
	d, err := fixture.Network()
	require.NoError(t, err)
	return d
}

func TestBuildNetwork(t *testing.T) {
	d := buildNetwork(t)

	assert.Equal(t, 11, d.Graph.NumberOfNodes())
	assert.Equal(t, 26, d.Graph.NumberOfEdges())
	// graph nodes plus one shape point for each of the four top row edges
	assert.Len(t, d.Coordinates, 15)
	assert.Equal(t, 7, d.Names.Len())
	assert.Equal(t, 1, d.CoreSize())
	assert.True(t, d.Core.Test(uint(fixture.CoreNode)))
	assert.Equal(t, fixture.Timestamp, d.Timestamp)

	// 13 street pairs, the two bent ones carry two segments each
	assert.Len(t, d.Segments, 15)
	for _, seg := range d.Segments {
		assert.True(t, seg.HasReverse(), "every street is two way")
		assert.Less(t, seg.ForwardEdgeID, seg.ReverseEdgeID)
	}
}

func TestBuildGeometry(t *testing.T) {
	d := buildNetwork(t)

	straight, ok := d.Graph.FindEdge(fixture.GridNode(0, 0), fixture.GridNode(0, 1))
	require.True(t, ok)
	assert.False(t, d.EdgeInfo.IsCompressed(straight))
	_, ok = d.EdgeInfo.GeometryID(straight)
	assert.False(t, ok)

	bent, ok := d.Graph.FindEdge(fixture.GridNode(2, 0), fixture.GridNode(2, 1))
	require.True(t, ok)
	assert.True(t, d.EdgeInfo.IsCompressed(bent))
	geometryID, ok := d.EdgeInfo.GeometryID(bent)
	require.True(t, ok)
	shape := d.Geometry.Entry(geometryID)
	require.Len(t, shape, 1)
	assert.GreaterOrEqual(t, int(shape[0]), d.Graph.NumberOfNodes())

	back, ok := d.Graph.FindEdge(fixture.GridNode(2, 1), fixture.GridNode(2, 0))
	require.True(t, ok)
	backID, ok := d.EdgeInfo.GeometryID(back)
	require.True(t, ok)
	assert.Equal(t, d.Coordinates[shape[0]], d.Coordinates[d.Geometry.Entry(backID)[0]])

	assert.Equal(t, fixture.RowName(2), d.Names.Name(d.EdgeInfo.NameID(bent)))
	assert.Equal(t, datastructure.GoStraight, d.EdgeInfo.TurnInstruction(bent))
	assert.Equal(t, datastructure.TravelModeDriving, d.EdgeInfo.TravelMode(bent))

	var pieces []datastructure.RoadSegment
	for _, seg := range d.Segments {
		if seg.ForwardEdgeID == bent || seg.ForwardEdgeID == back {
			pieces = append(pieces, seg)
		}
	}
	require.Len(t, pieces, 2)
	assert.Equal(t, uint32(0), pieces[0].FwdSegmentPosition)
	assert.Equal(t, 0.0, pieces[0].SegmentOffset)
	assert.Equal(t, uint32(1), pieces[1].FwdSegmentPosition)
	assert.Greater(t, pieces[1].SegmentOffset, 0.0)
	assert.Equal(t, pieces[0].EdgeLength, pieces[1].EdgeLength)
	assert.Greater(t, pieces[0].EdgeLength, 111.0)
	assert.Equal(t, pieces[0].V, pieces[1].U)
}

func TestBuildTinyComponents(t *testing.T) {
	d := buildNetwork(t)

	for _, seg := range d.Segments {
		island := seg.Source == fixture.TinyA || seg.Source == fixture.TinyB
		assert.Equal(t, island, seg.Component.IsTiny)
	}

	d, err := fixture.Network(dataset.WithSmallComponentSize(1))
	require.NoError(t, err)
	for _, seg := range d.Segments {
		assert.False(t, seg.Component.IsTiny)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	a, b := buildNetwork(t), buildNetwork(t)
	assert.Equal(t, a.Checksum, b.Checksum)

	c, err := fixture.Network(dataset.WithTimestamp("2025-06-01T00:00:00Z"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Checksum, c.Checksum)
}

func TestBuildRejectsUnknownNodes(t *testing.T) {
	b := dataset.NewBuilder[datastructure.QueryEdgeData]()
	b.AddNode(datastructure.NewFixedPointCoordinate(0, 0))
	b.AddEdge(0, 3, datastructure.QueryEdgeData{}, dataset.EdgeAnnotation{})

	_, err := b.Build()
	assert.ErrorIs(t, err, dataset.ErrInvalidDataset)
}

func TestBuildLongShapeKeepsSegmentPositions(t *testing.T) {
	const shapePoints = 70000
	b := dataset.NewBuilder[datastructure.QueryEdgeData]()
	from := b.AddNode(datastructure.NewFixedPointCoordinate(0, 0))
	to := b.AddNode(datastructure.NewFixedPointCoordinate(0, 0.8))

	shape := make([]datastructure.FixedPointCoordinate, shapePoints)
	for i := range shape {
		shape[i] = datastructure.NewFixedPointCoordinate(0, 0.8*float64(i+1)/float64(shapePoints+1))
	}
	b.AddEdge(from, to, datastructure.QueryEdgeData{}, dataset.EdgeAnnotation{Shape: shape})

	d, err := b.Build()
	require.NoError(t, err)
	require.Len(t, d.Segments, shapePoints+1)

	seen := make(map[uint32]struct{}, len(d.Segments))
	for _, seg := range d.Segments {
		seen[seg.FwdSegmentPosition] = struct{}{}
	}
	assert.Len(t, seen, shapePoints+1)
	assert.Contains(t, seen, uint32(shapePoints))
}

func TestSaveLoad(t *testing.T) {
	d := buildNetwork(t)
	store := storage.NewDirStore(t.TempDir())
	require.NoError(t, d.Save(store))

	loaded, err := dataset.Load[datastructure.QueryEdgeData](store)
	require.NoError(t, err)

	assert.Equal(t, d.Checksum, loaded.Checksum)
	assert.Equal(t, d.Timestamp, loaded.Timestamp)
	assert.Equal(t, d.Graph.NumberOfEdges(), loaded.Graph.NumberOfEdges())
	for e := 0; e < d.Graph.NumberOfEdges(); e++ {
		id := datastructure.EdgeID(e)
		assert.Equal(t, d.Graph.Target(id), loaded.Graph.Target(id))
		assert.Equal(t, d.Graph.EdgeData(id), loaded.Graph.EdgeData(id))
	}
	assert.Equal(t, d.Coordinates, loaded.Coordinates)
	assert.Equal(t, d.Segments, loaded.Segments)
	assert.Equal(t, d.Names.Names(), loaded.Names.Names())
	assert.Equal(t, 1, loaded.CoreSize())
	assert.True(t, loaded.Core.Test(uint(fixture.CoreNode)))

	withoutNames, err := dataset.Load[datastructure.QueryEdgeData](store, dataset.WithoutNames())
	require.NoError(t, err)
	assert.Nil(t, withoutNames.Names)
	assert.Equal(t, d.Checksum, withoutNames.Checksum)
}

type timestampBody struct {
	Value string
}

func rewriteTimestamp(t *testing.T, store *storage.DirStore, checksum uint32, value string) {
	body, err := storage.EncodeBody(timestampBody{Value: value})
	require.NoError(t, err)
	raw, err := storage.EncodeResource(checksum, body)
	require.NoError(t, err)
	require.NoError(t, store.WriteResource(storage.ResourceTimestamp, raw))
}

func TestLoadChecksumMismatch(t *testing.T) {
	d := buildNetwork(t)

	t.Run("headers disagree", func(t *testing.T) {
		store := storage.NewDirStore(t.TempDir())
		require.NoError(t, d.Save(store))
		rewriteTimestamp(t, store, d.Checksum+1, d.Timestamp)

		for i := 0; i < 3; i++ {
			_, err := dataset.Load[datastructure.QueryEdgeData](store)
			assert.ErrorIs(t, err, storage.ErrChecksumMismatch)
		}
	})

	t.Run("content changed under the same checksum", func(t *testing.T) {
		store := storage.NewDirStore(t.TempDir())
		require.NoError(t, d.Save(store))
		rewriteTimestamp(t, store, d.Checksum, "2030-01-01T00:00:00Z")

		_, err := dataset.Load[datastructure.QueryEdgeData](store)
		assert.ErrorIs(t, err, storage.ErrChecksumMismatch)
	})

	t.Run("other dataset mixed in", func(t *testing.T) {
		other, err := fixture.Network(dataset.WithTimestamp("2025-06-01T00:00:00Z"))
		require.NoError(t, err)

		store := storage.NewDirStore(t.TempDir())
		require.NoError(t, d.Save(store))
		otherStore := storage.NewDirStore(t.TempDir())
		require.NoError(t, other.Save(otherStore))

		raw, err := otherStore.ReadResource(storage.ResourceSegments)
		require.NoError(t, err)
		require.NoError(t, store.WriteResource(storage.ResourceSegments, raw))

		_, err = dataset.Load[datastructure.QueryEdgeData](store)
		assert.ErrorIs(t, err, storage.ErrChecksumMismatch)
	})
}

func TestLoadMissingResource(t *testing.T) {
	store := storage.NewDirStore(t.TempDir())
	_, err := dataset.Load[datastructure.QueryEdgeData](store)
	assert.ErrorIs(t, err, storage.ErrResourceNotFound)
}
