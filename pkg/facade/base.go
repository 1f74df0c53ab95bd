package facade

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/graph"
	"github.com/lintang-b-s/roadfacade/pkg/kv"
	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

// nameResolver panics on ids outside the name table, like the edge and node accessors.
type nameResolver interface {
	Name(id datastructure.NameID) string
}

// tableNames resolves names from a name table held in memory.
type tableNames struct {
	table *datastructure.NameTable
}

func (n tableNames) Name(id datastructure.NameID) string {
	if int(id) >= n.table.Len() {
		panicUnknownName(id)
	}
	return n.table.Name(id)
}

func panicUnknownName(id datastructure.NameID) {
	panic(fmt.Sprintf("name id %d not in name table", id))
}

// base implements DataFacade over loaded tables. Backings differ in where
// names come from and what they release on Close.
type base[T any] struct {
	graph     *graph.StaticGraph[T]
	coords    []datastructure.FixedPointCoordinate
	geometry  *datastructure.GeometryTable
	edgeInfo  *datastructure.EdgeInfoTable
	core      *bitset.BitSet
	coreSize  int
	checksum  uint32
	timestamp string

	names     nameResolver
	query     *spatial.GeospatialQuery
	nodes     *spatial.NodeIndex
	cellIndex *kv.CellIndex
	log       zerolog.Logger
}

func newBase[T any](d *dataset.Dataset[T], names nameResolver, o options) (*base[T], error) {
	var index spatial.SegmentIndex
	if o.cellIndex != nil {
		checksum, err := o.cellIndex.Checksum()
		if err != nil {
			return nil, server.WrapErrorf(err, server.ErrInvalidDataset, "read cell index checksum")
		}
		if checksum != d.Checksum {
			err := fmt.Errorf("%w: dataset has %08x, cell index has %08x", storage.ErrChecksumMismatch, d.Checksum, checksum)
			return nil, server.WrapErrorf(err, server.ErrInvalidDataset, "attach cell index")
		}
		index = o.cellIndex
	} else {
		index = spatial.NewRtreeIndex(d.Segments, o.rtreeMin, o.rtreeMax)
	}

	b := &base[T]{
		graph:     d.Graph,
		coords:    d.Coordinates,
		geometry:  d.Geometry,
		edgeInfo:  d.EdgeInfo,
		core:      d.Core,
		coreSize:  d.CoreSize(),
		checksum:  d.Checksum,
		timestamp: d.Timestamp,
		names:     names,
		query: spatial.NewGeospatialQuery(index,
			spatial.WithLogger(o.log),
			spatial.WithMaxSearchRadius(o.maxSearchRadius)),
		nodes:     spatial.NewNodeIndex(d.Coordinates, d.Graph.NumberOfNodes()),
		cellIndex: o.cellIndex,
		log:       o.log,
	}

	b.log.Info().
		Uint32("checksum", b.checksum).
		Str("timestamp", b.timestamp).
		Int("nodes", b.graph.NumberOfNodes()).
		Int("edges", b.graph.NumberOfEdges()).
		Int("core_size", b.coreSize).
		Bool("cell_index", o.cellIndex != nil).
		Msg("data facade ready")
	return b, nil
}

func (b *base[T]) close() error {
	if b.cellIndex != nil {
		return b.cellIndex.Close()
	}
	return nil
}

func (b *base[T]) NumberOfNodes() int {
	return b.graph.NumberOfNodes()
}

func (b *base[T]) NumberOfEdges() int {
	return b.graph.NumberOfEdges()
}

func (b *base[T]) OutDegree(n datastructure.NodeID) int {
	return b.graph.OutDegree(n)
}

func (b *base[T]) Target(e datastructure.EdgeID) datastructure.NodeID {
	return b.graph.Target(e)
}

func (b *base[T]) EdgeData(e datastructure.EdgeID) T {
	return b.graph.EdgeData(e)
}

func (b *base[T]) BeginEdges(n datastructure.NodeID) datastructure.EdgeID {
	return b.graph.BeginEdges(n)
}

func (b *base[T]) EndEdges(n datastructure.NodeID) datastructure.EdgeID {
	return b.graph.EndEdges(n)
}

func (b *base[T]) AdjacentEdgeRange(n datastructure.NodeID) datastructure.EdgeRange {
	return b.graph.AdjacentEdgeRange(n)
}

func (b *base[T]) FindEdge(from, to datastructure.NodeID) (datastructure.EdgeID, bool) {
	return b.graph.FindEdge(from, to)
}

func (b *base[T]) FindEdgeInEitherDirection(from, to datastructure.NodeID) (datastructure.EdgeID, bool) {
	return b.graph.FindEdgeInEitherDirection(from, to)
}

func (b *base[T]) FindEdgeIndicateIfReverse(from, to datastructure.NodeID) graph.EdgeMatch {
	return b.graph.FindEdgeIndicateIfReverse(from, to)
}

func (b *base[T]) checkNode(n datastructure.NodeID) {
	if int(n) >= b.graph.NumberOfNodes() {
		panic(fmt.Sprintf("node id %d out of range [0, %d)", n, b.graph.NumberOfNodes()))
	}
}

func (b *base[T]) checkEdge(e datastructure.EdgeID) {
	if int(e) >= b.graph.NumberOfEdges() {
		panic(fmt.Sprintf("edge id %d out of range [0, %d)", e, b.graph.NumberOfEdges()))
	}
}

// CoordinateOfNode also resolves the intermediate nodes returned by
// UncompressedGeometry, which follow the graph nodes in the coordinate table.
func (b *base[T]) CoordinateOfNode(n datastructure.NodeID) datastructure.FixedPointCoordinate {
	if int(n) >= len(b.coords) {
		panic(fmt.Sprintf("node id %d out of range [0, %d)", n, len(b.coords)))
	}
	return b.coords[n]
}

func (b *base[T]) EdgeIsCompressed(e datastructure.EdgeID) bool {
	b.checkEdge(e)
	return b.edgeInfo.IsCompressed(e)
}

func (b *base[T]) GeometryIndex(e datastructure.EdgeID) (datastructure.GeometryID, bool) {
	b.checkEdge(e)
	return b.edgeInfo.GeometryID(e)
}

func (b *base[T]) UncompressedGeometry(e datastructure.EdgeID, out []datastructure.NodeID) []datastructure.NodeID {
	b.checkEdge(e)
	out = append(out, b.graph.Source(e))
	if id, ok := b.edgeInfo.GeometryID(e); ok {
		out = append(out, b.geometry.Entry(id)...)
	}
	return append(out, b.graph.Target(e))
}

func (b *base[T]) TurnInstruction(e datastructure.EdgeID) datastructure.TurnInstruction {
	b.checkEdge(e)
	return b.edgeInfo.TurnInstruction(e)
}

func (b *base[T]) TravelMode(e datastructure.EdgeID) datastructure.TravelMode {
	b.checkEdge(e)
	return b.edgeInfo.TravelMode(e)
}

func (b *base[T]) NameIndex(e datastructure.EdgeID) datastructure.NameID {
	b.checkEdge(e)
	return b.edgeInfo.NameID(e)
}

func (b *base[T]) Name(id datastructure.NameID) string {
	return b.names.Name(id)
}

func (b *base[T]) NearestPhantomNodesInRange(coord datastructure.FixedPointCoordinate, maxDistance float64,
	opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error) {
	return wrapQueryError(b.query.NearestPhantomNodesInRange(coord, maxDistance, opts...))
}

func (b *base[T]) NearestPhantomNodes(coord datastructure.FixedPointCoordinate, maxResults int,
	opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error) {
	return wrapQueryError(b.query.NearestPhantomNodes(coord, maxResults, opts...))
}

func (b *base[T]) NearestPhantomNodeWithAlternativeFromBigComponent(coord datastructure.FixedPointCoordinate,
	opts ...spatial.QueryOption) (spatial.PhantomNodePair, bool, error) {
	pair, ok, err := b.query.NearestPhantomNodeWithAlternativeFromBigComponent(coord, opts...)
	if err != nil {
		return spatial.PhantomNodePair{}, false, classifyQueryError(err)
	}
	return pair, ok, nil
}

func (b *base[T]) NearestNode(coord datastructure.FixedPointCoordinate) (datastructure.NodeID, bool) {
	return b.nodes.NearestNode(coord)
}

func (b *base[T]) IsCoreNode(n datastructure.NodeID) bool {
	b.checkNode(n)
	return b.core.Test(uint(n))
}

func (b *base[T]) CoreSize() int {
	return b.coreSize
}

func (b *base[T]) CheckSum() uint32 {
	return b.checksum
}

func (b *base[T]) Timestamp() string {
	return b.timestamp
}

func classifyQueryError(err error) error {
	if errors.Is(err, spatial.ErrInvalidCoordinate) {
		return server.WrapErrorf(err, server.ErrBadParamInput, "nearest phantom nodes")
	}
	return server.WrapErrorf(err, server.ErrInternalServerError, "nearest phantom nodes")
}

func wrapQueryError(results []spatial.PhantomNodeWithDistance, err error) ([]spatial.PhantomNodeWithDistance, error) {
	if err != nil {
		return nil, classifyQueryError(err)
	}
	return results, nil
}
