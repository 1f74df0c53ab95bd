// Package facade is the read-only data access contract path-finding code
// programs against. A facade never changes after construction; reloads swap
// whole instances through Holder.
package facade

import (
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/graph"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
)

// DataFacade exposes one co-versioned road network dataset. Every method is
// safe for concurrent use. Node and edge ids outside [0, count) panic.
type DataFacade[T any] interface {
	NumberOfNodes() int
	NumberOfEdges() int
	OutDegree(n datastructure.NodeID) int
	Target(e datastructure.EdgeID) datastructure.NodeID
	EdgeData(e datastructure.EdgeID) T
	BeginEdges(n datastructure.NodeID) datastructure.EdgeID
	EndEdges(n datastructure.NodeID) datastructure.EdgeID
	AdjacentEdgeRange(n datastructure.NodeID) datastructure.EdgeRange

	FindEdge(from, to datastructure.NodeID) (datastructure.EdgeID, bool)
	FindEdgeInEitherDirection(from, to datastructure.NodeID) (datastructure.EdgeID, bool)
	FindEdgeIndicateIfReverse(from, to datastructure.NodeID) graph.EdgeMatch

	CoordinateOfNode(n datastructure.NodeID) datastructure.FixedPointCoordinate
	EdgeIsCompressed(e datastructure.EdgeID) bool
	GeometryIndex(e datastructure.EdgeID) (datastructure.GeometryID, bool)
	// UncompressedGeometry appends source, intermediate nodes and target of e to out.
	UncompressedGeometry(e datastructure.EdgeID, out []datastructure.NodeID) []datastructure.NodeID
	TurnInstruction(e datastructure.EdgeID) datastructure.TurnInstruction
	TravelMode(e datastructure.EdgeID) datastructure.TravelMode
	NameIndex(e datastructure.EdgeID) datastructure.NameID
	Name(id datastructure.NameID) string

	NearestPhantomNodesInRange(coord datastructure.FixedPointCoordinate, maxDistance float64,
		opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error)
	NearestPhantomNodes(coord datastructure.FixedPointCoordinate, maxResults int,
		opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error)
	NearestPhantomNodeWithAlternativeFromBigComponent(coord datastructure.FixedPointCoordinate,
		opts ...spatial.QueryOption) (spatial.PhantomNodePair, bool, error)
	NearestNode(coord datastructure.FixedPointCoordinate) (datastructure.NodeID, bool)

	IsCoreNode(n datastructure.NodeID) bool
	CoreSize() int
	CheckSum() uint32
	Timestamp() string
}
