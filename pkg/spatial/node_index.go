package spatial

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

const (
	nodeIndexMinChildren = 25
	nodeIndexMaxChildren = 50
	pointTolerance       = 1e-9
)

type nodeEntry struct {
	id    datastructure.NodeID
	coord datastructure.FixedPointCoordinate
}

func (n *nodeEntry) Bounds() rtreego.Rect {
	return rtreego.Point{n.coord.LatDegrees(), n.coord.LonDegrees()}.ToRect(pointTolerance)
}

// NodeIndex answers nearest graph node queries.
type NodeIndex struct {
	tree *rtreego.Rtree
}

// NewNodeIndex indexes the first numNodes coordinates, the graph nodes.
func NewNodeIndex(coords []datastructure.FixedPointCoordinate, numNodes int) *NodeIndex {
	entries := make([]rtreego.Spatial, 0, numNodes)
	for i := 0; i < numNodes; i++ {
		entries = append(entries, &nodeEntry{id: datastructure.NodeID(i), coord: coords[i]})
	}
	return &NodeIndex{tree: rtreego.NewTree(2, nodeIndexMinChildren, nodeIndexMaxChildren, entries...)}
}

// NearestNode returns the graph node closest to coord by great circle
// distance, the lowest id among equally close nodes.
func (idx *NodeIndex) NearestNode(coord datastructure.FixedPointCoordinate) (datastructure.NodeID, bool) {
	lat, lon := coord.LatDegrees(), coord.LonDegrees()

	// rtreego ranks by planar degrees, the candidate only bounds the search box.
	seeds := idx.tree.NearestNeighbors(1, rtreego.Point{lat, lon})
	if len(seeds) == 0 || seeds[0] == nil {
		return datastructure.InvalidNodeID, false
	}
	seed := seeds[0].(*nodeEntry)
	radius := geo.GreatCircleDistance(lat, lon, seed.coord.LatDegrees(), seed.coord.LonDegrees())*1.01 + 1

	minLat, minLon, maxLat, maxLon := geo.NewLocalProjection(lat, lon).BoxAround(radius)
	box, err := rtreego.NewRectFromPoints(rtreego.Point{minLat, minLon}, rtreego.Point{maxLat, maxLon})
	if err != nil {
		return seed.id, true
	}

	best, bestDist := seed.id, math.Inf(1)
	for _, obj := range idx.tree.SearchIntersect(box) {
		n := obj.(*nodeEntry)
		d := geo.GreatCircleDistance(lat, lon, n.coord.LatDegrees(), n.coord.LonDegrees())
		if d < bestDist || (d == bestDist && n.id < best) {
			best, bestDist = n.id, d
		}
	}
	return best, true
}
