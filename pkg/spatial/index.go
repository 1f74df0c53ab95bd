package spatial

import (
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

// SegmentIndex finds road segments around a coordinate. SegmentsWithin must
// return at least every segment within radius metres of center; it may
// return more.
type SegmentIndex interface {
	SegmentsWithin(center datastructure.FixedPointCoordinate, radius float64) ([]datastructure.RoadSegment, error)
}

// IncrementalIndex additionally visits segments in non-decreasing distance.
type IncrementalIndex interface {
	SegmentIndex
	IncrementalNearest(center datastructure.FixedPointCoordinate, visit datastructure.SegmentVisitor)
}

// RtreeIndex is the in memory R-tree over road segments.
type RtreeIndex struct {
	rt *datastructure.Rtree
}

func NewRtreeIndex(segments []datastructure.RoadSegment, minChildItems, maxChildItems int) *RtreeIndex {
	return &RtreeIndex{rt: datastructure.NewRtreeFromSegments(segments, minChildItems, maxChildItems)}
}

func (idx *RtreeIndex) Size() int {
	return idx.rt.Size
}

func projectionAt(c datastructure.FixedPointCoordinate) geo.LocalProjection {
	return geo.NewLocalProjection(c.LatDegrees(), c.LonDegrees())
}

func (idx *RtreeIndex) SegmentsWithin(center datastructure.FixedPointCoordinate, radius float64) ([]datastructure.RoadSegment, error) {
	minLat, minLon, maxLat, maxLon := projectionAt(center).BoxAround(radius)
	return idx.rt.Search(datastructure.NewBoundingBox([2]float64{minLat, minLon}, [2]float64{maxLat, maxLon})), nil
}

func (idx *RtreeIndex) IncrementalNearest(center datastructure.FixedPointCoordinate, visit datastructure.SegmentVisitor) {
	idx.rt.IncrementalNearest(projectionAt(center), visit)
}
