package spatial

import (
	"math"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

// PhantomNode is a coordinate snapped onto a road segment.
type PhantomNode struct {
	ForwardEdgeID datastructure.EdgeID `json:"forward_edge_id"`
	// ReverseEdgeID is only meaningful when ReverseEnabled is set.
	ReverseEdgeID  datastructure.EdgeID `json:"reverse_edge_id"`
	ForwardEnabled bool                 `json:"forward_enabled"`
	ReverseEnabled bool                 `json:"reverse_enabled"`

	// ForwardNode is reached travelling along the forward edge, ReverseNode travelling against it.
	ForwardNode datastructure.NodeID `json:"forward_node"`
	ReverseNode datastructure.NodeID `json:"reverse_node"`

	NameID             datastructure.NameID               `json:"name_id"`
	Location           datastructure.FixedPointCoordinate `json:"location"`
	Ratio              float64                            `json:"ratio"`
	FwdSegmentPosition uint32                             `json:"fwd_segment_position"`
	Component          datastructure.Component            `json:"component"`
	TravelMode         datastructure.TravelMode           `json:"travel_mode"`
}

type PhantomNodeWithDistance struct {
	PhantomNode
	Distance float64 `json:"distance"`
}

// PhantomNodePair holds the nearest snap and the nearest snap in a big component.
type PhantomNodePair struct {
	Nearest      PhantomNodeWithDistance `json:"nearest"`
	BigComponent PhantomNodeWithDistance `json:"big_component"`
}

// Same reports whether both snaps are the same candidate.
func (p PhantomNodePair) Same() bool {
	return p.Nearest == p.BigComponent
}

func segmentHeading(seg datastructure.RoadSegment) float64 {
	return geo.Bearing(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees(), seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees())
}

// newPhantomNode snaps onto seg. Directions rejected by the bearing filter are
// disabled, ok is false when none is left.
func newPhantomNode(seg datastructure.RoadSegment, proj geo.SegmentProjection, filter bearingFilter) (PhantomNodeWithDistance, bool) {
	forward, reverse := true, seg.HasReverse()
	if filter.active() {
		heading := segmentHeading(seg)
		forward = filter.accepts(heading)
		reverse = reverse && filter.accepts(heading+180)
	}
	if !forward && !reverse {
		return PhantomNodeWithDistance{}, false
	}

	ratio := 0.0
	if seg.EdgeLength > 0 {
		segLength := geo.GreatCircleDistance(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees(),
			seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees())
		ratio = math.Max(0, math.Min(1, (seg.SegmentOffset+proj.Ratio*segLength)/seg.EdgeLength))
	}

	return PhantomNodeWithDistance{
		PhantomNode: PhantomNode{
			ForwardEdgeID:      seg.ForwardEdgeID,
			ReverseEdgeID:      seg.ReverseEdgeID,
			ForwardEnabled:     forward,
			ReverseEnabled:     reverse,
			ForwardNode:        seg.Target,
			ReverseNode:        seg.Source,
			NameID:             seg.NameID,
			Location:           datastructure.NewFixedPointCoordinate(proj.Lat, proj.Lon),
			Ratio:              ratio,
			FwdSegmentPosition: seg.FwdSegmentPosition,
			Component:          seg.Component,
			TravelMode:         seg.TravelMode,
		},
		Distance: proj.Distance,
	}, true
}

// lessPhantom orders by distance, then source node, edge id and segment position.
func lessPhantom(a, b PhantomNodeWithDistance) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	if a.ReverseNode != b.ReverseNode {
		return a.ReverseNode < b.ReverseNode
	}
	if a.ForwardEdgeID != b.ForwardEdgeID {
		return a.ForwardEdgeID < b.ForwardEdgeID
	}
	return a.FwdSegmentPosition < b.FwdSegmentPosition
}
