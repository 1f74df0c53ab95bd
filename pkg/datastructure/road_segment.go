package datastructure

// Component of the node based graph a segment belongs to.
type Component struct {
	ID     ComponentID
	IsTiny bool
}

// RoadSegment is one straight piece of an edge's uncompressed geometry, the
// leaf type of the spatial indexes. ForwardEdgeID runs from Source to Target,
// ReverseEdgeID (if valid) is the edge running back over the same geometry.
type RoadSegment struct {
	ForwardEdgeID EdgeID
	ReverseEdgeID EdgeID
	Source        NodeID
	Target        NodeID

	// U and V are the endpoints of this piece, oriented along the forward edge.
	U      NodeID
	V      NodeID
	UCoord FixedPointCoordinate
	VCoord FixedPointCoordinate

	NameID     NameID
	Component  Component
	TravelMode TravelMode

	// FwdSegmentPosition is the index of this piece inside the edge geometry.
	FwdSegmentPosition uint32
	// SegmentOffset is the length in metres of the geometry before U.
	SegmentOffset float64
	// EdgeLength is the length in metres of the whole edge geometry.
	EdgeLength float64
}

func (s RoadSegment) HasReverse() bool {
	return s.ReverseEdgeID != InvalidEdgeID
}

// Bound is the lat/lon box of the segment in degrees.
func (s RoadSegment) Bound() BoundingBox {
	return NewBoundingBox(
		[2]float64{s.UCoord.LatDegrees(), s.UCoord.LonDegrees()},
		[2]float64{s.VCoord.LatDegrees(), s.VCoord.LonDegrees()},
	)
}
