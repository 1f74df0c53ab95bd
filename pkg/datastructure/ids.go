package datastructure

import "math"

type NodeID uint32

type EdgeID uint32

type NameID uint32

type GeometryID uint32

type ComponentID uint32

// Invalid ids mark empty slots inside stored tables. They never cross the
// facade boundary, absence is reported with comma-ok results there.
const (
	InvalidNodeID      NodeID      = math.MaxUint32
	InvalidEdgeID      EdgeID      = math.MaxUint32
	InvalidNameID      NameID      = math.MaxUint32
	InvalidGeometryID  GeometryID  = math.MaxUint32
	InvalidComponentID ComponentID = math.MaxUint32
)

// EdgeRange is the half-open range [Begin, End) of edge ids.
type EdgeRange struct {
	Begin EdgeID
	End   EdgeID
}

func NewEdgeRange(begin, end EdgeID) EdgeRange {
	return EdgeRange{Begin: begin, End: end}
}

func (r EdgeRange) Len() int {
	return int(r.End - r.Begin)
}

func (r EdgeRange) Contains(e EdgeID) bool {
	return e >= r.Begin && e < r.End
}

// Edges lists every id in the range.
func (r EdgeRange) Edges() []EdgeID {
	edges := make([]EdgeID, 0, r.Len())
	for e := r.Begin; e < r.End; e++ {
		edges = append(edges, e)
	}
	return edges
}
