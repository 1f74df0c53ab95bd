package datastructure

// QueryEdgeData is the payload carried by every edge of the query graph.
type QueryEdgeData struct {
	// ID is the original edge (or the middle node of a shortcut) this edge stands for.
	ID       uint32
	Weight   int32
	Distance float64
	Shortcut bool
	Forward  bool
	Backward bool
}

func NewQueryEdgeData(id uint32, weight int32, distance float64, shortcut, forward, backward bool) QueryEdgeData {
	return QueryEdgeData{
		ID:       id,
		Weight:   weight,
		Distance: distance,
		Shortcut: shortcut,
		Forward:  forward,
		Backward: backward,
	}
}
