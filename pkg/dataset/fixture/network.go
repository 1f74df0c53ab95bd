// Package fixture builds a small deterministic road network for tests and
// for the sample dataset of the preprocessing tool.
package fixture

import (
	"fmt"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
)

const (
	BaseLat = -7.55
	BaseLon = 110.80
	// Step between grid nodes in degrees, roughly 111 m.
	Step = 0.001
	Rows = 3
	Cols = 3

	// TinyA and TinyB form a two node island north east of the grid.
	TinyA datastructure.NodeID = Rows * Cols
	TinyB datastructure.NodeID = Rows*Cols + 1

	SmallComponentSize = 5
	Timestamp          = "2024-01-01T00:00:00Z"
	// CoreNode is the only node flagged as core.
	CoreNode datastructure.NodeID = 4
)

// GridNode is the node at row r, column c. Rows grow north, columns east.
func GridNode(r, c int) datastructure.NodeID {
	return datastructure.NodeID(r*Cols + c)
}

func GridCoordinate(r, c int) datastructure.FixedPointCoordinate {
	return datastructure.NewFixedPointCoordinate(BaseLat+float64(r)*Step, BaseLon+float64(c)*Step)
}

// RowName and ColName are the street names of grid rows and columns.
func RowName(r int) string {
	return fmt.Sprintf("Jalan Slamet Riyadi %d", r)
}

func ColName(c int) string {
	return fmt.Sprintf("Jalan Gatot Subroto %d", c)
}

const TinyName = "Gang Kecil"

// Network builds a 3x3 grid of two way streets plus a two node island.
// Streets in the top row bend north through one shape point halfway.
func Network(opts ...dataset.BuilderOption) (*dataset.Dataset[datastructure.QueryEdgeData], error) {
	opts = append([]dataset.BuilderOption{
		dataset.WithSmallComponentSize(SmallComponentSize),
		dataset.WithTimestamp(Timestamp),
	}, opts...)
	b := dataset.NewBuilder[datastructure.QueryEdgeData](opts...)

	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			b.AddNode(GridCoordinate(r, c))
		}
	}
	b.AddNode(datastructure.NewFixedPointCoordinate(BaseLat+10*Step, BaseLon+10*Step))
	b.AddNode(datastructure.NewFixedPointCoordinate(BaseLat+10*Step, BaseLon+11*Step))

	id := uint32(0)
	twoWay := func(u, v datastructure.NodeID, ann dataset.EdgeAnnotation) {
		b.AddEdge(u, v, datastructure.NewQueryEdgeData(id, 10, 111, false, true, false), ann)
		id++

		back := ann
		back.Shape = make([]datastructure.FixedPointCoordinate, len(ann.Shape))
		for i := range ann.Shape {
			back.Shape[i] = ann.Shape[len(ann.Shape)-1-i]
		}
		b.AddEdge(v, u, datastructure.NewQueryEdgeData(id, 10, 111, false, true, false), back)
		id++
	}

	for r := 0; r < Rows; r++ {
		for c := 0; c+1 < Cols; c++ {
			ann := dataset.EdgeAnnotation{
				Name: RowName(r),
				Turn: datastructure.GoStraight,
				Mode: datastructure.TravelModeDriving,
			}
			if r == Rows-1 {
				ann.Shape = []datastructure.FixedPointCoordinate{
					datastructure.NewFixedPointCoordinate(BaseLat+float64(r)*Step+Step/5, BaseLon+(float64(c)+0.5)*Step),
				}
			}
			twoWay(GridNode(r, c), GridNode(r, c+1), ann)
		}
	}
	for c := 0; c < Cols; c++ {
		for r := 0; r+1 < Rows; r++ {
			twoWay(GridNode(r, c), GridNode(r+1, c), dataset.EdgeAnnotation{
				Name: ColName(c),
				Turn: datastructure.TurnRight,
				Mode: datastructure.TravelModeDriving,
			})
		}
	}
	twoWay(TinyA, TinyB, dataset.EdgeAnnotation{
		Name: TinyName,
		Turn: datastructure.NoTurn,
		Mode: datastructure.TravelModeWalking,
	})

	b.MarkCore(CoreNode)
	return b.Build()
}
