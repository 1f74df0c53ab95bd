package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/facade"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
	"github.com/lintang-b-s/roadfacade/pkg/util"
)

type DatasetInfo struct {
	Checksum      uint32 `json:"checksum"`
	Timestamp     string `json:"timestamp"`
	NumberOfNodes int    `json:"number_of_nodes"`
	NumberOfEdges int    `json:"number_of_edges"`
	CoreSize      int    `json:"core_size"`
}

// Bearing restricts snapping to segments heading within Range degrees of Value.
type Bearing struct {
	Value float64
	Range float64
}

type Snap struct {
	spatial.PhantomNodeWithDistance
	Name string `json:"name"`
}

type SnapPair struct {
	Nearest      Snap `json:"nearest"`
	BigComponent Snap `json:"big_component"`
}

type EdgeGeometry struct {
	EdgeID      datastructure.EdgeID                 `json:"edge_id"`
	Name        string                               `json:"name"`
	Turn        string                               `json:"turn_instruction"`
	Mode        string                               `json:"travel_mode"`
	Compressed  bool                                 `json:"compressed"`
	Nodes       []datastructure.NodeID               `json:"nodes"`
	Coordinates []datastructure.FixedPointCoordinate `json:"coordinates"`
	// Length in metres along the full geometry.
	Length   float64 `json:"length"`
	Polyline string  `json:"polyline"`
}

// SnappingService answers queries against whatever facade the holder
// currently publishes. Every call works on a single facade version.
type SnappingService[T any] struct {
	holder *facade.Holder[T]
	log    zerolog.Logger
}

func NewSnappingService[T any](holder *facade.Holder[T], log zerolog.Logger) *SnappingService[T] {
	return &SnappingService[T]{holder: holder, log: log}
}

func queryOptions(b *Bearing) []spatial.QueryOption {
	if b == nil {
		return nil
	}
	return []spatial.QueryOption{spatial.WithBearing(b.Value, b.Range)}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return server.WrapErrorf(err, server.ErrInternalServerError, "request cancelled")
	}
	return nil
}

func named[T any](f facade.DataFacade[T], results []spatial.PhantomNodeWithDistance) []Snap {
	snaps := make([]Snap, 0, len(results))
	for _, p := range results {
		snaps = append(snaps, Snap{PhantomNodeWithDistance: p, Name: f.Name(p.NameID)})
	}
	return snaps
}

func (s *SnappingService[T]) Info(ctx context.Context) (DatasetInfo, error) {
	if err := checkContext(ctx); err != nil {
		return DatasetInfo{}, err
	}
	f, release := s.holder.Acquire()
	defer release()

	return DatasetInfo{
		Checksum:      f.CheckSum(),
		Timestamp:     f.Timestamp(),
		NumberOfNodes: f.NumberOfNodes(),
		NumberOfEdges: f.NumberOfEdges(),
		CoreSize:      f.CoreSize(),
	}, nil
}

func (s *SnappingService[T]) Nearest(ctx context.Context, lat, lon float64, k int, bearing *Bearing) ([]Snap, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	f, release := s.holder.Acquire()
	defer release()

	results, err := f.NearestPhantomNodes(datastructure.NewFixedPointCoordinate(lat, lon), k, queryOptions(bearing)...)
	if err != nil {
		return nil, err
	}
	return named(f, results), nil
}

func (s *SnappingService[T]) NearestInRange(ctx context.Context, lat, lon, radius float64, bearing *Bearing) ([]Snap, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	f, release := s.holder.Acquire()
	defer release()

	results, err := f.NearestPhantomNodesInRange(datastructure.NewFixedPointCoordinate(lat, lon), radius, queryOptions(bearing)...)
	if err != nil {
		return nil, err
	}
	return named(f, results), nil
}

func (s *SnappingService[T]) NearestBigComponent(ctx context.Context, lat, lon float64, bearing *Bearing) (SnapPair, error) {
	if err := checkContext(ctx); err != nil {
		return SnapPair{}, err
	}
	f, release := s.holder.Acquire()
	defer release()

	pair, ok, err := f.NearestPhantomNodeWithAlternativeFromBigComponent(datastructure.NewFixedPointCoordinate(lat, lon),
		queryOptions(bearing)...)
	if err != nil {
		return SnapPair{}, err
	}
	if !ok {
		return SnapPair{}, server.NewErrorf(server.ErrNotFound, "no road segment of a big component near %f,%f", lat, lon)
	}
	snaps := named(f, []spatial.PhantomNodeWithDistance{pair.Nearest, pair.BigComponent})
	return SnapPair{Nearest: snaps[0], BigComponent: snaps[1]}, nil
}

// EdgeGeometry returns the full geometry of e. With simplify > 0 the polyline
// drops shape points closer than simplify metres to the simplified line.
func (s *SnappingService[T]) EdgeGeometry(ctx context.Context, e datastructure.EdgeID, simplify float64) (EdgeGeometry, error) {
	if err := checkContext(ctx); err != nil {
		return EdgeGeometry{}, err
	}
	f, release := s.holder.Acquire()
	defer release()

	if int(e) >= f.NumberOfEdges() {
		return EdgeGeometry{}, server.NewErrorf(server.ErrNotFound, "edge %d not found", e)
	}

	nodes := f.UncompressedGeometry(e, nil)
	coords := make([]datastructure.FixedPointCoordinate, 0, len(nodes))
	line := make([]geo.Coordinate, 0, len(nodes))
	for _, n := range nodes {
		c := f.CoordinateOfNode(n)
		coords = append(coords, c)
		line = append(line, geo.NewCoordinate(c.LatDegrees(), c.LonDegrees()))
	}

	polyline := coords
	if simplify > 0 {
		simplified := geo.RamerDouglasPeucker(line, simplify)
		polyline = make([]datastructure.FixedPointCoordinate, 0, len(simplified))
		for _, c := range simplified {
			polyline = append(polyline, datastructure.NewFixedPointCoordinate(c.Lat, c.Lon))
		}
	}

	return EdgeGeometry{
		EdgeID:      e,
		Name:        f.Name(f.NameIndex(e)),
		Turn:        f.TurnInstruction(e).String(),
		Mode:        f.TravelMode(e).String(),
		Compressed:  f.EdgeIsCompressed(e),
		Nodes:       nodes,
		Coordinates: coords,
		Length:      util.RoundFloat(geo.PolylineLength(line), 2),
		Polyline:    datastructure.CreatePolyline(polyline),
	}, nil
}
