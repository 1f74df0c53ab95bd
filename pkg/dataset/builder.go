package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
	"github.com/lintang-b-s/roadfacade/pkg/graph"
)

const (
	DEFAULT_SMALL_COMPONENT_SIZE = 1000
)

// EdgeAnnotation is the per edge metadata handed to the builder. Shape holds
// the intermediate points of the edge; an empty shape means the edge is a
// straight line between its end nodes.
type EdgeAnnotation struct {
	Name  string
	Turn  datastructure.TurnInstruction
	Mode  datastructure.TravelMode
	Shape []datastructure.FixedPointCoordinate
}

type pendingEdge[T any] struct {
	source datastructure.NodeID
	target datastructure.NodeID
	data   T
	ann    EdgeAnnotation
}

type builderOptions struct {
	smallComponentSize int
	timestamp          string
	log                zerolog.Logger
}

type BuilderOption func(*builderOptions)

func WithSmallComponentSize(size int) BuilderOption {
	return func(o *builderOptions) {
		o.smallComponentSize = size
	}
}

func WithTimestamp(ts string) BuilderOption {
	return func(o *builderOptions) {
		o.timestamp = ts
	}
}

func WithBuilderLogger(log zerolog.Logger) BuilderOption {
	return func(o *builderOptions) {
		o.log = log
	}
}

// Builder assembles a co-versioned Dataset from nodes and annotated edges.
// It is a fixture builder; weights and hierarchy come from the caller.
type Builder[T any] struct {
	opts   builderOptions
	coords []datastructure.FixedPointCoordinate
	edges  []pendingEdge[T]
	core   []datastructure.NodeID
}

func NewBuilder[T any](opts ...BuilderOption) *Builder[T] {
	o := builderOptions{
		smallComponentSize: DEFAULT_SMALL_COMPONENT_SIZE,
		log:                zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Builder[T]{opts: o}
}

func (b *Builder[T]) AddNode(coord datastructure.FixedPointCoordinate) datastructure.NodeID {
	b.coords = append(b.coords, coord)
	return datastructure.NodeID(len(b.coords) - 1)
}

func (b *Builder[T]) AddEdge(from, to datastructure.NodeID, data T, ann EdgeAnnotation) {
	b.edges = append(b.edges, pendingEdge[T]{source: from, target: to, data: data, ann: ann})
}

// MarkCore flags n as part of the contracted core.
func (b *Builder[T]) MarkCore(n datastructure.NodeID) {
	b.core = append(b.core, n)
}

func (b *Builder[T]) Build() (*Dataset[T], error) {
	numNodes := len(b.coords)
	for _, e := range b.edges {
		if int(e.source) >= numNodes || int(e.target) >= numNodes {
			return nil, fmt.Errorf("%w: edge %d->%d references a node outside [0, %d)", ErrInvalidDataset, e.source, e.target, numNodes)
		}
	}
	for _, n := range b.core {
		if int(n) >= numNodes {
			return nil, fmt.Errorf("%w: core node %d outside [0, %d)", ErrInvalidDataset, n, numNodes)
		}
	}

	edges := make([]pendingEdge[T], len(b.edges))
	copy(edges, b.edges)
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].source < edges[j].source
	})

	input := make([]graph.InputEdge[T], 0, len(edges))
	for _, e := range edges {
		input = append(input, graph.NewInputEdge(e.source, e.target, e.data))
	}
	static := graph.NewStaticGraph(numNodes, input)

	coords := make([]datastructure.FixedPointCoordinate, numNodes, numNodes+len(edges))
	copy(coords, b.coords)

	geometry := datastructure.NewGeometryTable()
	edgeInfo := datastructure.NewEdgeInfoTable(len(edges))
	nameIDs := make(map[string]datastructure.NameID)
	names := make([]string, 0)

	for _, e := range edges {
		nameID, ok := nameIDs[e.ann.Name]
		if !ok {
			nameID = datastructure.NameID(len(names))
			nameIDs[e.ann.Name] = nameID
			names = append(names, e.ann.Name)
		}

		geometryID := datastructure.InvalidGeometryID
		if len(e.ann.Shape) > 0 {
			shapeNodes := make([]datastructure.NodeID, 0, len(e.ann.Shape))
			for _, c := range e.ann.Shape {
				shapeNodes = append(shapeNodes, datastructure.NodeID(len(coords)))
				coords = append(coords, c)
			}
			geometryID = geometry.Add(shapeNodes)
		}
		edgeInfo.Append(e.ann.Turn, e.ann.Mode, nameID, geometryID)
	}

	core := bitset.New(uint(numNodes))
	for _, n := range b.core {
		core.Set(uint(n))
	}

	ts := b.opts.timestamp
	if ts == "" {
		ts = time.Now().UTC().Format(time.RFC3339)
	}

	d := &Dataset[T]{
		Graph:       static,
		Coordinates: coords,
		Geometry:    geometry,
		EdgeInfo:    edgeInfo,
		Names:       datastructure.NewNameTable(names),
		Core:        core,
		Timestamp:   ts,
	}
	d.Segments = buildSegments(d, graph.StronglyConnectedComponents(static), b.opts.smallComponentSize)

	bodies, err := d.encodeBodies()
	if err != nil {
		return nil, err
	}
	d.Checksum = checksum(bodies)

	b.opts.log.Info().
		Int("nodes", numNodes).
		Int("edges", len(edges)).
		Int("segments", len(d.Segments)).
		Int("names", len(names)).
		Uint32("checksum", d.Checksum).
		Msg("dataset built")
	return d, nil
}

// edgeNodes lists source, intermediate nodes and target of edge e.
func edgeNodes[T any](d *Dataset[T], e datastructure.EdgeID) []datastructure.NodeID {
	nodes := []datastructure.NodeID{d.Graph.Source(e)}
	if id, ok := d.EdgeInfo.GeometryID(e); ok {
		nodes = append(nodes, d.Geometry.Entry(id)...)
	}
	return append(nodes, d.Graph.Target(e))
}

// sameReversedShape reports whether b runs over the coordinates of a backwards.
func sameReversedShape(coords []datastructure.FixedPointCoordinate, a, b []datastructure.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if coords[a[i]] != coords[b[len(b)-1-i]] {
			return false
		}
	}
	return true
}

// buildSegments cuts every edge geometry into straight road segments. An edge
// and an edge running back over the same geometry share their segments, the
// lower edge id becomes the forward edge.
func buildSegments[T any](d *Dataset[T], scc graph.Components, smallComponentSize int) []datastructure.RoadSegment {
	numEdges := d.Graph.NumberOfEdges()
	paired := make([]bool, numEdges)
	segments := make([]datastructure.RoadSegment, 0, numEdges)

	for i := 0; i < numEdges; i++ {
		e := datastructure.EdgeID(i)
		if paired[e] {
			continue
		}
		source, target := d.Graph.Source(e), d.Graph.Target(e)
		nodes := edgeNodes(d, e)

		reverse := datastructure.InvalidEdgeID
		for _, candidate := range d.Graph.AdjacentEdgeRange(target).Edges() {
			if candidate <= e || paired[candidate] || d.Graph.Target(candidate) != source {
				continue
			}
			if sameReversedShape(d.Coordinates, nodes, edgeNodes(d, candidate)) {
				reverse = candidate
				paired[candidate] = true
				break
			}
		}

		lengths := make([]float64, len(nodes)-1)
		edgeLength := 0.0
		for j := 0; j+1 < len(nodes); j++ {
			u, v := d.Coordinates[nodes[j]], d.Coordinates[nodes[j+1]]
			lengths[j] = geo.GreatCircleDistance(u.LatDegrees(), u.LonDegrees(), v.LatDegrees(), v.LonDegrees())
			edgeLength += lengths[j]
		}

		component := datastructure.Component{
			ID:     scc.Of[source],
			IsTiny: scc.SizeOf(source) < smallComponentSize,
		}

		offset := 0.0
		for j := 0; j+1 < len(nodes); j++ {
			segments = append(segments, datastructure.RoadSegment{
				ForwardEdgeID:      e,
				ReverseEdgeID:      reverse,
				Source:             source,
				Target:             target,
				U:                  nodes[j],
				V:                  nodes[j+1],
				UCoord:             d.Coordinates[nodes[j]],
				VCoord:             d.Coordinates[nodes[j+1]],
				NameID:             d.EdgeInfo.NameID(e),
				Component:          component,
				TravelMode:         d.EdgeInfo.TravelMode(e),
				FwdSegmentPosition: uint32(j),
				SegmentOffset:      offset,
				EdgeLength:         edgeLength,
			})
			offset += lengths[j]
		}
	}
	return segments
}
