package dataset

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/graph"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

var (
	ErrInvalidDataset = errors.New("invalid dataset")
)

// Dataset is the complete, co-versioned road network a facade serves.
type Dataset[T any] struct {
	Graph *graph.StaticGraph[T]
	// Coordinates of graph nodes [0, NumberOfNodes) followed by geometry shape nodes.
	Coordinates []datastructure.FixedPointCoordinate
	Geometry    *datastructure.GeometryTable
	EdgeInfo    *datastructure.EdgeInfoTable
	// Names is nil when the dataset was loaded without its name table.
	Names    *datastructure.NameTable
	Segments []datastructure.RoadSegment
	Core     *bitset.BitSet

	Checksum  uint32
	Timestamp string
}

type graphBody[T any] struct {
	FirstEdge []datastructure.EdgeID
	Targets   []datastructure.NodeID
	Data      []T
}

type coordinatesBody struct {
	NumberOfNodes uint32
	Coordinates   []datastructure.FixedPointCoordinate
}

type segmentsBody struct {
	Segments []datastructure.RoadSegment
}

type coreBody struct {
	Words []uint64
}

type timestampBody struct {
	Value string
}

func (d *Dataset[T]) CoreSize() int {
	return int(d.Core.Count())
}

// encodeBodies serializes every resource. Name table bodies are always required.
func (d *Dataset[T]) encodeBodies() (map[storage.ResourceName][]byte, error) {
	values := map[storage.ResourceName]any{
		storage.ResourceGraph: graphBody[T]{
			FirstEdge: d.Graph.FirstEdges(),
			Targets:   d.Graph.Targets(),
			Data:      d.Graph.Data(),
		},
		storage.ResourceCoordinates: coordinatesBody{
			NumberOfNodes: uint32(d.Graph.NumberOfNodes()),
			Coordinates:   d.Coordinates,
		},
		storage.ResourceGeometry:  *d.Geometry,
		storage.ResourceEdgeInfo:  *d.EdgeInfo,
		storage.ResourceNames:     *d.Names,
		storage.ResourceSegments:  segmentsBody{Segments: d.Segments},
		storage.ResourceCore:      coreBody{Words: d.Core.Bytes()},
		storage.ResourceTimestamp: timestampBody{Value: d.Timestamp},
	}

	bodies := make(map[storage.ResourceName][]byte, len(values))
	for name, v := range values {
		body, err := storage.EncodeBody(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		bodies[name] = body
	}
	return bodies, nil
}

// Save writes every resource with the dataset checksum in its header.
func (d *Dataset[T]) Save(store storage.ResourceWriter) error {
	if d.Names == nil {
		return fmt.Errorf("%w: name table not loaded", ErrInvalidDataset)
	}
	bodies, err := d.encodeBodies()
	if err != nil {
		return err
	}
	for _, name := range storage.AllResources {
		raw, err := storage.EncodeResource(d.Checksum, bodies[name])
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := store.WriteResource(name, raw); err != nil {
			return err
		}
	}
	return nil
}

type loadOptions struct {
	skipNames bool
	log       zerolog.Logger
}

type LoadOption func(*loadOptions)

// WithoutNames verifies the name table header but leaves Names nil.
func WithoutNames() LoadOption {
	return func(o *loadOptions) {
		o.skipNames = true
	}
}

func WithLoadLogger(log zerolog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.log = log
	}
}

// Load reads every resource and fails with storage.ErrChecksumMismatch when
// their headers disagree. When all bodies are read they are hashed again and
// compared with the header checksum.
func Load[T any](store storage.ResourceReader, opts ...LoadOption) (*Dataset[T], error) {
	o := loadOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	bodies := make(map[storage.ResourceName][]byte, len(storage.AllResources))
	var first storage.ResourceName
	var sum uint32
	for i, name := range storage.AllResources {
		raw, err := store.ReadResource(name)
		if err != nil {
			return nil, err
		}

		var h storage.Header
		if name == storage.ResourceNames && o.skipNames {
			h, err = storage.ReadHeader(raw)
		} else {
			var body []byte
			h, body, err = storage.OpenResource(raw)
			bodies[name] = body
		}
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}

		if i == 0 {
			first, sum = name, h.Checksum
		} else if h.Checksum != sum {
			return nil, fmt.Errorf("%w: %s has %08x, %s has %08x", storage.ErrChecksumMismatch, first, sum, name, h.Checksum)
		}
	}

	if !o.skipNames {
		if computed := checksum(bodies); computed != sum {
			return nil, fmt.Errorf("%w: headers say %08x, content hashes to %08x", storage.ErrChecksumMismatch, sum, computed)
		}
	}

	d, err := decodeBodies[T](bodies, o.skipNames)
	if err != nil {
		return nil, err
	}
	d.Checksum = sum

	o.log.Info().
		Uint32("checksum", sum).
		Int("nodes", d.Graph.NumberOfNodes()).
		Int("edges", d.Graph.NumberOfEdges()).
		Int("segments", len(d.Segments)).
		Str("timestamp", d.Timestamp).
		Msg("dataset loaded")
	return d, nil
}

func decodeBodies[T any](bodies map[storage.ResourceName][]byte, skipNames bool) (*Dataset[T], error) {
	var g graphBody[T]
	if err := storage.DecodeBody(bodies[storage.ResourceGraph], &g); err != nil {
		return nil, err
	}
	static, err := graph.FromAdjacency(g.FirstEdge, g.Targets, g.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	var coords coordinatesBody
	if err := storage.DecodeBody(bodies[storage.ResourceCoordinates], &coords); err != nil {
		return nil, err
	}
	if int(coords.NumberOfNodes) != static.NumberOfNodes() || len(coords.Coordinates) < static.NumberOfNodes() {
		return nil, fmt.Errorf("%w: %d coordinates for %d nodes", ErrInvalidDataset, len(coords.Coordinates), static.NumberOfNodes())
	}

	geometry := &datastructure.GeometryTable{}
	if err := storage.DecodeBody(bodies[storage.ResourceGeometry], geometry); err != nil {
		return nil, err
	}

	edgeInfo := &datastructure.EdgeInfoTable{}
	if err := storage.DecodeBody(bodies[storage.ResourceEdgeInfo], edgeInfo); err != nil {
		return nil, err
	}
	if edgeInfo.Len() != static.NumberOfEdges() {
		return nil, fmt.Errorf("%w: %d edge infos for %d edges", ErrInvalidDataset, edgeInfo.Len(), static.NumberOfEdges())
	}

	var names *datastructure.NameTable
	if !skipNames {
		names = &datastructure.NameTable{}
		if err := storage.DecodeBody(bodies[storage.ResourceNames], names); err != nil {
			return nil, err
		}
	}

	var segments segmentsBody
	if err := storage.DecodeBody(bodies[storage.ResourceSegments], &segments); err != nil {
		return nil, err
	}

	var core coreBody
	if err := storage.DecodeBody(bodies[storage.ResourceCore], &core); err != nil {
		return nil, err
	}

	var ts timestampBody
	if err := storage.DecodeBody(bodies[storage.ResourceTimestamp], &ts); err != nil {
		return nil, err
	}

	return &Dataset[T]{
		Graph:       static,
		Coordinates: coords.Coordinates,
		Geometry:    geometry,
		EdgeInfo:    edgeInfo,
		Names:       names,
		Segments:    segments.Segments,
		Core:        bitset.From(core.Words),
		Timestamp:   ts.Value,
	}, nil
}

// SaveShared writes the dataset into a pebble store and additionally keys
// every street name by id for attached readers.
func (d *Dataset[T]) SaveShared(store *storage.PebbleStore) error {
	if err := d.Save(store); err != nil {
		return err
	}
	return store.WriteNames(d.Names.Names())
}
