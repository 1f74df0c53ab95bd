package kv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/kelindar/binary"
	"github.com/rs/zerolog"
	"github.com/uber/h3-go/v4"

	"github.com/lintang-b-s/roadfacade/pkg/concurrent"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

const (
	H3_RESOLUTION = 9
	// SAMPLE_INTERVAL is the max distance in metres between two sampled points of a segment.
	SAMPLE_INTERVAL = 50.0

	cellKeyPrefix   = "cell/"
	metaChecksumKey = "meta/checksum"
	batchSize       = 1000
	cellEdgeSlack   = 0.9
)

var (
	ErrIndexNotBuilt = errors.New("cell index not built")
)

// CellIndex stores road segments bucketed by the H3 cells they pass through.
type CellIndex struct {
	db  *badger.DB
	log zerolog.Logger
}

func NewCellIndex(db *badger.DB, log zerolog.Logger) *CellIndex {
	return &CellIndex{db: db, log: log}
}

// OpenCellIndex opens a badger directory. Several read-only processes may attach to one directory.
func OpenCellIndex(dir string, readOnly bool, log zerolog.Logger) (*CellIndex, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithReadOnly(readOnly).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open cell index %s: %w", dir, err)
	}
	return NewCellIndex(db, log), nil
}

func OpenInMemoryCellIndex(log zerolog.Logger) (*CellIndex, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in memory cell index: %w", err)
	}
	return NewCellIndex(db, log), nil
}

func cellKey(cell h3.Cell) []byte {
	return []byte(cellKeyPrefix + cell.String())
}

func pointCell(lat, lon float64) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(lat, lon), H3_RESOLUTION)
}

// segmentCells lists the cells of points sampled along seg at most SAMPLE_INTERVAL apart.
func segmentCells(seg datastructure.RoadSegment) []h3.Cell {
	u := geo.NewCoordinate(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees())
	v := geo.NewCoordinate(seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees())
	pieces := int(math.Ceil(geo.GreatCircleDistance(u.Lat, u.Lon, v.Lat, v.Lon) / SAMPLE_INTERVAL))

	cells := []h3.Cell{pointCell(u.Lat, u.Lon)}
	for i := 1; i <= pieces; i++ {
		p := geo.Interpolate(u, v, float64(i)/float64(pieces))
		cell := pointCell(p.Lat, p.Lon)
		if cell != cells[len(cells)-1] {
			cells = append(cells, cell)
		}
	}
	return cells
}

type cellBucket struct {
	cell     h3.Cell
	segments []datastructure.RoadSegment
}

type encodedBucket struct {
	key []byte
	val []byte
	err error
}

// Build buckets every segment and writes the buckets with the dataset checksum.
func (k *CellIndex) Build(ctx context.Context, segments []datastructure.RoadSegment, checksum uint32) error {
	k.log.Info().Int("segments", len(segments)).Msg("creating h3 indexed road segments")

	buckets := make(map[h3.Cell][]datastructure.RoadSegment)
	for _, seg := range segments {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		seen := make(map[h3.Cell]struct{})
		for _, cell := range segmentCells(seg) {
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			buckets[cell] = append(buckets[cell], seg)
		}
	}

	cells := make([]h3.Cell, 0, len(buckets))
	for cell := range buckets {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i] < cells[j]
	})

	workers := concurrent.NewWorkerPool[cellBucket, encodedBucket](runtime.NumCPU(), len(cells))
	for _, cell := range cells {
		workers.AddJob(cellBucket{cell: cell, segments: buckets[cell]})
	}
	workers.Close()
	workers.Start(func(b cellBucket) encodedBucket {
		val, err := encodeSegments(b.segments)
		return encodedBucket{key: cellKey(b.cell), val: val, err: err}
	})
	workers.Wait()

	batch := make([]encodedBucket, 0, batchSize)
	for encoded := range workers.CollectResults() {
		if encoded.err != nil {
			return fmt.Errorf("encode cell bucket %s: %w", encoded.key, encoded.err)
		}
		batch = append(batch, encoded)
		if len(batch) == batchSize {
			if err := k.saveBatch(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := k.saveBatch(ctx, batch); err != nil {
			return err
		}
	}

	meta, err := binary.Marshal(checksum)
	if err != nil {
		return err
	}
	if err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaChecksumKey), meta)
	}); err != nil {
		return fmt.Errorf("save cell index checksum: %w", err)
	}

	k.log.Info().Int("cells", len(cells)).Uint32("checksum", checksum).Msg("creating h3 indexed road segments done")
	return nil
}

func (k *CellIndex) saveBatch(ctx context.Context, buckets []encodedBucket) error {
	batch := k.db.NewWriteBatch()
	defer batch.Cancel()

	for _, b := range buckets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := batch.Set(b.key, b.val); err != nil {
			return err
		}
	}

	if err := batch.Flush(); err != nil {
		k.log.Error().Err(err).Msg("error saving cell buckets")
		return err
	}
	k.log.Debug().Int("cells", len(buckets)).Msg("saved cell buckets")
	return nil
}

// Checksum returns the checksum of the dataset the index was built from.
func (k *CellIndex) Checksum() (uint32, error) {
	var checksum uint32
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaChecksumKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrIndexNotBuilt
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return binary.Unmarshal(val, &checksum)
	})
	return checksum, err
}

// ringsFor returns the grid disk size covering every point within radius
// metres of any point inside origin, plus the sampling slack. The disk of k
// rings reaches at least 1.5*edge*k from the origin centre; edge is the
// shortest edge of origin shrunk by cellEdgeSlack for distortion of the cells
// around it.
func ringsFor(origin h3.Cell, radius float64) int {
	edge := math.Inf(1)
	for _, e := range origin.DirectedEdges() {
		if l := h3.EdgeLengthM(e); l > 0 {
			edge = min(edge, l)
		}
	}
	if math.IsInf(edge, 1) {
		edge = h3.HexagonEdgeLengthAvgM(H3_RESOLUTION)
	}
	edge *= cellEdgeSlack

	return int(math.Ceil((radius + SAMPLE_INTERVAL/2 + 2*edge) / (1.5 * edge)))
}

type segmentKey struct {
	edge     datastructure.EdgeID
	position uint32
}

func (k *CellIndex) SegmentsWithin(center datastructure.FixedPointCoordinate, radius float64) ([]datastructure.RoadSegment, error) {
	origin := pointCell(center.LatDegrees(), center.LonDegrees())
	cells := h3.GridDisk(origin, ringsFor(origin, radius))

	seen := make(map[segmentKey]struct{})
	segments := make([]datastructure.RoadSegment, 0)
	err := k.db.View(func(txn *badger.Txn) error {
		for _, cell := range cells {
			item, err := txn.Get(cellKey(cell))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			bucket, err := decodeSegments(val)
			if err != nil {
				return fmt.Errorf("decode cell bucket %s: %w", cell, err)
			}
			for _, seg := range bucket {
				key := segmentKey{edge: seg.ForwardEdgeID, position: seg.FwdSegmentPosition}
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				segments = append(segments, seg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (k *CellIndex) Close() error {
	return k.db.Close()
}
