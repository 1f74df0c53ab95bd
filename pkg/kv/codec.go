package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
)

func encodeSegments(segments []datastructure.RoadSegment) ([]byte, error) {
	bb, err := binary.Marshal(segments)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func decodeSegments(bbCompressed []byte) ([]datastructure.RoadSegment, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var segments []datastructure.RoadSegment
	if err := binary.Unmarshal(bb, &segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}
	return bb, nil
}
