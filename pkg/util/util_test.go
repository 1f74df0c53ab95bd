package util

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitPacking(t *testing.T) {
	var buf [8]byte
	packed := BitPack(129, 4, 8)
	packed = BitPackBool(packed, true, 16)
	packed = BitPackBool(packed, false, 17)
	packed = BitPackBool(packed, true, 31)

	binary.LittleEndian.PutUint32(buf[4:8], packed)
	read := binary.LittleEndian.Uint32(buf[4:8])

	low, high := BitUnpack(read, 8)
	assert.Equal(t, uint32(129), low)
	mode, _ := BitUnpack(high, 4)
	assert.Equal(t, uint32(4), mode)

	assert.True(t, BitUnpackBool(read, 16))
	assert.False(t, BitUnpackBool(read, 17))
	assert.True(t, BitUnpackBool(read, 31))

	cleared := BitPackBool(read, false, 31)
	assert.False(t, BitUnpackBool(cleared, 31))
}

func TestUpperBound(t *testing.T) {
	arr := []uint32{0, 2, 2, 5, 9}
	tests := []struct {
		target   uint32
		expected int
	}{
		{0, 1},
		{1, 1},
		{2, 3},
		{8, 4},
		{9, 5},
		{10, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, UpperBound(arr, tt.target))
	}
}

func TestReverseG(t *testing.T) {
	arr := []int{1, 2, 3}
	assert.Equal(t, []int{3, 2, 1}, ReverseG(arr))
	assert.Equal(t, []int{1, 2, 3}, arr)
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 110.777182, RoundFloat(110.77718220472673, 6))
}
