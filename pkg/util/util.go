package util

import (
	"math"
)

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func ReverseG[T any](arr []T) []T {
	copyArr := make([]T, len(arr)) // should do on the copy )
	copy(copyArr, arr)
	for i, j := 0, len(copyArr)-1; i < j; i, j = i+1, j-1 {
		copyArr[i], copyArr[j] = copyArr[j], copyArr[i]
	}
	return copyArr
}

// UpperBound returns the first index i with arr[i] > target, arr sorted ascending.
func UpperBound[T ~uint32 | ~int32 | ~int](arr []T, target T) int {
	left, right := 0, len(arr)
	for left < right {
		mid := left + (right-left)/2
		if arr[mid] <= target {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}

// BitPack stores high above the lowest offset bits of low.
func BitPack(low uint32, high uint32, offset uint) uint32 {
	return high<<offset | low&bitmask(offset)
}

func BitUnpack(packed uint32, offset uint) (uint32, uint32) {
	return packed & bitmask(offset), packed >> offset
}

func BitPackBool(packed uint32, b bool, bit uint) uint32 {
	if b {
		return packed | 1<<bit
	}
	return packed &^ (1 << bit)
}

func BitUnpackBool(packed uint32, bit uint) bool {
	return packed&(1<<bit) != 0
}

func bitmask(bits uint) uint32 {
	if bits >= 32 {
		return math.MaxUint32
	}
	return 1<<bits - 1
}
