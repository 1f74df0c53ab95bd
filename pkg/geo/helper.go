package geo

import (
	"container/list"
)

const (
	DOUGLAS_PEUCKER_THRESHOLDS = 7.0 // 7 meter
)

// https://cartography-playground.gitlab.io/playgrounds/douglas-peucker-algorithm/

// RamerDouglasPeucker drops shape points closer than threshold metres to the
// line through their kept neighbours. The first and last point always stay.
func RamerDouglasPeucker(coords []Coordinate, threshold float64) []Coordinate {
	size := len(coords)
	if size < 3 {
		return coords
	}
	if threshold <= 0 {
		threshold = DOUGLAS_PEUCKER_THRESHOLDS
	}

	kept := make([]bool, size)
	kept[0] = true
	kept[size-1] = true

	stack := list.New()
	stack.PushBack([2]int{0, size - 1})

	for stack.Len() > 0 {
		pair := stack.Remove(stack.Back()).([2]int)
		left, right := pair[0], pair[1]

		maxDist := 0.0
		farthest := left
		for i := left + 1; i < right; i++ {
			dist := PerpendicularDistance(coords[left], coords[right], coords[i])
			if dist > maxDist {
				maxDist = dist
				farthest = i
			}
		}

		if maxDist > threshold {
			kept[farthest] = true
			if left+1 < farthest {
				stack.PushBack([2]int{left, farthest})
			}
			if farthest+1 < right {
				stack.PushBack([2]int{farthest, right})
			}
		}
	}

	simplified := make([]Coordinate, 0, size)
	for i, keep := range kept {
		if keep {
			simplified = append(simplified, coords[i])
		}
	}
	return simplified
}
