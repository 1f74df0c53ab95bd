package datastructure

import (
	"testing"

	"golang.org/x/exp/rand"
)

func generateRandomInteger(min int, max int) int {
	return min + rand.Intn(max-min)
}

func TestPriorityQueue(t *testing.T) {
	pq := NewMinHeap()
	if pq == nil {
		t.Errorf("PriorityQueue is nil")
	}

	for i := 0; i < 10000; i++ {
		pq.Insert(newRtreeQueueItem(float64(generateRandomInteger(0, 10000)), &RtreeNode{}, queueNode))
	}

	if _, ok := pq.GetMin(); !ok {
		t.Errorf("Error get min")
	}

	prevItem, ok := pq.ExtractMin()
	if !ok {
		t.Errorf("Error extract min")
	}

	for i := 1; i < 10000; i++ {
		item, ok := pq.ExtractMin()
		if !ok {
			t.Errorf("Error extract min")
		}

		if prevItem.Rank > item.Rank {
			t.Errorf("PriorityQueue is not sorted")
		}
		prevItem = item
	}

	if _, ok := pq.ExtractMin(); ok {
		t.Errorf("PriorityQueue should be empty")
	}
}
