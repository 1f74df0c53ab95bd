package datastructure

import "github.com/lintang-b-s/roadfacade/pkg/geo"

type queueItemKind uint8

const (
	// queueNode is an internal or leaf node ranked by its box.
	queueNode queueItemKind = iota
	// queueRecordBound is a record ranked by its box.
	queueRecordBound
	// queueRecordExact is a record ranked by its exact segment distance.
	queueRecordExact
)

type rtreeQueueItem struct {
	Rank       float64
	node       *RtreeNode
	kind       queueItemKind
	projection geo.SegmentProjection
}

func newRtreeQueueItem(rank float64, node *RtreeNode, kind queueItemKind) rtreeQueueItem {
	return rtreeQueueItem{Rank: rank, node: node, kind: kind}
}

// MinHeap binary heap priorityqueue
type MinHeap struct {
	heap []rtreeQueueItem
}

func NewMinHeap() *MinHeap {
	return &MinHeap{
		heap: make([]rtreeQueueItem, 0, 64),
	}
}

func (h *MinHeap) parent(index int) int {
	return (index - 1) / 2
}

// heapifyUp swaps the item at index with its parent until the heap property holds. O(logN)
func (h *MinHeap) heapifyUp(index int) {
	for index != 0 && h.heap[index].Rank < h.heap[h.parent(index)].Rank {
		h.heap[index], h.heap[h.parent(index)] = h.heap[h.parent(index)], h.heap[index]
		index = h.parent(index)
	}
}

// heapifyDown swaps the item at index with its smallest child until the heap property holds. O(logN)
func (h *MinHeap) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.heap[left].Rank < h.heap[smallest].Rank {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].Rank < h.heap[smallest].Rank {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.heap[index], h.heap[smallest] = h.heap[smallest], h.heap[index]
		index = smallest
	}
}

func (h *MinHeap) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap) Size() int {
	return len(h.heap)
}

// GetMin returns the item with the smallest rank without removing it.
func (h *MinHeap) GetMin() (rtreeQueueItem, bool) {
	if h.isEmpty() {
		return rtreeQueueItem{}, false
	}
	return h.heap[0], true
}

func (h *MinHeap) Insert(item rtreeQueueItem) {
	h.heap = append(h.heap, item)
	h.heapifyUp(len(h.heap) - 1)
}

// ExtractMin pops the item with the smallest rank. O(logN)
func (h *MinHeap) ExtractMin() (rtreeQueueItem, bool) {
	if h.isEmpty() {
		return rtreeQueueItem{}, false
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	h.heapifyDown(0)
	return root, true
}
