package datastructure

import (
	"math"

	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

// BoundingBox is a lat/lon rectangle in degrees.
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// NewBoundingBox returns the smallest box containing both {lat, lon} points.
func NewBoundingBox(a, b [2]float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(a[0], b[0]),
		MinLon: math.Min(a[1], b[1]),
		MaxLat: math.Max(a[0], b[0]),
		MaxLon: math.Max(a[1], b[1]),
	}
}

// Union returns the smallest box containing b and bb.
func (b BoundingBox) Union(bb BoundingBox) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(b.MinLat, bb.MinLat),
		MinLon: math.Min(b.MinLon, bb.MinLon),
		MaxLat: math.Max(b.MaxLat, bb.MaxLat),
		MaxLon: math.Max(b.MaxLon, bb.MaxLon),
	}
}

func (b BoundingBox) area() float64 {
	return (b.MaxLat - b.MinLat) * (b.MaxLon - b.MinLon)
}

// Overlaps checks if two bounding boxes overlap. Touching boxes overlap.
func (b BoundingBox) Overlaps(bb BoundingBox) bool {
	return b.MinLat <= bb.MaxLat && bb.MinLat <= b.MaxLat &&
		b.MinLon <= bb.MaxLon && bb.MinLon <= b.MaxLon
}

func (b BoundingBox) IsSame(bb BoundingBox) bool {
	return b == bb
}

func (b BoundingBox) axis(i int) (float64, float64) {
	if i == 0 {
		return b.MinLat, b.MaxLat
	}
	return b.MinLon, b.MaxLon
}

// RtreeNode is either an internal node, a leaf node (IsLeaf, Items are
// records) or a record holding one RoadSegment (IsRecord, no Items).
type RtreeNode struct {
	Items  []*RtreeNode
	Parent *RtreeNode
	Bound  BoundingBox

	IsLeaf   bool
	IsRecord bool
	Leaf     RoadSegment
}

func (node *RtreeNode) computeBound() BoundingBox {
	if len(node.Items) == 0 {
		return BoundingBox{}
	}
	bb := node.Items[0].Bound
	for i := 1; i < len(node.Items); i++ {
		bb = bb.Union(node.Items[i].Bound)
	}
	return bb
}

// Rtree is a Guttman R-tree over road segments. Inserts are not safe for
// concurrent use, queries on a built tree are.
type Rtree struct {
	Root          *RtreeNode
	Size          int
	MinChildItems int
	MaxChildItems int
	Height        int
}

func NewRtree(minChildItems, maxChildItems int) *Rtree {
	return &Rtree{
		Root: &RtreeNode{
			IsLeaf: true,
			Items:  make([]*RtreeNode, 0, maxChildItems+1),
		},
		Height:        1,
		MinChildItems: minChildItems,
		MaxChildItems: maxChildItems,
	}
}

// NewRtreeFromSegments inserts every segment into a new tree.
func NewRtreeFromSegments(segments []RoadSegment, minChildItems, maxChildItems int) *Rtree {
	rt := NewRtree(minChildItems, maxChildItems)
	for _, seg := range segments {
		rt.Insert(seg)
	}
	return rt
}

func (rt *Rtree) Insert(seg RoadSegment) {
	record := &RtreeNode{Bound: seg.Bound(), Leaf: seg, IsRecord: true}

	leafNode := rt.chooseLeaf(rt.Root, record.Bound)
	leafNode.Items = append(leafNode.Items, record)
	record.Parent = leafNode
	rt.Size++

	var l, ll *RtreeNode
	l = leafNode
	if len(leafNode.Items) > rt.MaxChildItems {
		l, ll = rt.SplitNode(leafNode)
	}

	p, pp := rt.adjustTree(l, ll)
	if pp != nil {
		// grow tree taller, the root was split.
		rt.Root = &RtreeNode{Items: []*RtreeNode{p, pp}}
		p.Parent = rt.Root
		pp.Parent = rt.Root
		rt.Height++
		rt.Root.Bound = rt.Root.computeBound()
	}
}

// adjustTree walks from n to the root fixing covering boxes and propagating
// the split partner nn upward.
func (rt *Rtree) adjustTree(n, nn *RtreeNode) (*RtreeNode, *RtreeNode) {
	for n != rt.Root {
		p := n.Parent
		n.Bound = n.computeBound()

		if nn != nil {
			nn.Bound = nn.computeBound()
			nn.Parent = p
			p.Items = append(p.Items, nn)
			if len(p.Items) > rt.MaxChildItems {
				n, nn = rt.SplitNode(p)
				continue
			}
		}
		n, nn = p, nil
	}

	n.Bound = n.computeBound()
	if nn != nil {
		nn.Bound = nn.computeBound()
	}
	return n, nn
}

// SplitNode distributes the entries of l over l and a new sibling.
func (rt *Rtree) SplitNode(l *RtreeNode) (*RtreeNode, *RtreeNode) {
	seedOne, seedTwo := rt.linearPickSeeds(l)

	remaining := make([]*RtreeNode, 0, len(l.Items)-2)
	for _, item := range l.Items {
		if item != seedOne && item != seedTwo {
			remaining = append(remaining, item)
		}
	}

	groupOne := l
	groupOne.Items = make([]*RtreeNode, 0, rt.MaxChildItems+1)
	groupOne.Items = append(groupOne.Items, seedOne)
	seedOne.Parent = groupOne
	groupOne.Bound = seedOne.Bound

	groupTwo := &RtreeNode{
		Parent: l.Parent,
		Items:  make([]*RtreeNode, 0, rt.MaxChildItems+1),
		IsLeaf: l.IsLeaf,
		Bound:  seedTwo.Bound,
	}
	groupTwo.Items = append(groupTwo.Items, seedTwo)
	seedTwo.Parent = groupTwo

	assign := func(group *RtreeNode, entry *RtreeNode) {
		group.Items = append(group.Items, entry)
		group.Bound = group.Bound.Union(entry.Bound)
		entry.Parent = group
	}

	for len(remaining) > 0 {
		// a group that needs every remaining entry to reach the minimum takes them all.
		if len(groupOne.Items)+len(remaining) <= rt.MinChildItems {
			for _, entry := range remaining {
				assign(groupOne, entry)
			}
			break
		}
		if len(groupTwo.Items)+len(remaining) <= rt.MinChildItems {
			for _, entry := range remaining {
				assign(groupTwo, entry)
			}
			break
		}

		next := rt.pickNext(groupOne, groupTwo, remaining)
		entry := remaining[next]

		enlargedOne := groupOne.Bound.Union(entry.Bound)
		enlargementOne := enlargedOne.area() - groupOne.Bound.area()
		enlargedTwo := groupTwo.Bound.Union(entry.Bound)
		enlargementTwo := enlargedTwo.area() - groupTwo.Bound.area()

		// least enlargement, then smaller area, then fewer entries.
		switch {
		case enlargementOne < enlargementTwo:
			assign(groupOne, entry)
		case enlargementOne > enlargementTwo:
			assign(groupTwo, entry)
		case groupOne.Bound.area() < groupTwo.Bound.area():
			assign(groupOne, entry)
		case groupOne.Bound.area() > groupTwo.Bound.area():
			assign(groupTwo, entry)
		case len(groupOne.Items) <= len(groupTwo.Items):
			assign(groupOne, entry)
		default:
			assign(groupTwo, entry)
		}

		remaining = append(remaining[:next], remaining[next+1:]...)
	}

	return groupOne, groupTwo
}

// pickNext chooses the entry with the greatest preference for one group.
func (rt *Rtree) pickNext(groupOne, groupTwo *RtreeNode, remaining []*RtreeNode) int {
	chosen := 0
	maxDiff := math.Inf(-1)
	for i, entry := range remaining {
		d1 := groupOne.Bound.Union(entry.Bound).area() - groupOne.Bound.area()
		d2 := groupTwo.Bound.Union(entry.Bound).area() - groupTwo.Bound.area()

		if d := math.Abs(d1 - d2); d > maxDiff {
			chosen = i
			maxDiff = d
		}
	}
	return chosen
}

// linearPickSeeds picks the pair with the greatest normalized separation
// along either axis.
func (rt *Rtree) linearPickSeeds(l *RtreeNode) (*RtreeNode, *RtreeNode) {
	seedOne, seedTwo := 0, 1

	greatestSeparation := math.Inf(-1)
	for axis := 0; axis < 2; axis++ {
		lowestHighSide, highestLowSide := math.Inf(1), math.Inf(-1)
		lowestLowSide, highestHighSide := math.Inf(1), math.Inf(-1)
		lowestHighSideIdx, highestLowSideIdx := 0, 0

		for i, item := range l.Items {
			low, high := item.Bound.axis(axis)
			if low > highestLowSide {
				highestLowSide = low
				highestLowSideIdx = i
			}
			if low < lowestLowSide {
				lowestLowSide = low
			}
			if high < lowestHighSide {
				lowestHighSide = high
				lowestHighSideIdx = i
			}
			if high > highestHighSide {
				highestHighSide = high
			}
		}

		width := highestHighSide - lowestLowSide
		if width <= 0 || highestLowSideIdx == lowestHighSideIdx {
			continue
		}

		if separation := (highestLowSide - lowestHighSide) / width; separation > greatestSeparation {
			greatestSeparation = separation
			seedOne, seedTwo = highestLowSideIdx, lowestHighSideIdx
		}
	}

	return l.Items[seedOne], l.Items[seedTwo]
}

// chooseLeaf descends into the child needing least enlargement, ties go to
// the smaller child.
func (rt *Rtree) chooseLeaf(node *RtreeNode, bound BoundingBox) *RtreeNode {
	for !node.IsLeaf {
		chosen := 0
		minEnlargement := math.MaxFloat64
		minArea := math.MaxFloat64
		for i, item := range node.Items {
			itemArea := item.Bound.area()
			enlargement := item.Bound.Union(bound).area() - itemArea
			if enlargement < minEnlargement || (enlargement == minEnlargement && itemArea < minArea) {
				minEnlargement = enlargement
				minArea = itemArea
				chosen = i
			}
		}
		node = node.Items[chosen]
	}
	return node
}

// Search returns every segment whose box overlaps bound.
func (rt *Rtree) Search(bound BoundingBox) []RoadSegment {
	results := make([]RoadSegment, 0)
	if rt.Size == 0 {
		return results
	}
	return rt.search(rt.Root, bound, results)
}

func (rt *Rtree) search(node *RtreeNode, bound BoundingBox, results []RoadSegment) []RoadSegment {
	for _, e := range node.Items {
		if !e.Bound.Overlaps(bound) {
			continue
		}
		if node.IsLeaf {
			results = append(results, e.Leaf)
		} else {
			results = rt.search(e, bound, results)
		}
	}
	return results
}

// SegmentVisitor receives segments in non-decreasing distance. Returning
// false stops the search.
type SegmentVisitor func(seg RoadSegment, projection geo.SegmentProjection) bool

// IncrementalNearest visits segments by exact distance to the projection origin.
// https://dl.acm.org/doi/pdf/10.1145/320248.320255 (Fig. 4.  incremental nearest neighbor algorithm)
func (rt *Rtree) IncrementalNearest(proj geo.LocalProjection, visit SegmentVisitor) {
	if rt.Size == 0 {
		return
	}

	pq := NewMinHeap()
	pq.Insert(newRtreeQueueItem(0, rt.Root, queueNode))

	for pq.Size() > 0 {
		element, ok := pq.ExtractMin()
		if !ok {
			return
		}

		switch element.kind {
		case queueRecordBound:
			exact := projectSegment(proj, element.node.Leaf)
			if first, ok := pq.GetMin(); ok && exact.Distance > first.Rank {
				// something in the queue may still be closer.
				item := newRtreeQueueItem(exact.Distance, element.node, queueRecordExact)
				item.projection = exact
				pq.Insert(item)
				continue
			}
			if !visit(element.node.Leaf, exact) {
				return
			}
		case queueRecordExact:
			if !visit(element.node.Leaf, element.projection) {
				return
			}
		default:
			for _, child := range element.node.Items {
				kind := queueNode
				if child.IsRecord {
					kind = queueRecordBound
				}
				b := child.Bound
				pq.Insert(newRtreeQueueItem(proj.DistanceToBox(b.MinLat, b.MinLon, b.MaxLat, b.MaxLon), child, kind))
			}
		}
	}
}

// NearestNeighbours returns the k segments closest to the projection origin.
func (rt *Rtree) NearestNeighbours(proj geo.LocalProjection, k int) []RoadSegment {
	nearest := make([]RoadSegment, 0, k)
	if k <= 0 {
		return nearest
	}
	rt.IncrementalNearest(proj, func(seg RoadSegment, _ geo.SegmentProjection) bool {
		nearest = append(nearest, seg)
		return len(nearest) < k
	})
	return nearest
}

func projectSegment(proj geo.LocalProjection, seg RoadSegment) geo.SegmentProjection {
	return proj.ProjectOntoSegment(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees(),
		seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees())
}
