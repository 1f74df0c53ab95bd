package spatial

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/geo"
)

const (
	DEFAULT_MAX_SEARCH_RADIUS = 20000.0
	// initial radius of the expanding search over non incremental indexes.
	INITIAL_SEARCH_RADIUS = 50.0
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

type GeospatialQuery struct {
	index           SegmentIndex
	maxSearchRadius float64
	log             zerolog.Logger
}

type Option func(*GeospatialQuery)

func WithLogger(log zerolog.Logger) Option {
	return func(q *GeospatialQuery) {
		q.log = log
	}
}

// WithMaxSearchRadius bounds the searches that have no caller given bound:
// the big component query and k-nearest queries over non incremental indexes.
func WithMaxSearchRadius(radius float64) Option {
	return func(q *GeospatialQuery) {
		if radius > 0 {
			q.maxSearchRadius = radius
		}
	}
}

func NewGeospatialQuery(index SegmentIndex, opts ...Option) *GeospatialQuery {
	q := &GeospatialQuery{
		index:           index,
		maxSearchRadius: DEFAULT_MAX_SEARCH_RADIUS,
		log:             zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

type queryOptions struct {
	bearing bearingFilter
}

type QueryOption func(*queryOptions)

// WithBearing keeps candidates whose heading deviates at most bearingRange/2
// degrees from bearing.
func WithBearing(bearing, bearingRange float64) QueryOption {
	return func(o *queryOptions) {
		o.bearing = newBearingFilter(bearing, bearingRange)
	}
}

func newQueryOptions(opts []QueryOption) queryOptions {
	o := queryOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkCoordinate(coord datastructure.FixedPointCoordinate) error {
	if !coord.IsValid() {
		return fmt.Errorf("%w: lat %f lon %f", ErrInvalidCoordinate, coord.LatDegrees(), coord.LonDegrees())
	}
	return nil
}

func (q *GeospatialQuery) incremental() bool {
	_, ok := q.index.(IncrementalIndex)
	return ok
}

// visitCandidates hands accepted candidates to visit in non-decreasing
// distance, up to limit metres. Returning false stops the search.
func (q *GeospatialQuery) visitCandidates(coord datastructure.FixedPointCoordinate, o queryOptions, limit float64,
	visit func(PhantomNodeWithDistance) bool) error {
	if incremental, ok := q.index.(IncrementalIndex); ok {
		incremental.IncrementalNearest(coord, func(seg datastructure.RoadSegment, proj geo.SegmentProjection) bool {
			if proj.Distance > limit {
				return false
			}
			phantom, ok := newPhantomNode(seg, proj, o.bearing)
			if !ok {
				return true
			}
			return visit(phantom)
		})
		return nil
	}
	return q.expandingSearch(coord, o, limit, visit)
}

// expandingSearch doubles the search radius until visit stops or limit is
// covered. Each round only reports candidates beyond the
// previous radius, so the overall order stays sorted.
func (q *GeospatialQuery) expandingSearch(coord datastructure.FixedPointCoordinate, o queryOptions, limit float64,
	visit func(PhantomNodeWithDistance) bool) error {
	proj := geo.NewLocalProjection(coord.LatDegrees(), coord.LonDegrees())

	inner := -1.0
	radius := INITIAL_SEARCH_RADIUS
	for {
		radius = min(radius, limit)
		segments, err := q.index.SegmentsWithin(coord, radius)
		if err != nil {
			return fmt.Errorf("segments within %.0fm: %w", radius, err)
		}

		round := make([]PhantomNodeWithDistance, 0, len(segments))
		for _, seg := range segments {
			p := proj.ProjectOntoSegment(seg.UCoord.LatDegrees(), seg.UCoord.LonDegrees(),
				seg.VCoord.LatDegrees(), seg.VCoord.LonDegrees())
			if p.Distance <= inner || p.Distance > radius {
				continue
			}
			if phantom, ok := newPhantomNode(seg, p, o.bearing); ok {
				round = append(round, phantom)
			}
		}
		sort.Slice(round, func(i, j int) bool {
			return lessPhantom(round[i], round[j])
		})
		for _, phantom := range round {
			if !visit(phantom) {
				return nil
			}
		}

		if radius >= limit {
			q.log.Debug().Float64("radius", radius).Msg("expanding search reached its limit")
			return nil
		}
		inner = radius
		radius *= 2
	}
}

// NearestPhantomNodesInRange returns every candidate within maxDistance metres, nearest first.
func (q *GeospatialQuery) NearestPhantomNodesInRange(coord datastructure.FixedPointCoordinate, maxDistance float64,
	opts ...QueryOption) ([]PhantomNodeWithDistance, error) {
	if err := checkCoordinate(coord); err != nil {
		return nil, err
	}
	results := make([]PhantomNodeWithDistance, 0)
	if maxDistance < 0 {
		return results, nil
	}

	err := q.visitCandidates(coord, newQueryOptions(opts), maxDistance, func(p PhantomNodeWithDistance) bool {
		if p.Distance > maxDistance {
			return false
		}
		results = append(results, p)
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return lessPhantom(results[i], results[j])
	})
	return results, nil
}

// NearestPhantomNodes returns the maxResults nearest candidates. Candidates
// tied with the last one are collected before the cut, so a query for k+1
// results extends the one for k. Only non incremental indexes stop at the
// max search radius.
func (q *GeospatialQuery) NearestPhantomNodes(coord datastructure.FixedPointCoordinate, maxResults int,
	opts ...QueryOption) ([]PhantomNodeWithDistance, error) {
	if err := checkCoordinate(coord); err != nil {
		return nil, err
	}
	results := make([]PhantomNodeWithDistance, 0, max(maxResults, 0))
	if maxResults <= 0 {
		return results, nil
	}

	limit := q.maxSearchRadius
	if q.incremental() {
		limit = math.Inf(1)
	}
	err := q.visitCandidates(coord, newQueryOptions(opts), limit, func(p PhantomNodeWithDistance) bool {
		if len(results) >= maxResults && p.Distance > results[len(results)-1].Distance {
			return false
		}
		results = append(results, p)
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return lessPhantom(results[i], results[j])
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// NearestPhantomNodeWithAlternativeFromBigComponent returns the nearest
// candidate and the nearest candidate outside a tiny component. ok is false
// when no big component candidate lies within the max search radius.
func (q *GeospatialQuery) NearestPhantomNodeWithAlternativeFromBigComponent(coord datastructure.FixedPointCoordinate,
	opts ...QueryOption) (PhantomNodePair, bool, error) {
	if err := checkCoordinate(coord); err != nil {
		return PhantomNodePair{}, false, err
	}

	var (
		pair        PhantomNodePair
		haveNearest bool
		nearestTies []PhantomNodeWithDistance
		bigTies     []PhantomNodeWithDistance
	)
	err := q.visitCandidates(coord, newQueryOptions(opts), q.maxSearchRadius, func(p PhantomNodeWithDistance) bool {
		if len(bigTies) > 0 && p.Distance > bigTies[0].Distance {
			return false
		}
		if !haveNearest || p.Distance == nearestTies[0].Distance {
			haveNearest = true
			nearestTies = append(nearestTies, p)
		}
		if !p.Component.IsTiny {
			bigTies = append(bigTies, p)
		}
		return true
	})
	if err != nil {
		return PhantomNodePair{}, false, err
	}
	if len(bigTies) == 0 {
		return PhantomNodePair{}, false, nil
	}

	pair.Nearest = minPhantom(nearestTies)
	pair.BigComponent = minPhantom(bigTies)
	if !pair.Nearest.Component.IsTiny {
		pair.BigComponent = pair.Nearest
	}
	return pair, true, nil
}

func minPhantom(candidates []PhantomNodeWithDistance) PhantomNodeWithDistance {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if lessPhantom(c, best) {
			best = c
		}
	}
	return best
}
