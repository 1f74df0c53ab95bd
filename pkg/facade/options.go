package facade

import (
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/kv"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
)

const (
	DEFAULT_RTREE_MIN_CHILDREN = 25
	DEFAULT_RTREE_MAX_CHILDREN = 50
	DEFAULT_NAME_CACHE_SIZE    = 4096
)

type options struct {
	log             zerolog.Logger
	cellIndex       *kv.CellIndex
	rtreeMin        int
	rtreeMax        int
	maxSearchRadius float64
	nameCacheSize   int
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		log:             zerolog.Nop(),
		rtreeMin:        DEFAULT_RTREE_MIN_CHILDREN,
		rtreeMax:        DEFAULT_RTREE_MAX_CHILDREN,
		maxSearchRadius: spatial.DEFAULT_MAX_SEARCH_RADIUS,
		nameCacheSize:   DEFAULT_NAME_CACHE_SIZE,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithCellIndex snaps through the H3 cell index instead of an in memory
// R-tree. The facade takes ownership and closes the index on Close.
func WithCellIndex(idx *kv.CellIndex) Option {
	return func(o *options) {
		o.cellIndex = idx
	}
}

func WithRtreeFanout(minChildren, maxChildren int) Option {
	return func(o *options) {
		if minChildren >= 2 && maxChildren >= 2*minChildren {
			o.rtreeMin, o.rtreeMax = minChildren, maxChildren
		}
	}
}

func WithMaxSearchRadius(radius float64) Option {
	return func(o *options) {
		if radius > 0 {
			o.maxSearchRadius = radius
		}
	}
}

// WithNameCacheSize sizes the name cache of attached facades.
func WithNameCacheSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.nameCacheSize = size
		}
	}
}
