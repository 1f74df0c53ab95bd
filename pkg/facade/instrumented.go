package facade

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/spatial"
)

type Metrics struct {
	queries  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	checksum prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roadfacade",
			Name:      "snap_queries_total",
			Help:      "Number of snapping queries by operation and outcome.",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roadfacade",
			Name:      "snap_query_duration_seconds",
			Help:      "Latency of snapping queries.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}, []string{"op"}),
		checksum: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "roadfacade",
			Name:      "dataset_checksum",
			Help:      "Checksum of the dataset currently served.",
		}),
	}
	reg.MustRegister(m.queries, m.latency, m.checksum)
	return m
}

func (m *Metrics) observe(op string, start time.Time, found bool, err error) {
	result := "found"
	switch {
	case err != nil:
		result = "error"
	case !found:
		result = "empty"
	}
	m.queries.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Instrumented records metrics for the spatial queries of a facade and
// forwards everything else.
type Instrumented[T any] struct {
	DataFacade[T]
	metrics *Metrics
}

func NewInstrumented[T any](f DataFacade[T], m *Metrics) *Instrumented[T] {
	m.checksum.Set(float64(f.CheckSum()))
	return &Instrumented[T]{DataFacade: f, metrics: m}
}

func (f *Instrumented[T]) NearestPhantomNodesInRange(coord datastructure.FixedPointCoordinate, maxDistance float64,
	opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error) {
	start := time.Now()
	results, err := f.DataFacade.NearestPhantomNodesInRange(coord, maxDistance, opts...)
	f.metrics.observe("nearest_in_range", start, len(results) > 0, err)
	return results, err
}

func (f *Instrumented[T]) NearestPhantomNodes(coord datastructure.FixedPointCoordinate, maxResults int,
	opts ...spatial.QueryOption) ([]spatial.PhantomNodeWithDistance, error) {
	start := time.Now()
	results, err := f.DataFacade.NearestPhantomNodes(coord, maxResults, opts...)
	f.metrics.observe("nearest", start, len(results) > 0, err)
	return results, err
}

func (f *Instrumented[T]) NearestPhantomNodeWithAlternativeFromBigComponent(coord datastructure.FixedPointCoordinate,
	opts ...spatial.QueryOption) (spatial.PhantomNodePair, bool, error) {
	start := time.Now()
	pair, ok, err := f.DataFacade.NearestPhantomNodeWithAlternativeFromBigComponent(coord, opts...)
	f.metrics.observe("nearest_big_component", start, ok, err)
	return pair, ok, err
}

func (f *Instrumented[T]) NearestNode(coord datastructure.FixedPointCoordinate) (datastructure.NodeID, bool) {
	start := time.Now()
	n, ok := f.DataFacade.NearestNode(coord)
	f.metrics.observe("nearest_node", start, ok, nil)
	return n, ok
}

func (f *Instrumented[T]) Close() error {
	if closer, ok := f.DataFacade.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
