package paircorr

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated after each process call.
type Metrics struct {
	// NodePairs counts node pairs by outcome: pruned, aggregated, split or
	// leaves (exact point-by-point pairing).
	NodePairs *prometheus.CounterVec
	// PointPairs counts point pairs evaluated one by one.
	PointPairs *prometheus.CounterVec
	// ProcessDuration tracks the wall time of process calls.
	ProcessDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		NodePairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paircorr_node_pairs_total",
			Help: "Node pairs visited by the dual-tree traversal, by outcome",
		}, []string{"kind", "outcome"}),
		PointPairs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paircorr_point_pairs_total",
			Help: "Point pairs evaluated individually",
		}, []string{"kind"}),
		ProcessDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paircorr_process_duration_seconds",
			Help:    "Duration of correlation process calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
		}, []string{"kind", "mode"}),
	}
}

// traversalStats are per-worker counters, summed after the workers finish.
type traversalStats struct {
	pruned     int64
	aggregated int64
	split      int64
	leaves     int64
	pointPairs int64
}

func (s *traversalStats) add(o traversalStats) {
	s.pruned += o.pruned
	s.aggregated += o.aggregated
	s.split += o.split
	s.leaves += o.leaves
	s.pointPairs += o.pointPairs
}

func (m *Metrics) observe(kind Kind, mode string, st traversalStats, elapsed time.Duration) {
	if m == nil {
		return
	}
	k := kind.String()
	m.NodePairs.WithLabelValues(k, "pruned").Add(float64(st.pruned))
	m.NodePairs.WithLabelValues(k, "aggregated").Add(float64(st.aggregated))
	m.NodePairs.WithLabelValues(k, "split").Add(float64(st.split))
	m.NodePairs.WithLabelValues(k, "leaves").Add(float64(st.leaves))
	m.PointPairs.WithLabelValues(k).Add(float64(st.pointPairs))
	m.ProcessDuration.WithLabelValues(k, mode).Observe(elapsed.Seconds())
}
