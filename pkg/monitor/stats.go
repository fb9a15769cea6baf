package monitor

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkloadStats counts queries served by the front ends. The store itself
// stays immutable; counting happens at the request layer.
type WorkloadStats struct {
	ReadCount uint64
	HitCount  uint64
	MissCount uint64

	queries *prometheus.CounterVec
}

// NewWorkloadStats creates counters and, when reg is non-nil, registers them.
func NewWorkloadStats(reg prometheus.Registerer) *WorkloadStats {
	ws := &WorkloadStats{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treestore_queries_total",
			Help: "Queries served, by operation",
		}, []string{"op"}),
	}
	if reg != nil {
		ws.MustRegister(reg)
	}
	return ws
}

// MustRegister exposes the counters as treestore_* metrics on reg.
func (ws *WorkloadStats) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		ws.queries,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "treestore_reads_total",
			Help: "Total queries served",
		}, func() float64 { return float64(atomic.LoadUint64(&ws.ReadCount)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "treestore_hits_total",
			Help: "Lookups that found their id",
		}, func() float64 { return float64(atomic.LoadUint64(&ws.HitCount)) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "treestore_misses_total",
			Help: "Lookups for unknown ids",
		}, func() float64 { return float64(atomic.LoadUint64(&ws.MissCount)) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "treestore_hit_ratio",
			Help: "Hits divided by hits plus misses",
		}, ws.GetHitRatio),
	)
}

func (ws *WorkloadStats) RecordRead(op string) {
	atomic.AddUint64(&ws.ReadCount, 1)
	ws.queries.WithLabelValues(op).Inc()
}

func (ws *WorkloadStats) RecordHit() {
	atomic.AddUint64(&ws.HitCount, 1)
}

func (ws *WorkloadStats) RecordMiss() {
	atomic.AddUint64(&ws.MissCount, 1)
}

func (ws *WorkloadStats) Reads() uint64 {
	return atomic.LoadUint64(&ws.ReadCount)
}

func (ws *WorkloadStats) GetHitRatio() float64 {
	hits := atomic.LoadUint64(&ws.HitCount)
	misses := atomic.LoadUint64(&ws.MissCount)

	if hits+misses == 0 {
		return 0.0
	}
	return float64(hits) / float64(hits+misses)
}
