package syncer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dexsync/internal/model"
)

// Metrics exposes the sync pipeline's counters. A nil *Metrics disables
// instrumentation; every observer method tolerates it.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec
	PoolsSynced    prometheus.Counter
	GroupFailures  *prometheus.CounterVec
	CycleDuration  *prometheus.HistogramVec
	MonitoredPools prometheus.Gauge
	StalePools     prometheus.Gauge
}

// NewMetrics creates and registers the sync metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CyclesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexsync",
			Name:      "sync_cycles_total",
			Help:      "Sync cycles run, labeled by kind and result.",
		}, []string{"kind", "result"}),
		PoolsSynced: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "dexsync",
			Name:      "pools_synced_total",
			Help:      "Pool states successfully applied to the registry.",
		}),
		GroupFailures: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "dexsync",
			Name:      "sync_group_failures_total",
			Help:      "Group-level fetch failures, labeled by network and dex.",
		}, []string{"network", "dex"}),
		CycleDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dexsync",
			Name:      "sync_cycle_duration_seconds",
			Help:      "Wall-clock duration of one sync cycle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		MonitoredPools: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "dexsync",
			Name:      "monitored_pools",
			Help:      "Pools currently registered for synchronization.",
		}),
		StalePools: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "dexsync",
			Name:      "stale_pools",
			Help:      "Monitored pools whose state is older than the TTL.",
		}),
	}
}

func (m *Metrics) observeCycle(kind Kind, result string, duration time.Duration, synced int) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(kind.String(), result).Inc()
	m.CycleDuration.WithLabelValues(kind.String()).Observe(duration.Seconds())
	if synced > 0 {
		m.PoolsSynced.Add(float64(synced))
	}
}

func (m *Metrics) observeGroupFailure(network model.Network, dexID model.DexID) {
	if m == nil {
		return
	}
	m.GroupFailures.WithLabelValues(network.String(), dexID.Name()).Inc()
}

func (m *Metrics) observePoolCounts(monitored, stale int) {
	if m == nil {
		return
	}
	m.MonitoredPools.Set(float64(monitored))
	m.StalePools.Set(float64(stale))
}
