// Package metrics registers this store's Prometheus instrumentation
// (spec §4.8), grounded on the teacher's internal/metrics/prometheus.go:
// the same promauto-constructed, namespace/subsystem-labelled metric
// shape, trimmed from the teacher's ~40 LSM/gossip/cache metrics down to
// the pool/skip-list/txn/version counters this store actually produces.
//
// Registering metrics is purely additive instrumentation: no operation's
// visible behavior depends on it, and a Collector is safe to leave
// unused by a caller that doesn't want a /metrics endpoint.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every Prometheus metric this store produces, labelled
// by instance name so more than one store in a single process doesn't
// collide on metric identity.
type Collector struct {
	PoolAllocationsTotal prometheus.Counter
	PoolReusedTotal      prometheus.Counter
	PoolFreeSize         prometheus.Gauge

	SkipListElements prometheus.Gauge

	TxnBeginsTotal  prometheus.Counter
	TxnCommitsTotal prometheus.Counter
	TxnAbortsTotal  prometheus.Counter
	TxnActive       prometheus.Gauge

	VersionsTotal          prometheus.Gauge
	VersionsReclaimedTotal prometheus.Counter

	GCDuration prometheus.Histogram

	prevPoolAllocated atomic.Int64
	prevPoolReused    atomic.Int64
}

// NewCollector creates and registers every metric, constant-labelled
// with instance. Registering the same instance name twice against the
// default registry panics, matching promauto's behavior in the teacher.
func NewCollector(instance string) *Collector {
	labels := prometheus.Labels{"instance": instance}

	return &Collector{
		PoolAllocationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "skiplist_pool",
			Name:        "allocations_total",
			Help:        "Total number of node-pool allocations that required creating a fresh node.",
			ConstLabels: labels,
		}),
		PoolReusedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "skiplist_pool",
			Name:        "reused_total",
			Help:        "Total number of node-pool allocations satisfied from the free list.",
			ConstLabels: labels,
		}),
		PoolFreeSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kvstore",
			Subsystem:   "skiplist_pool",
			Name:        "free_size",
			Help:        "Current number of nodes sitting in the pool's free list.",
			ConstLabels: labels,
		}),
		SkipListElements: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kvstore",
			Subsystem:   "skiplist",
			Name:        "elements",
			Help:        "Current number of physical nodes in the index.",
			ConstLabels: labels,
		}),
		TxnBeginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "txn_begins_total",
			Help:        "Total number of transactions begun.",
			ConstLabels: labels,
		}),
		TxnCommitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "txn_commits_total",
			Help:        "Total number of transactions committed.",
			ConstLabels: labels,
		}),
		TxnAbortsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "txn_aborts_total",
			Help:        "Total number of transactions aborted.",
			ConstLabels: labels,
		}),
		TxnActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "txn_active",
			Help:        "Current number of active (not yet committed or aborted) transactions.",
			ConstLabels: labels,
		}),
		VersionsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "versions_total",
			Help:        "Current number of live versions across all chains.",
			ConstLabels: labels,
		}),
		VersionsReclaimedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "versions_reclaimed_total",
			Help:        "Total number of versions reclaimed by GC.",
			ConstLabels: labels,
		}),
		GCDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "kvstore",
			Subsystem:   "mvcc",
			Name:        "gc_duration_seconds",
			Help:        "Histogram of GC sweep durations.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}),
	}
}

// SyncPoolStats mirrors an internal/pool.Stats snapshot (cumulative
// since pool construction) into the collector's counters/gauge. Since
// Prometheus counters must only increase but Allocated/Reused are
// cumulative totals, it tracks the last-observed totals itself and
// only advances the counters by the delta.
func (c *Collector) SyncPoolStats(allocated, reused int64, freeSize int) {
	if d := allocated - c.prevPoolAllocated.Swap(allocated); d > 0 {
		c.PoolAllocationsTotal.Add(float64(d))
	}
	if d := reused - c.prevPoolReused.Swap(reused); d > 0 {
		c.PoolReusedTotal.Add(float64(d))
	}
	c.PoolFreeSize.Set(float64(freeSize))
}

// SetSkipListElements records the current physical element count.
func (c *Collector) SetSkipListElements(n int) { c.SkipListElements.Set(float64(n)) }

// ObserveTxnBegin/Commit/Abort record transaction lifecycle transitions.
func (c *Collector) ObserveTxnBegin()  { c.TxnBeginsTotal.Inc() }
func (c *Collector) ObserveTxnCommit() { c.TxnCommitsTotal.Inc() }
func (c *Collector) ObserveTxnAbort()  { c.TxnAbortsTotal.Inc() }

// SetTxnActive records the current active-transaction count.
func (c *Collector) SetTxnActive(n int) { c.TxnActive.Set(float64(n)) }

// SetVersionsTotal records the current live-version count.
func (c *Collector) SetVersionsTotal(n int64) { c.VersionsTotal.Set(float64(n)) }

// ObserveVersionsReclaimed records a GC sweep's reclamation count.
func (c *Collector) ObserveVersionsReclaimed(n int) {
	if n > 0 {
		c.VersionsReclaimedTotal.Add(float64(n))
	}
}

// ObserveGCDuration records one GC sweep's wall-clock duration in
// seconds.
func (c *Collector) ObserveGCDuration(seconds float64) { c.GCDuration.Observe(seconds) }
