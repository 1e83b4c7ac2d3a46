// Package kvstore is the store's public facade: one set of constructors
// composing the non-MVCC optimized skip list (internal/skiplist) and the
// transactional MVCC skip list (internal/mvcc) behind configuration,
// logging, and metrics, so a caller never has to reach into internal/.
//
// Grounded on the teacher's internal/service/storage_service.go: one
// orchestration type built from already-constructed sub-components,
// threading the same *zap.Logger through every delegated call.
package kvstore

import (
	"cmp"
	"io"

	"github.com/Ccjx3/KVDatabase/internal/config"
	"github.com/Ccjx3/KVDatabase/internal/metrics"
	"github.com/Ccjx3/KVDatabase/internal/persistence"
	"github.com/Ccjx3/KVDatabase/internal/skiplist"
	"go.uber.org/zap"
)

// OptimizedStore is the facade over the C3 non-transactional skip list.
type OptimizedStore[K cmp.Ordered, V any] struct {
	sl      *skiplist.SkipList[K, V]
	metrics *metrics.Collector
}

// NewOptimizedStore constructs a store from cfg.SkipList. keyString
// formats K for partition-lock hashing; pass nil to use fmt.Sprint.
func NewOptimizedStore[K cmp.Ordered, V any](cfg *config.Config, keyString func(K) string, logger *zap.Logger, collector *metrics.Collector) *OptimizedStore[K, V] {
	sl := skiplist.New[K, V](skiplist.Config{
		MaxLevel:     cfg.SkipList.MaxLevel,
		SegmentCount: cfg.SkipList.SegmentCount,
		Silent:       cfg.SkipList.Silent,
		PoolCapacity: cfg.SkipList.PoolCapacity,
	}, logger, keyString)

	return &OptimizedStore[K, V]{sl: sl, metrics: collector}
}

// Insert adds key/value, reporting whether the key already existed.
func (s *OptimizedStore[K, V]) Insert(key K, value V) (inserted bool, exists bool) {
	inserted, exists = s.sl.Insert(key, value)
	s.syncMetrics()
	return inserted, exists
}

// Search returns the value stored for key, if present.
func (s *OptimizedStore[K, V]) Search(key K) (V, bool) {
	return s.sl.Search(key)
}

// Delete removes key, reporting whether it was present.
func (s *OptimizedStore[K, V]) Delete(key K) (deleted bool, missing bool) {
	deleted, missing = s.sl.Delete(key)
	s.syncMetrics()
	return deleted, missing
}

// Size returns the number of indexed elements.
func (s *OptimizedStore[K, V]) Size() int { return s.sl.Size() }

// Elements implements metricsserver.StatsProvider.
func (s *OptimizedStore[K, V]) Elements() int { return s.Size() }

// ActiveTransactions implements metricsserver.StatsProvider; the
// optimized variant has no transactions, so it's always zero.
func (s *OptimizedStore[K, V]) ActiveTransactions() int { return 0 }

// Snapshot returns every key/value pair in ascending key order.
func (s *OptimizedStore[K, V]) Snapshot() []skiplist.Pair[K, V] { return s.sl.Snapshot() }

// DisplayLevels returns, for each level from 0 up to the current level,
// the ordered sequence of keys reachable at that level.
func (s *OptimizedStore[K, V]) DisplayLevels() [][]K { return s.sl.DisplayLevels() }

// Dump writes the current index to w via codec.
func (s *OptimizedStore[K, V]) Dump(w io.Writer, codec persistence.Codec[K, V]) error {
	pairs := s.sl.Snapshot()
	persisted := make([]persistence.Pair[K, V], len(pairs))
	for i, p := range pairs {
		persisted[i] = persistence.Pair[K, V]{Key: p.Key, Value: p.Value}
	}
	return codec.Encode(w, persisted)
}

// Load decodes r via codec and inserts every record, skipping (not
// erroring on) keys already present. Returns the number of records
// inserted and the number of malformed lines the codec skipped.
func (s *OptimizedStore[K, V]) Load(r io.Reader, codec persistence.Codec[K, V]) (loaded int, badRecords int, err error) {
	decoded, err := codec.Decode(r)
	if err != nil {
		return 0, 0, err
	}
	for _, p := range decoded.Pairs {
		if inserted, _ := s.Insert(p.Key, p.Value); inserted {
			loaded++
		}
	}
	return loaded, decoded.BadRecords, nil
}

// syncMetrics mirrors pool/element gauges into the collector, if one was
// supplied at construction. Cheap enough to call on every mutating
// operation: it's a handful of atomic/mutex-guarded reads.
func (s *OptimizedStore[K, V]) syncMetrics() {
	if s.metrics == nil {
		return
	}
	stats := s.sl.PoolStats()
	s.metrics.SyncPoolStats(stats.Allocated, stats.Reused, stats.FreeSize)
	s.metrics.SetSkipListElements(s.sl.Size())
}
