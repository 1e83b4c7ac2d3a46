package kvstore

import (
	"cmp"
	"io"
	"time"

	"github.com/Ccjx3/KVDatabase/internal/config"
	"github.com/Ccjx3/KVDatabase/internal/gcscheduler"
	"github.com/Ccjx3/KVDatabase/internal/metrics"
	"github.com/Ccjx3/KVDatabase/internal/mvcc"
	"github.com/Ccjx3/KVDatabase/internal/persistence"
	"github.com/Ccjx3/KVDatabase/internal/txn"
	"go.uber.org/zap"
)

// MVCCStore is the facade over the C5 transaction manager and the C4/C6
// version-chain skip list. Every exported operation delegates to the
// wrapped SkipList directly; the facade's only job is construction,
// metrics, and optional background GC.
type MVCCStore[K cmp.Ordered, V any] struct {
	sl        *mvcc.SkipList[K, V]
	txnMgr    *txn.Manager
	metrics   *metrics.Collector
	scheduler *gcscheduler.Scheduler
}

// NewMVCCStore constructs a transactional store from cfg.MVCC and
// cfg.GC. If cfg.GC.Enabled, a background scheduler is started
// immediately; call Close to stop it.
func NewMVCCStore[K cmp.Ordered, V any](cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) *MVCCStore[K, V] {
	if logger == nil {
		logger = zap.NewNop()
	}

	txnMgr := txn.NewManager(logger, cfg.MVCC.Silent)
	sl := mvcc.New[K, V](mvcc.Config{
		MaxLevel: cfg.MVCC.MaxLevel,
		Silent:   cfg.MVCC.Silent,
	}, txnMgr, logger)

	store := &MVCCStore[K, V]{sl: sl, txnMgr: txnMgr, metrics: collector}

	if cfg.GC.Enabled {
		store.scheduler = gcscheduler.New(sl, cfg.GC.Interval, collector, logger)
		store.scheduler.Start()
	}

	return store
}

// Begin starts a new transaction.
func (s *MVCCStore[K, V]) Begin() *txn.Descriptor {
	t := s.sl.Begin()
	if s.metrics != nil {
		s.metrics.ObserveTxnBegin()
	}
	s.syncMetrics()
	return t
}

// Commit commits t, reporting whether it was active.
func (s *MVCCStore[K, V]) Commit(t *txn.Descriptor) bool {
	ok := s.sl.Commit(t)
	if ok && s.metrics != nil {
		s.metrics.ObserveTxnCommit()
	}
	s.syncMetrics()
	return ok
}

// Abort aborts t.
func (s *MVCCStore[K, V]) Abort(t *txn.Descriptor) {
	s.sl.Abort(t)
	if s.metrics != nil {
		s.metrics.ObserveTxnAbort()
	}
	s.syncMetrics()
}

// Insert adds a version of key, visible to t at once and to transactions
// begun after t commits.
func (s *MVCCStore[K, V]) Insert(t *txn.Descriptor, key K, value V) error {
	return s.sl.Insert(t, key, value)
}

// Search returns the version of key visible to t.
func (s *MVCCStore[K, V]) Search(t *txn.Descriptor, key K) (V, error) {
	return s.sl.Search(t, key)
}

// Delete tombstones key, effective immediately regardless of t's
// eventual commit/abort outcome (see internal/mvcc.SkipList.Delete).
func (s *MVCCStore[K, V]) Delete(t *txn.Descriptor, key K) error {
	return s.sl.Delete(t, key)
}

// Range returns every key/value pair visible to t within [lo, hi].
func (s *MVCCStore[K, V]) Range(t *txn.Descriptor, lo, hi K) ([]mvcc.Pair[K, V], error) {
	return s.sl.Range(t, lo, hi)
}

// GC reclaims tombstoned versions below the transaction manager's
// watermark, reporting the count and mirroring it into metrics.
func (s *MVCCStore[K, V]) GC() int {
	n := s.sl.GC()
	s.syncMetrics()
	return n
}

// Size returns the number of physical nodes in the index.
func (s *MVCCStore[K, V]) Size() int { return s.sl.Size() }

// DisplayLevels returns, for each level from 0 up to the current level,
// the ordered sequence of keys reachable at that level.
func (s *MVCCStore[K, V]) DisplayLevels() [][]K { return s.sl.DisplayLevels() }

// Elements implements metricsserver.StatsProvider.
func (s *MVCCStore[K, V]) Elements() int { return s.sl.Size() }

// ActiveTransactions implements metricsserver.StatsProvider.
func (s *MVCCStore[K, V]) ActiveTransactions() int { return s.sl.Stats().Txn.Active }

// Stats returns a point-in-time snapshot of chain and transaction
// activity.
func (s *MVCCStore[K, V]) Stats() mvcc.Stats { return s.sl.Stats() }

// Dump writes a read-committed snapshot of the index to w via codec,
// visible as of a timestamp newer than every committed write.
func (s *MVCCStore[K, V]) Dump(w io.Writer, codec persistence.Codec[K, V]) error {
	return s.sl.Dump(w, codec)
}

// Load decodes r via codec and inserts every record inside one
// transaction, committed only if every insert succeeds. Returns the
// number of records inserted and the number of malformed lines the
// codec skipped.
func (s *MVCCStore[K, V]) Load(r io.Reader, codec persistence.Codec[K, V]) (loaded int, badRecords int, err error) {
	return s.sl.Load(r, codec)
}

// Close stops the background GC scheduler, if one was started. Safe to
// call on a store constructed with GC disabled.
func (s *MVCCStore[K, V]) Close(timeout time.Duration) error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Stop(timeout)
}

func (s *MVCCStore[K, V]) syncMetrics() {
	if s.metrics == nil {
		return
	}
	stats := s.sl.Stats()
	s.metrics.SetSkipListElements(stats.Elements)
	s.metrics.SetVersionsTotal(stats.TotalVersions)
	s.metrics.SetTxnActive(stats.Txn.Active)
}
