// Package mvcc implements the transactional skip list (spec C4 + C6):
// a probabilistic index whose nodes hold version chains instead of bare
// values, composed with internal/txn for begin/commit/abort and
// read-committed visibility.
//
// Grounded throughout on original_source/skiplist_mvcc.h. Unlike
// internal/skiplist, the original's MVCC variant never uses a node pool
// (nodes are never physically removed, only tombstoned) and serializes
// every write behind one global mutex rather than partitioned locks —
// both carried over unchanged here.
package mvcc

import (
	"cmp"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/Ccjx3/KVDatabase/internal/errors"
	"github.com/Ccjx3/KVDatabase/internal/persistence"
	"github.com/Ccjx3/KVDatabase/internal/rand"
	"github.com/Ccjx3/KVDatabase/internal/txn"
	"go.uber.org/zap"
)

const defaultMaxLevel = 32

// Config configures a SkipList.
type Config struct {
	// MaxLevel bounds tower height. Zero selects a sensible default.
	MaxLevel int
	// Silent suppresses per-operation debug logging.
	Silent bool
}

// Pair is a single key/value record, used by Range and Dump.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// Stats is a point-in-time snapshot of chain activity.
type Stats struct {
	Elements          int
	TotalVersions     int64
	VersionsReclaimed int64
	Txn               txn.Stats
}

// SkipList is the transactional, MVCC-aware index from spec C6. Every
// exported operation takes a *txn.Descriptor obtained from Begin.
type SkipList[K cmp.Ordered, V any] struct {
	maxLevel int

	globalMu sync.Mutex
	level    int
	head     *chainNode[K, V]

	txnMgr *txn.Manager

	totalVersions     atomic.Int64
	versionsReclaimed atomic.Int64

	logger *zap.Logger
	silent bool
}

// New constructs an empty transactional skip list backed by txnMgr.
func New[K cmp.Ordered, V any](cfg Config, txnMgr *txn.Manager, logger *zap.Logger) *SkipList[K, V] {
	maxLevel := cfg.MaxLevel
	if maxLevel <= 0 {
		maxLevel = defaultMaxLevel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SkipList[K, V]{
		maxLevel: maxLevel,
		head:     newChainNode[K, V](zeroValue[K](), maxLevel),
		txnMgr:   txnMgr,
		logger:   logger,
		silent:   cfg.Silent,
	}
}

func zeroValue[K any]() K {
	var z K
	return z
}

func randomLevel(maxLevel int) int {
	level := 1
	for rand.CoinFlip() {
		level++
		if level >= maxLevel {
			break
		}
	}
	if level > maxLevel {
		level = maxLevel
	}
	return level
}

// Begin starts a new transaction.
func (s *SkipList[K, V]) Begin() *txn.Descriptor { return s.txnMgr.Begin() }

// Commit finalizes a transaction, making its writes visible to future
// transactions. Reports false if t is nil or already retired.
func (s *SkipList[K, V]) Commit(t *txn.Descriptor) bool { return s.txnMgr.Commit(t) }

// Abort discards a transaction's writes. They remain in their chains,
// uncommitted and therefore never visible, until GC reclaims them.
func (s *SkipList[K, V]) Abort(t *txn.Descriptor) { s.txnMgr.Abort(t) }

// find locates, for each level, the last node whose key is strictly less
// than key, recording it in update. It returns the node at level 0 whose
// key equals key, or nil. Grounded on skiplist_mvcc.h's shared traversal
// used by insert/search/delete.
func (s *SkipList[K, V]) find(key K) (update []*chainNode[K, V], found *chainNode[K, V]) {
	update = make([]*chainNode[K, V], s.maxLevel+1)
	cur := s.head
	for i := s.level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
		update[i] = cur
	}
	if next := cur.forward[0]; next != nil && next.key == key {
		found = next
	}
	return update, found
}

// Insert adds a new version of value for key, authored by t. If the key
// is new, a node is created at a random level; if present, a version is
// appended to its existing chain. Both paths run under the global mutex.
// value is stored as passed, without a copy.
func (s *SkipList[K, V]) Insert(t *txn.Descriptor, key K, value V) error {
	if t == nil || !t.IsActive() {
		return errors.TxnNotActive(idOf(t))
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	update, found := s.find(key)
	if found != nil {
		found.addVersion(value, t.ID())
		t.AddModified(found)
		s.totalVersions.Add(1)
		s.logOp("insert", t.ID(), key)
		return nil
	}

	newLevel := randomLevel(s.maxLevel)
	if newLevel > s.level {
		for i := s.level + 1; i <= newLevel; i++ {
			update[i] = s.head
		}
		s.level = newLevel
	}

	node := newChainNode[K, V](key, newLevel)
	node.addVersion(value, t.ID())
	for i := 0; i <= newLevel; i++ {
		node.forward[i] = update[i].forward[i]
		update[i].forward[i] = node
	}

	t.AddModified(node)
	s.totalVersions.Add(1)
	s.logOp("insert", t.ID(), key)
	return nil
}

// Search returns the value visible to t at key, per read-committed
// visibility. Traversal itself takes no lock: nodes are never unlinked
// or resized after insertion, so walking forward pointers concurrently
// with a writer cannot crash, only observe a slightly stale index.
func (s *SkipList[K, V]) Search(t *txn.Descriptor, key K) (V, error) {
	var zero V
	if t == nil || !t.IsActive() {
		return zero, errors.TxnNotActive(idOf(t))
	}

	node := s.locate(key)
	if node == nil {
		return zero, errors.KeyMissing(keyString(key))
	}
	value, ok := node.visibleVersion(t.ID())
	if !ok {
		return zero, errors.KeyMissing(keyString(key))
	}
	return value, nil
}

// locate walks the top level snapshot down to level 0 without taking the
// global mutex, mirroring find's comparisons but without recording
// update pointers.
func (s *SkipList[K, V]) locate(key K) *chainNode[K, V] {
	cur := s.head
	for i := s.level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
	}
	next := cur.forward[0]
	if next != nil && next.key == key {
		return next
	}
	return nil
}

// Delete tombstones the node at key's chain head, under the global
// mutex. The node is not unlinked from the index (spec §4.6) so
// concurrent lock-free readers never observe a half-removed tower.
func (s *SkipList[K, V]) Delete(t *txn.Descriptor, key K) error {
	if t == nil || !t.IsActive() {
		return errors.TxnNotActive(idOf(t))
	}

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	_, found := s.find(key)
	if found == nil {
		return errors.KeyMissing(keyString(key))
	}
	found.markDeleted(t.ID())
	s.logOp("delete", t.ID(), key)
	return nil
}

// Range returns every visible pair with lo <= key <= hi, in ascending
// key order. Returns an empty slice (not an error) if lo > hi. It takes no
// structural lock, only each node's chain mutex, so a scan running
// alongside inserts is best-effort rather than a point-in-time snapshot.
func (s *SkipList[K, V]) Range(t *txn.Descriptor, lo, hi K) ([]Pair[K, V], error) {
	if t == nil || !t.IsActive() {
		return nil, errors.TxnNotActive(idOf(t))
	}
	if lo > hi {
		return nil, nil
	}

	var out []Pair[K, V]
	cur := s.head
	for i := s.level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < lo {
			cur = cur.forward[i]
		}
	}
	for n := cur.forward[0]; n != nil && n.key <= hi; n = n.forward[0] {
		if v, ok := n.visibleVersion(t.ID()); ok {
			out = append(out, Pair[K, V]{Key: n.key, Value: v})
		}
	}
	return out, nil
}

// GC reclaims every version tombstoned before the current minimum active
// transaction id. Takes the global mutex for the duration of the sweep,
// per spec §4.6 / §5's lock hierarchy.
func (s *SkipList[K, V]) GC() int {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	minActive := s.txnMgr.MinActiveID()
	reclaimed := 0
	for n := s.head.forward[0]; n != nil; n = n.forward[0] {
		reclaimed += n.gc(minActive)
	}
	if reclaimed > 0 {
		s.versionsReclaimed.Add(int64(reclaimed))
		s.totalVersions.Add(-int64(reclaimed))
	}
	return reclaimed
}

// Size counts physical (non-tombstone-aware) nodes in the index, under
// the global mutex, matching skiplist_mvcc.h::size.
func (s *SkipList[K, V]) Size() int {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	count := 0
	for n := s.head.forward[0]; n != nil; n = n.forward[0] {
		count++
	}
	return count
}

// Stats returns a snapshot of chain and transaction-manager activity.
func (s *SkipList[K, V]) Stats() Stats {
	return Stats{
		Elements:          s.Size(),
		TotalVersions:     s.totalVersions.Load(),
		VersionsReclaimed: s.versionsReclaimed.Load(),
		Txn:               s.txnMgr.Stats(),
	}
}

// DisplayLevels returns, for each level from 0 up to the current level,
// the ordered sequence of keys reachable at that level — the Go
// analogue of skiplist_mvcc.h::display_list, returning data instead of
// printing it, matching internal/skiplist.SkipList.DisplayLevels.
func (s *SkipList[K, V]) DisplayLevels() [][]K {
	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	levels := make([][]K, s.level+1)
	for i := 0; i <= s.level; i++ {
		for n := s.head.forward[i]; n != nil; n = n.forward[i] {
			levels[i] = append(levels[i], n.key)
		}
	}
	return levels
}

// Dump writes every currently-visible pair to w via codec, using a
// throwaway visibility timestamp equal to the next id that would be
// assigned to a real transaction. That timestamp is never registered in
// the active set, so it never affects GC's watermark, yet per the
// visibility predicate it's greater than every issued id and therefore
// sees every committed version. Grounded on skiplist_mvcc.h::dump_file.
func (s *SkipList[K, V]) Dump(w io.Writer, codec persistence.Codec[K, V]) error {
	s.globalMu.Lock()
	snapshotTS := s.txnMgr.NextID()
	var pairs []persistence.Pair[K, V]
	for n := s.head.forward[0]; n != nil; n = n.forward[0] {
		if v, ok := n.visibleVersion(snapshotTS); ok {
			pairs = append(pairs, persistence.Pair[K, V]{Key: n.key, Value: v})
		}
	}
	s.globalMu.Unlock()

	return codec.Encode(w, pairs)
}

// Load decodes r via codec and inserts every record inside one
// transaction, committed only if every insert succeeds. Returns the
// number of records loaded and the number of malformed lines skipped by
// the codec.
func (s *SkipList[K, V]) Load(r io.Reader, codec persistence.Codec[K, V]) (loaded int, badRecords int, err error) {
	decoded, err := codec.Decode(r)
	if err != nil {
		return 0, 0, err
	}

	t := s.Begin()
	for _, p := range decoded.Pairs {
		if err := s.Insert(t, p.Key, p.Value); err != nil {
			s.Abort(t)
			return 0, decoded.BadRecords, err
		}
	}
	s.Commit(t)
	return len(decoded.Pairs), decoded.BadRecords, nil
}

func (s *SkipList[K, V]) logOp(op string, txnID uint64, key K) {
	if s.silent {
		return
	}
	s.logger.Debug(op, zap.Uint64("txn_id", txnID), zap.Any("key", key))
}

func idOf(t *txn.Descriptor) uint64 {
	if t == nil {
		return 0
	}
	return t.ID()
}

func keyString(key any) string {
	return fmt.Sprint(key)
}
