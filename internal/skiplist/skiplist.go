// Package skiplist implements the non-MVCC "optimized" skip list: a
// probabilistic ordered index guarded by a partitioned lock table (see
// internal/partlock) with node allocation routed through a bounded pool
// (see internal/pool).
//
// Grounded on original_source/skiplist_optimized.h, generalized from a
// string-keyed template to Go generics, and on the teacher's
// internal/storage/memtable/skiplist.go for the baseline forward-pointer
// traversal shape.
package skiplist

import (
	"cmp"
	"fmt"
	"sync"

	"github.com/Ccjx3/KVDatabase/internal/pool"
	"github.com/Ccjx3/KVDatabase/internal/rand"

	"github.com/Ccjx3/KVDatabase/internal/partlock"
	"go.uber.org/zap"
)

// node is a skip-list node. The head sentinel has a zero-value key that is
// never read by traversal; only its forward pointers matter.
type node[K cmp.Ordered, V any] struct {
	key     K
	value   V
	forward []*node[K, V]
}

func (n *node[K, V]) level() int { return len(n.forward) - 1 }

// SkipList is a concurrent, ordered K->V index. Structural mutation (insert,
// delete) takes the partition lock for the affected key plus the level lock,
// held until the mutation returns, so mutations run one at a time; search
// takes only the partition lock and a short level read.
type SkipList[K cmp.Ordered, V any] struct {
	maxLevel int

	level   int
	levelMu sync.Mutex

	count   int
	countMu sync.Mutex

	head *node[K, V]

	locks *partlock.Table
	pool  *pool.Pool[*node[K, V]]

	keyString func(K) string
	logger    *zap.Logger
	silent    bool
}

// Config controls construction of a SkipList.
type Config struct {
	MaxLevel      int
	SegmentCount  int
	Silent        bool
	PoolCapacity  int
}

// New creates an empty SkipList. maxLevel must be positive; a non-positive
// value is clamped to 1. keyString formats K for partition hashing and is
// required when K is not already well-served by fmt.Sprint (the default).
func New[K cmp.Ordered, V any](cfg Config, logger *zap.Logger, keyString func(K) string) *SkipList[K, V] {
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyString == nil {
		keyString = func(k K) string { return fmt.Sprint(k) }
	}

	sl := &SkipList[K, V]{
		maxLevel:  cfg.MaxLevel,
		head:      &node[K, V]{forward: make([]*node[K, V], cfg.MaxLevel+1)},
		locks:     partlock.New(cfg.SegmentCount),
		keyString: keyString,
		logger:    logger,
		silent:    cfg.Silent,
	}
	sl.pool = pool.New[*node[K, V]](cfg.PoolCapacity,
		func(level int) *node[K, V] {
			return &node[K, V]{forward: make([]*node[K, V], level+1)}
		},
		func(n *node[K, V], level int) {
			if n.level() != level {
				n.forward = make([]*node[K, V], level+1)
			} else {
				for i := range n.forward {
					n.forward[i] = nil
				}
			}
		},
	)
	return sl
}

func (sl *SkipList[K, V]) randomLevel() int {
	lvl := 1
	for rand.CoinFlip() {
		lvl++
		if lvl >= sl.maxLevel {
			break
		}
	}
	if lvl > sl.maxLevel {
		lvl = sl.maxLevel
	}
	return lvl
}

func (sl *SkipList[K, V]) currentLevel() int {
	sl.levelMu.Lock()
	defer sl.levelMu.Unlock()
	return sl.level
}

// Insert adds a new key or reports that it already exists. inserted and
// exists are mutually exclusive.
func (sl *SkipList[K, V]) Insert(key K, value V) (inserted bool, exists bool) {
	unlock := sl.locks.LockWrite(sl.locks.IndexForKey(sl.keyString(key)))
	defer unlock()

	sl.levelMu.Lock()
	defer sl.levelMu.Unlock()

	update := make([]*node[K, V], sl.maxLevel+1)
	cur := sl.head
	for i := sl.level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
		update[i] = cur
	}

	cur = cur.forward[0]
	if cur != nil && cur.key == key {
		return false, true
	}

	randLevel := sl.randomLevel()
	if randLevel > sl.level {
		for i := sl.level + 1; i <= randLevel; i++ {
			update[i] = sl.head
		}
		sl.level = randLevel
	}

	newNode := sl.pool.Allocate(randLevel)
	newNode.key = key
	newNode.value = value

	for i := 0; i <= randLevel; i++ {
		newNode.forward[i] = update[i].forward[i]
		update[i].forward[i] = newNode
	}

	sl.countMu.Lock()
	sl.count++
	sl.countMu.Unlock()

	if !sl.silent {
		sl.logger.Debug("skiplist insert", zap.String("key", sl.keyString(key)))
	}
	return true, false
}

// Search returns the value stored for key, if present.
func (sl *SkipList[K, V]) Search(key K) (V, bool) {
	unlock := sl.locks.LockRead(sl.locks.IndexForKey(sl.keyString(key)))
	defer unlock()

	level := sl.currentLevel()
	cur := sl.head
	for i := level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
	}
	cur = cur.forward[0]

	if cur != nil && cur.key == key {
		return cur.value, true
	}
	var zero V
	return zero, false
}

// Delete removes key from the index, reporting whether it was present.
func (sl *SkipList[K, V]) Delete(key K) (deleted bool, missing bool) {
	unlock := sl.locks.LockWrite(sl.locks.IndexForKey(sl.keyString(key)))
	defer unlock()

	sl.levelMu.Lock()
	defer sl.levelMu.Unlock()

	update := make([]*node[K, V], sl.maxLevel+1)
	cur := sl.head
	for i := sl.level; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
		update[i] = cur
	}
	cur = cur.forward[0]

	if cur == nil || cur.key != key {
		return false, true
	}

	for i := 0; i <= sl.level; i++ {
		if update[i].forward[i] != cur {
			break
		}
		update[i].forward[i] = cur.forward[i]
	}

	for sl.level > 0 && sl.head.forward[sl.level] == nil {
		sl.level--
	}

	sl.pool.Deallocate(cur)

	sl.countMu.Lock()
	sl.count--
	sl.countMu.Unlock()

	if !sl.silent {
		sl.logger.Debug("skiplist delete", zap.String("key", sl.keyString(key)))
	}
	return true, false
}

// Size returns the number of elements currently indexed.
func (sl *SkipList[K, V]) Size() int {
	sl.countMu.Lock()
	defer sl.countMu.Unlock()
	return sl.count
}

// PoolStats exposes the underlying node pool's allocation counters.
func (sl *SkipList[K, V]) PoolStats() pool.Stats {
	return sl.pool.Stats()
}

// Pair is a single key/value entry, returned by Snapshot.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// Snapshot returns every key/value pair in ascending key order. Like the
// rest of this index it takes no global lock: it is consistent with some
// serialization of concurrent structural mutations, not necessarily a
// single point in time.
func (sl *SkipList[K, V]) Snapshot() []Pair[K, V] {
	var out []Pair[K, V]
	for n := sl.head.forward[0]; n != nil; n = n.forward[0] {
		out = append(out, Pair[K, V]{Key: n.key, Value: n.value})
	}
	return out
}

// DisplayLevels returns, for each level from 0 up to the current level, the
// ordered sequence of keys reachable at that level — the Go analogue of the
// original's console display_list.
func (sl *SkipList[K, V]) DisplayLevels() [][]K {
	level := sl.currentLevel()
	levels := make([][]K, level+1)
	for i := 0; i <= level; i++ {
		for n := sl.head.forward[i]; n != nil; n = n.forward[i] {
			levels[i] = append(levels[i], n.key)
		}
	}
	return levels
}
