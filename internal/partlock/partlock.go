// Package partlock implements a partitioned lock table: keys hash to one of
// N partitions, each guarded by an independent mutex, so writes on disjoint
// partitions proceed without contending on a single lock.
//
// Grounded on original_source/segment_lock.h. As in the source, read and
// write access use the same exclusive mutex — there is no shared/exclusive
// distinction here, and callers must not assume concurrent readers within a
// partition.
package partlock

import (
	"hash/fnv"
	"sort"
	"sync"
)

// DefaultPartitions is the partition count used when none is supplied.
const DefaultPartitions = 16

// Table is a fixed-size array of independent mutexes indexed by a hash of
// the key.
type Table struct {
	partitions []sync.Mutex
	count      int
}

// New creates a Table with the given partition count. A non-positive count
// falls back to DefaultPartitions; counts that aren't a power of two still
// work but distribute less evenly.
func New(count int) *Table {
	if count <= 0 {
		count = DefaultPartitions
	}
	return &Table{
		partitions: make([]sync.Mutex, count),
		count:      count,
	}
}

// Count returns the number of partitions.
func (t *Table) Count() int {
	return t.count
}

// IndexFor hashes key into [0, Count()).
func IndexFor(key string, count int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum64() % uint64(count))
}

// IndexForKey hashes key (formatted via keyString) into a partition index.
func (t *Table) IndexForKey(keyString string) int {
	return IndexFor(keyString, t.count)
}

// LockWrite acquires the write lock (== the only lock) for partition i and
// returns a function that releases it.
func (t *Table) LockWrite(i int) func() {
	t.partitions[i].Lock()
	return t.partitions[i].Unlock
}

// LockRead acquires the read lock for partition i. It is the same exclusive
// mutex as LockWrite — see the package doc comment.
func (t *Table) LockRead(i int) func() {
	t.partitions[i].Lock()
	return t.partitions[i].Unlock
}

// LockAllForWrite acquires every partition's lock in ascending index order,
// which prevents deadlock against any other caller that also acquires in
// ascending order. It returns a function that releases them all in reverse.
func (t *Table) LockAllForWrite() func() {
	indices := make([]int, t.count)
	for i := range indices {
		indices[i] = i
	}
	sort.Ints(indices)

	for _, i := range indices {
		t.partitions[i].Lock()
	}
	return func() {
		for i := len(indices) - 1; i >= 0; i-- {
			t.partitions[indices[i]].Unlock()
		}
	}
}
