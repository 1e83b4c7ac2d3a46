package mvcc

import (
	"cmp"
	"sync"
)

// chainNode is a skip-list index node whose payload is a version chain
// rather than a single value (spec C4's NodeMVCC). forward holds the
// per-level successor pointers; the node itself is never unlinked once
// inserted, so index traversal never races with a chain mutation.
type chainNode[K cmp.Ordered, V any] struct {
	key     K
	forward []*chainNode[K, V]

	chainMu sync.Mutex
	head    *version[V]
}

func newChainNode[K cmp.Ordered, V any](key K, level int) *chainNode[K, V] {
	return &chainNode[K, V]{key: key, forward: make([]*chainNode[K, V], level+1)}
}

func (n *chainNode[K, V]) level() int { return len(n.forward) - 1 }

// addVersion prepends a new version authored by txnID, uncommitted until
// Commit flips it. Grounded on skiplist_mvcc.h::add_version.
func (n *chainNode[K, V]) addVersion(value V, txnID uint64) {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	n.head = &version[V]{value: value, createTS: txnID, deleteTS: noDeleteTS, next: n.head}
}

// visibleVersion walks the chain newest-first and returns the first
// version visible to ts, per skiplist_mvcc.h::get_visible_version.
func (n *chainNode[K, V]) visibleVersion(ts uint64) (V, bool) {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	for v := n.head; v != nil; v = v.next {
		if v.isVisible(ts) {
			return v.value, true
		}
	}
	var zero V
	return zero, false
}

// markDeleted tombstones the current head version at ts. The node is not
// unlinked from the index; future visibility checks simply stop seeing it.
func (n *chainNode[K, V]) markDeleted(ts uint64) {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	if n.head != nil {
		n.head.deleteTS = ts
	}
}

// Commit implements txn.Chain: it flips committed on every version whose
// createTS matches txnID (more than one if the transaction wrote this key
// repeatedly, since each Insert prepends a new version).
func (n *chainNode[K, V]) Commit(txnID uint64) {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()
	for v := n.head; v != nil; v = v.next {
		if v.createTS == txnID {
			v.committed = true
		}
	}
}

// gc splices out every version whose deleteTS is older than minActive,
// except the chain head, which is always retained. Grounded on
// skiplist_mvcc.h::gc_versions. Returns the count reclaimed.
func (n *chainNode[K, V]) gc(minActive uint64) int {
	n.chainMu.Lock()
	defer n.chainMu.Unlock()

	if n.head == nil {
		return 0
	}
	reclaimed := 0
	prev := n.head
	cur := n.head.next
	for cur != nil {
		if cur.deleteTS < minActive {
			prev.next = cur.next
			cur = prev.next
			reclaimed++
		} else {
			prev = cur
			cur = cur.next
		}
	}
	return reclaimed
}
