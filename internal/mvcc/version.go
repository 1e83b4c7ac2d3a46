package mvcc

import "math"

// noDeleteTS marks a version with no tombstone yet: visible to every
// timestamp greater than its createTS until some future delete sets a
// real deleteTS.
const noDeleteTS = math.MaxUint64

// version is one entry in a key's version chain (spec C4), newest first.
type version[V any] struct {
	value     V
	createTS  uint64
	deleteTS  uint64
	committed bool
	next      *version[V]
}

// isVisible implements the read-committed visibility predicate from
// spec §4.4 / original_source/skiplist_mvcc.h::is_visible: a transaction
// always sees its own uncommitted writes, and sees anyone else's writes
// only once committed and only if they weren't tombstoned at or before ts.
func (v *version[V]) isVisible(ts uint64) bool {
	if v.createTS == ts {
		return v.deleteTS > ts
	}
	return v.committed && v.createTS < ts && v.deleteTS > ts
}
