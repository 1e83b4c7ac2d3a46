// Package txn implements the transaction manager (spec C5): monotonic
// transaction ids, active-set bookkeeping, the commit/abort protocol, and
// GC watermark derivation.
//
// Grounded on original_source/skiplist_mvcc.h's Transaction/begin_transaction
// /commit_transaction/abort_transaction/get_min_active_txn_id, generalized
// so the manager doesn't need to know what kind of chain it's flipping
// commit flags on (see Chain below) — that lets internal/mvcc depend on
// this package without a reverse dependency.
package txn

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is a transaction's lifecycle state.
type State int32

const (
	Active State = iota
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Chain is anything a transaction can author versions on: flipping its
// committed flags is the commit-time side effect a Descriptor defers until
// Manager.Commit runs. internal/mvcc's chain node satisfies this.
type Chain interface {
	Commit(txnID uint64)
}

// Descriptor is a transaction: a unique id, a lifecycle state, and the set
// of chains it authored versions on (for commit-time flag flipping).
type Descriptor struct {
	id        uint64
	startTime time.Time

	state atomic.Int32

	modifiedMu sync.Mutex
	modified   []Chain
}

// ID returns the transaction's strictly-monotonic id.
func (d *Descriptor) ID() uint64 { return d.id }

// StartTime is wall-clock and diagnostic only, per spec §3.
func (d *Descriptor) StartTime() time.Time { return d.startTime }

// State returns the transaction's current lifecycle state.
func (d *Descriptor) State() State { return State(d.state.Load()) }

// IsActive reports whether the transaction may still be used for reads or
// writes.
func (d *Descriptor) IsActive() bool { return d.State() == Active }

// AddModified records that the transaction authored a version on chain, so
// commit can later flip that version's committed flag.
func (d *Descriptor) AddModified(c Chain) {
	d.modifiedMu.Lock()
	d.modified = append(d.modified, c)
	d.modifiedMu.Unlock()
}

// Manager allocates transaction ids, tracks the active set, and derives the
// GC watermark.
type Manager struct {
	nextID atomic.Uint64 // holds the last id issued; 0 before the first Begin

	mu     sync.Mutex
	active map[uint64]*Descriptor

	totalCommits atomic.Uint64
	totalAborts  atomic.Uint64

	logger *zap.Logger
	silent bool
}

// NewManager creates a transaction manager. A nil logger defaults to a
// no-op logger; silent suppresses the informational [TXN <id>] log lines
// described in spec §6 (emitted at Debug level here, not println).
func NewManager(logger *zap.Logger, silent bool) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		active: make(map[uint64]*Descriptor),
		logger: logger,
		silent: silent,
	}
}

// Begin allocates a new, strictly-greater transaction id and registers it
// as ACTIVE.
func (m *Manager) Begin() *Descriptor {
	id := m.nextID.Add(1)
	d := &Descriptor{id: id, startTime: time.Now()}
	d.state.Store(int32(Active))

	m.mu.Lock()
	m.active[id] = d
	m.mu.Unlock()

	if !m.silent {
		m.logger.Debug("txn begin", zap.Uint64("txn_id", id))
	}
	return d
}

// Commit flips the committed flag on every version the transaction
// authored, then marks it COMMITTED and removes it from the active set.
// It reports false (no mutation performed) if d is nil or not ACTIVE.
func (m *Manager) Commit(d *Descriptor) bool {
	if d == nil || !d.IsActive() {
		return false
	}

	d.modifiedMu.Lock()
	chains := d.modified
	d.modifiedMu.Unlock()

	for _, c := range chains {
		c.Commit(d.id)
	}

	d.state.Store(int32(Committed))

	m.mu.Lock()
	delete(m.active, d.id)
	m.mu.Unlock()

	m.totalCommits.Add(1)
	if !m.silent {
		m.logger.Debug("txn commit", zap.Uint64("txn_id", d.id))
	}
	return true
}

// Abort marks the transaction ABORTED and removes it from the active set.
// Versions it authored remain in the chain but are never visible (their
// committed flag is never flipped) and are eventually reclaimed by GC.
// It is a no-op if d is nil or not ACTIVE.
func (m *Manager) Abort(d *Descriptor) {
	if d == nil || !d.IsActive() {
		return
	}

	d.state.Store(int32(Aborted))

	m.mu.Lock()
	delete(m.active, d.id)
	m.mu.Unlock()

	m.totalAborts.Add(1)
	if !m.silent {
		m.logger.Debug("txn abort", zap.Uint64("txn_id", d.id))
	}
}

// MinActiveID returns the smallest id among active transactions, or the id
// that would be assigned to the next Begin if none are active. Versions
// tombstoned before this id are unreachable by any present or future
// transaction and are safe to reclaim.
func (m *Manager) MinActiveID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) == 0 {
		return m.nextID.Load() + 1
	}
	min := uint64(0)
	first := true
	for id := range m.active {
		if first || id < min {
			min = id
			first = false
		}
	}
	return min
}

// NextID returns the id that would be assigned to the next Begin, without
// allocating it. Used by dump to construct a throwaway visibility
// timestamp that sees every committed version without being registered in
// the active set.
func (m *Manager) NextID() uint64 {
	return m.nextID.Load() + 1
}

// Stats is a point-in-time snapshot of transaction manager activity,
// mirrored into Prometheus by internal/metrics.
type Stats struct {
	Active       int
	TotalCommits uint64
	TotalAborts  uint64
	NextID       uint64
}

// Stats returns a snapshot of manager counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	active := len(m.active)
	m.mu.Unlock()

	return Stats{
		Active:       active,
		TotalCommits: m.totalCommits.Load(),
		TotalAborts:  m.totalAborts.Load(),
		NextID:       m.NextID(),
	}
}
