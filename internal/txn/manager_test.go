package txn_test

import (
	"sync"
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	mu        sync.Mutex
	committed []uint64
}

func (f *fakeChain) Commit(txnID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, txnID)
}

func TestManager_BeginAssignsMonotonicIDs(t *testing.T) {
	m := txn.NewManager(nil, true)

	a := m.Begin()
	b := m.Begin()
	c := m.Begin()

	assert.Less(t, a.ID(), b.ID())
	assert.Less(t, b.ID(), c.ID())
	assert.True(t, a.IsActive())
}

func TestManager_CommitFlipsModifiedChainsAndRetires(t *testing.T) {
	m := txn.NewManager(nil, true)
	d := m.Begin()

	chain := &fakeChain{}
	d.AddModified(chain)

	ok := m.Commit(d)
	require.True(t, ok)

	assert.Equal(t, txn.Committed, d.State())
	assert.False(t, d.IsActive())
	assert.Equal(t, []uint64{d.ID()}, chain.committed)
}

func TestManager_CommitOnNonActiveIsNoop(t *testing.T) {
	m := txn.NewManager(nil, true)
	d := m.Begin()
	m.Abort(d)

	ok := m.Commit(d)
	assert.False(t, ok)
	assert.Equal(t, txn.Aborted, d.State())
}

func TestManager_AbortNeverCommitsModifiedChains(t *testing.T) {
	m := txn.NewManager(nil, true)
	d := m.Begin()

	chain := &fakeChain{}
	d.AddModified(chain)

	m.Abort(d)

	assert.False(t, d.IsActive())
	assert.Empty(t, chain.committed)
}

func TestManager_MinActiveIDReflectsActiveSet(t *testing.T) {
	m := txn.NewManager(nil, true)

	empty := m.MinActiveID()
	assert.Equal(t, m.NextID(), empty)

	a := m.Begin()
	b := m.Begin()
	assert.Equal(t, a.ID(), m.MinActiveID())

	m.Commit(a)
	assert.Equal(t, b.ID(), m.MinActiveID())

	m.Commit(b)
	assert.Equal(t, m.NextID(), m.MinActiveID())
}

func TestManager_StatsCountsCommitsAndAborts(t *testing.T) {
	m := txn.NewManager(nil, true)

	a := m.Begin()
	b := m.Begin()
	m.Commit(a)
	m.Abort(b)

	stats := m.Stats()
	assert.Equal(t, 0, stats.Active)
	assert.EqualValues(t, 1, stats.TotalCommits)
	assert.EqualValues(t, 1, stats.TotalAborts)
}

func TestManager_ConcurrentBeginsProduceUniqueIDs(t *testing.T) {
	m := txn.NewManager(nil, true)

	const n = 200
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- m.Begin().ID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
