package kvstore_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/config"
	"github.com/Ccjx3/KVDatabase/internal/metrics"
	"github.com/Ccjx3/KVDatabase/internal/persistence"
	"github.com/Ccjx3/KVDatabase/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOptimizedStore(t *testing.T) *kvstore.OptimizedStore[int, string] {
	t.Helper()
	cfg := config.DefaultConfig()
	collector := metrics.NewCollector(t.Name())
	return kvstore.NewOptimizedStore[int, string](cfg, func(k int) string { return strconv.Itoa(k) }, nil, collector)
}

func TestOptimizedStore_InsertThenSearchFindsValue(t *testing.T) {
	s := newOptimizedStore(t)

	inserted, exists := s.Insert(1, "a")
	assert.True(t, inserted)
	assert.False(t, exists)

	v, ok := s.Search(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestOptimizedStore_DeleteRemovesKey(t *testing.T) {
	s := newOptimizedStore(t)
	s.Insert(1, "a")

	deleted, missing := s.Delete(1)
	assert.True(t, deleted)
	assert.False(t, missing)

	_, ok := s.Search(1)
	assert.False(t, ok)
}

func TestOptimizedStore_ElementsMatchesSize(t *testing.T) {
	s := newOptimizedStore(t)
	s.Insert(1, "a")
	s.Insert(2, "b")

	assert.Equal(t, 2, s.Size())
	assert.Equal(t, 2, s.Elements())
	assert.Zero(t, s.ActiveTransactions())
}

func TestOptimizedStore_DisplayLevelsIncludesEveryKeyAtLevelZero(t *testing.T) {
	s := newOptimizedStore(t)
	s.Insert(1, "a")
	s.Insert(2, "b")

	levels := s.DisplayLevels()
	require.NotEmpty(t, levels)
	assert.Equal(t, []int{1, 2}, levels[0])
}

func TestOptimizedStore_DumpAndLoadRoundTrip(t *testing.T) {
	s := newOptimizedStore(t)
	s.Insert(1, "a")
	s.Insert(2, "b")

	var buf bytes.Buffer
	require.NoError(t, s.Dump(&buf, persistence.IntStringCodec()))

	freshCollector := metrics.NewCollector(t.Name() + "/fresh")
	fresh := kvstore.NewOptimizedStore[int, string](config.DefaultConfig(), func(k int) string { return strconv.Itoa(k) }, nil, freshCollector)
	loaded, bad, err := fresh.Load(&buf, persistence.IntStringCodec())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Zero(t, bad)

	v, ok := fresh.Search(2)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestOptimizedStore_LoadSkipsAlreadyPresentKeys(t *testing.T) {
	s := newOptimizedStore(t)
	s.Insert(1, "a")

	loaded, bad, err := s.Load(bytes.NewBufferString("1:z\n2:b\n"), persistence.IntStringCodec())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)
	assert.Zero(t, bad)

	v, _ := s.Search(1)
	assert.Equal(t, "a", v, "existing key must not be overwritten by load")
}
