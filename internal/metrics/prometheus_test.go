package metrics_test

import (
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_SyncPoolStatsAdvancesCountersByDelta(t *testing.T) {
	c := metrics.NewCollector(t.Name())

	c.SyncPoolStats(2, 0, 5)
	c.SyncPoolStats(3, 1, 4)

	assert.Equal(t, float64(3), testutil.ToFloat64(c.PoolAllocationsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.PoolReusedTotal))
	assert.Equal(t, float64(4), testutil.ToFloat64(c.PoolFreeSize))
}

func TestCollector_TxnLifecycleCounters(t *testing.T) {
	c := metrics.NewCollector(t.Name())

	c.ObserveTxnBegin()
	c.ObserveTxnBegin()
	c.ObserveTxnCommit()
	c.ObserveTxnAbort()
	c.SetTxnActive(1)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.TxnBeginsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.TxnCommitsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.TxnAbortsTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.TxnActive))
}

func TestCollector_ObserveVersionsReclaimedIgnoresZero(t *testing.T) {
	c := metrics.NewCollector(t.Name())

	c.ObserveVersionsReclaimed(0)
	c.ObserveVersionsReclaimed(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(c.VersionsReclaimedTotal))
}
