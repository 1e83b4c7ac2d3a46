package gcscheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ccjx3/KVDatabase/internal/gcscheduler"
	"github.com/stretchr/testify/assert"
)

type fakeCollector struct {
	calls atomic.Int64
}

func (f *fakeCollector) GC() int {
	f.calls.Add(1)
	return 0
}

func TestScheduler_SweepsOnEachTick(t *testing.T) {
	target := &fakeCollector{}
	s := gcscheduler.New(target, 10*time.Millisecond, nil, nil)
	s.Start()
	defer s.Stop(time.Second)

	assert.Eventually(t, func() bool {
		return target.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopHaltsFurtherSweeps(t *testing.T) {
	target := &fakeCollector{}
	s := gcscheduler.New(target, 10*time.Millisecond, nil, nil)
	s.Start()

	assert.Eventually(t, func() bool {
		return target.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	countBeforeStop := target.calls.Load()
	s.Stop(time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, countBeforeStop, target.calls.Load(), "no sweeps should run after Stop")
}
