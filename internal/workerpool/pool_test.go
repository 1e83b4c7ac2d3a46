package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ccjx3/KVDatabase/internal/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_TrySubmitExecutesTask(t *testing.T) {
	r := workerpool.NewRunner(&workerpool.Config{QueueSize: 1})
	defer r.Stop(time.Second)

	var ran atomic.Bool
	ok := r.TrySubmit(workerpool.Task{
		ID: "t1",
		Fn: func(ctx context.Context) error {
			ran.Store(true)
			return nil
		},
	})
	require.True(t, ok)

	assert.Eventually(t, ran.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), r.Stats().CompletedTasks)
}

func TestRunner_TrySubmitRejectsAfterStop(t *testing.T) {
	r := workerpool.NewRunner(&workerpool.Config{QueueSize: 1})
	require.NoError(t, r.Stop(time.Second))

	ok := r.TrySubmit(workerpool.Task{ID: "t1", Fn: func(ctx context.Context) error { return nil }})
	assert.False(t, ok)
	assert.Equal(t, uint64(1), r.Stats().RejectedTasks)
}

func TestRunner_FailedTaskIncrementsFailedCount(t *testing.T) {
	r := workerpool.NewRunner(&workerpool.Config{QueueSize: 1})
	defer r.Stop(time.Second)

	r.TrySubmit(workerpool.Task{
		ID: "t1",
		Fn: func(ctx context.Context) error { return errors.New("boom") },
	})

	assert.Eventually(t, func() bool {
		return r.Stats().FailedTasks == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunner_PanicInTaskIsRecoveredAsFailure(t *testing.T) {
	r := workerpool.NewRunner(&workerpool.Config{QueueSize: 1})
	defer r.Stop(time.Second)

	r.TrySubmit(workerpool.Task{
		ID: "t1",
		Fn: func(ctx context.Context) error { panic("kaboom") },
	})

	assert.Eventually(t, func() bool {
		return r.Stats().FailedTasks == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStats_SuccessRateWithNoTasksIsFull(t *testing.T) {
	assert.Equal(t, 100.0, workerpool.Stats{}.SuccessRate())
}
