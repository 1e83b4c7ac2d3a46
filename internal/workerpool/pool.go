// Package workerpool runs background tasks off a bounded queue on a
// single worker goroutine. Adapted from the teacher's
// internal/util/workerpool/pool.go, trimmed to the shape
// internal/gcscheduler actually drives it as: one worker, one queue
// slot, fire-and-forget submission that never blocks the caller. The
// teacher's named multi-worker pool, blocking Submit/SubmitWithContext,
// and per-task Context override don't apply to a single periodic
// GC sweep and were dropped rather than carried along unused.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of work submitted to a Runner.
type Task struct {
	ID string
	Fn func(context.Context) error
}

// Runner executes submitted tasks, one at a time, on a single worker
// goroutine fed by a bounded queue.
type Runner struct {
	taskQueue chan Task
	queueSize int
	logger    *zap.Logger
	wg        sync.WaitGroup
	stopOnce  sync.Once
	stopChan  chan struct{}

	active         int32
	totalTasks     uint64
	completedTasks uint64
	failedTasks    uint64
	rejectedTasks  uint64
}

// Config holds Runner configuration.
type Config struct {
	QueueSize int
	Logger    *zap.Logger
}

// NewRunner creates and starts a Runner backed by a single worker
// goroutine.
func NewRunner(cfg *Config) *Runner {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Runner{
		queueSize: cfg.QueueSize,
		taskQueue: make(chan Task, cfg.QueueSize),
		logger:    cfg.Logger,
		stopChan:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("worker runner started", zap.Int("queue_size", r.queueSize))

	return r
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopChan:
			return
		case task := <-r.taskQueue:
			r.executeTask(task)
		}
	}
}

func (r *Runner) executeTask(task Task) {
	atomic.AddInt32(&r.active, 1)
	defer atomic.AddInt32(&r.active, -1)

	start := time.Now()
	err := r.safeExecute(task)
	duration := time.Since(start)

	if err != nil {
		atomic.AddUint64(&r.failedTasks, 1)
		r.logger.Error("task failed",
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		atomic.AddUint64(&r.completedTasks, 1)
		r.logger.Debug("task completed",
			zap.String("task_id", task.ID),
			zap.Duration("duration", duration))
	}
}

func (r *Runner) safeExecute(task Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task panicked: %v", rec)
			r.logger.Error("task panic recovered", zap.String("task_id", task.ID), zap.Any("panic", rec))
		}
	}()
	return task.Fn(context.Background())
}

// TrySubmit attempts to enqueue task without blocking. It returns false
// if the queue is full or the runner has been stopped, leaving the
// caller free to skip this tick rather than pile up work.
func (r *Runner) TrySubmit(task Task) bool {
	select {
	case <-r.stopChan:
		atomic.AddUint64(&r.rejectedTasks, 1)
		return false
	default:
	}
	select {
	case r.taskQueue <- task:
		atomic.AddUint64(&r.totalTasks, 1)
		return true
	default:
		atomic.AddUint64(&r.rejectedTasks, 1)
		return false
	}
}

// Stop halts the worker goroutine, waiting up to timeout for any
// in-flight task to finish.
func (r *Runner) Stop(timeout time.Duration) error {
	var err error
	r.stopOnce.Do(func() {
		r.logger.Info("stopping worker runner")
		close(r.stopChan)

		done := make(chan struct{})
		go func() {
			r.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			r.logger.Info("worker runner stopped gracefully")
		case <-time.After(timeout):
			err = fmt.Errorf("worker runner stop timeout after %v", timeout)
			r.logger.Warn("worker runner stop timeout")
		}
	})
	return err
}

// Stats returns current runner statistics.
func (r *Runner) Stats() Stats {
	return Stats{
		QueueSize:      r.queueSize,
		QueuedTasks:    len(r.taskQueue),
		Active:         atomic.LoadInt32(&r.active) > 0,
		TotalTasks:     atomic.LoadUint64(&r.totalTasks),
		CompletedTasks: atomic.LoadUint64(&r.completedTasks),
		FailedTasks:    atomic.LoadUint64(&r.failedTasks),
		RejectedTasks:  atomic.LoadUint64(&r.rejectedTasks),
	}
}

// Stats is a point-in-time snapshot of a Runner's activity.
type Stats struct {
	QueueSize      int
	QueuedTasks    int
	Active         bool
	TotalTasks     uint64
	CompletedTasks uint64
	FailedTasks    uint64
	RejectedTasks  uint64
}

// SuccessRate returns the task success rate as a percentage.
func (s Stats) SuccessRate() float64 {
	if s.TotalTasks == 0 {
		return 100.0
	}
	return (float64(s.CompletedTasks) / float64(s.TotalTasks)) * 100.0
}
