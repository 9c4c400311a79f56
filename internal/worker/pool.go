package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// PoolMetrics provides metrics about the worker pool's performance
type PoolMetrics struct {
	TotalTasks         int64
	CompletedTasks     int64
	FailedTasks        int64
	TimedOutTasks      int64
	PeakWorkers        int64
	AverageExecutionMs int64
	TotalExecutionMs   int64
}

// Task represents a unit of work to be executed
type Task func(ctx context.Context) error

type job struct {
	task  Task
	index int
}

// Pool runs tasks on a fixed number of workers. Every task gets its own
// context bounded by the task timeout.
type Pool struct {
	maxWorkers  int
	taskTimeout time.Duration

	mu            sync.Mutex
	metrics       PoolMetrics
	activeWorkers int64
}

// NewPool creates a new worker pool. A taskTimeout of zero leaves tasks
// bounded only by the caller's context.
func NewPool(maxWorkers int, taskTimeout time.Duration) (*Pool, error) {
	if maxWorkers <= 0 {
		return nil, fmt.Errorf("maxWorkers must be greater than 0, got %d", maxWorkers)
	}
	return &Pool{
		maxWorkers:  maxWorkers,
		taskTimeout: taskTimeout,
	}, nil
}

// MaxWorkers returns the number of workers
func (p *Pool) MaxWorkers() int {
	return p.maxWorkers
}

// ExecuteTasks runs tasks concurrently and blocks until all of them finish.
// The returned slice holds each task's error at the task's index. Tasks not
// yet started when ctx is cancelled fail with the context's error.
func (p *Pool) ExecuteTasks(ctx context.Context, tasks []Task) []error {
	errs := make([]error, len(tasks))
	if len(tasks) == 0 {
		return errs
	}

	p.mu.Lock()
	p.metrics.TotalTasks += int64(len(tasks))
	p.mu.Unlock()

	jobs := make(chan job)
	workers := p.maxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, jobs, errs)
		}()
	}

	for i, task := range tasks {
		if ctx.Err() == nil {
			select {
			case jobs <- job{task: task, index: i}:
				continue
			case <-ctx.Done():
			}
		}
		for j := i; j < len(tasks); j++ {
			errs[j] = ctx.Err()
		}
		break
	}
	close(jobs)
	wg.Wait()

	return errs
}

func (p *Pool) worker(ctx context.Context, jobs <-chan job, errs []error) {
	current := atomic.AddInt64(&p.activeWorkers, 1)
	defer atomic.AddInt64(&p.activeWorkers, -1)

	p.mu.Lock()
	if current > p.metrics.PeakWorkers {
		p.metrics.PeakWorkers = current
	}
	p.mu.Unlock()

	for j := range jobs {
		start := time.Now()

		taskCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.taskTimeout > 0 {
			taskCtx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		}
		err := j.task(taskCtx)
		timedOut := taskCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
		cancel()

		errs[j.index] = err

		p.mu.Lock()
		p.metrics.TotalExecutionMs += time.Since(start).Milliseconds()
		switch {
		case err == nil:
			p.metrics.CompletedTasks++
		case timedOut:
			p.metrics.TimedOutTasks++
			p.metrics.FailedTasks++
		default:
			p.metrics.FailedTasks++
		}
		p.mu.Unlock()
	}
}

// GetMetrics returns the current metrics for the pool
func (p *Pool) GetMetrics() PoolMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	m := p.metrics
	finished := m.CompletedTasks + m.FailedTasks
	if finished > 0 {
		m.AverageExecutionMs = m.TotalExecutionMs / finished
	}
	return m
}
