package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	_, err := NewPool(0, time.Second)
	assert.Error(t, err)

	p, err := NewPool(4, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 4, p.MaxWorkers())
}

func TestExecuteTasks(t *testing.T) {
	p, err := NewPool(3, time.Second)
	require.NoError(t, err)

	boom := errors.New("boom")
	var running, peak int32
	tasks := make([]Task, 10)
	for i := range tasks {
		i := i
		tasks[i] = func(ctx context.Context) error {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			if i%4 == 0 {
				return boom
			}
			return nil
		}
	}

	errs := p.ExecuteTasks(context.Background(), tasks)
	require.Len(t, errs, 10)
	for i, err := range errs {
		if i%4 == 0 {
			assert.ErrorIs(t, err, boom, "task %d", i)
		} else {
			assert.NoError(t, err, "task %d", i)
		}
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))

	m := p.GetMetrics()
	assert.Equal(t, int64(10), m.TotalTasks)
	assert.Equal(t, int64(7), m.CompletedTasks)
	assert.Equal(t, int64(3), m.FailedTasks)
	assert.LessOrEqual(t, m.PeakWorkers, int64(3))
}

func TestExecuteTasksTimeout(t *testing.T) {
	p, err := NewPool(2, 20*time.Millisecond)
	require.NoError(t, err)

	errs := p.ExecuteTasks(context.Background(), []Task{
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context) error { return nil },
	})

	assert.ErrorIs(t, errs[0], context.DeadlineExceeded)
	assert.NoError(t, errs[1])
	assert.Equal(t, int64(1), p.GetMetrics().TimedOutTasks)
}

func TestExecuteTasksCancelled(t *testing.T) {
	p, err := NewPool(1, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	errs := p.ExecuteTasks(ctx, []Task{
		func(ctx context.Context) error {
			close(started)
			cancel()
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	})
	<-started

	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.ErrorIs(t, errs[2], context.Canceled)
}

func TestExecuteNoTasks(t *testing.T) {
	p, err := NewPool(2, time.Second)
	require.NoError(t, err)
	assert.Empty(t, p.ExecuteTasks(context.Background(), nil))
}
