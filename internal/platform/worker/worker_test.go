package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPoolDrainsAllJobs(t *testing.T) {
	jobs := make(chan int, 10)
	for i := 1; i <= 10; i++ {
		jobs <- i
	}

	close(jobs)

	var (
		mu  sync.Mutex
		sum int
	)

	err := RunPool(context.Background(), jobs, PoolConfig[int]{
		Name:    "test",
		Workers: 3,
		Handle: func(_ context.Context, job int) {
			mu.Lock()
			sum += job
			mu.Unlock()
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 55, sum)
}

func TestRunPoolRecoversPanics(t *testing.T) {
	jobs := make(chan int, 3)
	jobs <- 1
	jobs <- 2
	jobs <- 3

	close(jobs)

	var handled atomic.Int32

	err := RunPool(context.Background(), jobs, PoolConfig[int]{
		Name:    "panicky",
		Workers: 1,
		Handle: func(_ context.Context, job int) {
			handled.Add(1)

			if job == 2 {
				panic("boom")
			}
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), handled.Load())
}

func TestRunPoolAppliesJobTimeout(t *testing.T) {
	jobs := make(chan int, 1)
	jobs <- 1

	close(jobs)

	var hasDeadline atomic.Bool

	err := RunPool(context.Background(), jobs, PoolConfig[int]{
		Name:    "timeout",
		Timeout: time.Minute,
		Handle: func(ctx context.Context, _ int) {
			_, ok := ctx.Deadline()
			hasDeadline.Store(ok)
		},
	})

	require.NoError(t, err)
	assert.True(t, hasDeadline.Load())
}

func TestRunPoolStopsOnCancel(t *testing.T) {
	jobs := make(chan int)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- RunPool(ctx, jobs, PoolConfig[int]{Name: "idle", Workers: 2, Handle: func(context.Context, int) {}})
	}()

	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(2 * time.Second):
		t.Fatal("RunPool did not stop after cancel")
	}
}

func TestWait(t *testing.T) {
	t.Run("zero duration returns immediately", func(t *testing.T) {
		require.NoError(t, Wait(context.Background(), 0))
	})

	t.Run("elapses", func(t *testing.T) {
		require.NoError(t, Wait(context.Background(), time.Millisecond))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := Wait(ctx, time.Hour)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestSingleTickerLoopRunsOnStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ticks atomic.Int32

	err := SingleTickerLoop(ctx, SingleTickerConfig{
		Name:       "gauge",
		Interval:   time.Hour,
		RunOnStart: true,
		OnTick: func(context.Context) {
			ticks.Add(1)
			cancel()
		},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), ticks.Load())
}
