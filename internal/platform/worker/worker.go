// Package worker provides small concurrency helpers for background processing:
// a bounded pool that drains a job channel, ticker loops, context-aware waits
// and panic recovery.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
	defaultWorkers = 1
)

// HandleFunc processes one job.
type HandleFunc[T any] func(ctx context.Context, job T)

// PoolConfig configures a job pool.
type PoolConfig[T any] struct {
	// Name identifies the pool for logging.
	Name string

	// Workers is the number of concurrent handlers.
	Workers int

	// Timeout bounds a single job; zero means no extra deadline.
	Timeout time.Duration

	// Handle is called for every job.
	Handle HandleFunc[T]

	// Logger for the pool.
	Logger *zerolog.Logger
}

// RunPool starts cfg.Workers goroutines that drain jobs until the channel is
// closed or ctx is canceled. Jobs are independent: no ordering is kept across them.
// A panicking job is logged and does not take its worker down.
func RunPool[T any](ctx context.Context, jobs <-chan T, cfg PoolConfig[T]) error {
	logger := getLogger(cfg.Logger)

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	logger.Info().Str(logFieldWorker, cfg.Name).Int("workers", workers).Msg("starting worker pool")

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			drain(ctx, jobs, cfg, logger)
		}()
	}

	wg.Wait()
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("worker pool stopped")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("worker pool %s: %w", cfg.Name, err)
	}

	return nil
}

func drain[T any](ctx context.Context, jobs <-chan T, cfg PoolConfig[T], logger *zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}

			runJob(ctx, job, cfg, logger)
		}
	}
}

func runJob[T any](ctx context.Context, job T, cfg PoolConfig[T], logger *zerolog.Logger) {
	defer RecoverPanic(logger, cfg.Name)

	if cfg.Timeout <= 0 {
		cfg.Handle(ctx, job)
		return
	}

	_ = RunWithTimeout(ctx, cfg.Timeout, func(ctx context.Context) error { //nolint:errcheck // handler reports its own errors
		cfg.Handle(ctx, job)
		return nil
	})
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// The function receives a context that will be canceled after timeout.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

// getLogger returns the provided logger or a nop logger if nil.
func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
