package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// SingleTickerConfig configures a loop that runs OnTick at a fixed interval.
type SingleTickerConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Interval is the ticker interval.
	Interval time.Duration

	// OnTick is called when the ticker fires.
	OnTick func(ctx context.Context)

	// RunOnStart runs OnTick immediately when starting.
	RunOnStart bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// SingleTickerLoop runs cfg.OnTick every cfg.Interval until ctx is canceled.
// Returns a wrapped context error when the context is canceled.
func SingleTickerLoop(ctx context.Context, cfg SingleTickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting ticker loop")

	defer func() {
		logger.Info().Str(logFieldWorker, cfg.Name).Msg("ticker loop stopped")
	}()

	if cfg.Interval <= 0 || cfg.OnTick == nil {
		<-ctx.Done()

		return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
	}

	if cfg.RunOnStart {
		cfg.OnTick(ctx)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("ticker loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			logger.Debug().Str(logFieldTask, cfg.Name).Msg("ticker fired")
			cfg.OnTick(ctx)
		}
	}
}
