// Package app wires the relay bot together and runs it.
//
// RunBot connects to the Bot API and drains inbound messages through the
// link pipeline with a bounded worker pool, while a ticker keeps the
// enrichment cache pruned. StartHealthServer exposes health and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/core/links"
	"github.com/lueurxax/media-relay-bot/internal/core/reddit"
	"github.com/lueurxax/media-relay-bot/internal/output/repost"
	"github.com/lueurxax/media-relay-bot/internal/platform/config"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/platform/worker"
	"github.com/lueurxax/media-relay-bot/internal/process/pipeline"
	"github.com/lueurxax/media-relay-bot/internal/telegrambot"
)

const (
	errBotInit = "bot initialization failed: %w"

	poolName          = "relay-handler"
	cachePrunerName   = "enrichment-cache-pruner"
	logFieldBot       = "bot"
	logFieldSources   = "sources"
	logFieldTestMode  = "test_mode"
	logFieldPruned    = "pruned"
	logFieldCacheSize = "cache_size"
)

// App holds the application dependencies.
type App struct {
	cfg    *config.Config
	health *observability.Server
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		health: observability.NewServer(cfg.Port, logger),
		logger: logger,
	}
}

func (a *App) StartHealthServer(ctx context.Context) error {
	if err := a.health.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

// RunBot blocks until ctx is canceled or the update stream ends. It returns
// nil when the stream ends on its own.
func (a *App) RunBot(ctx context.Context) error {
	a.logger.Info().Msg("Starting bot mode")

	b, err := telegrambot.New(a.cfg.TelegramCfg(), a.logger)
	if err != nil {
		return fmt.Errorf(errBotInit, err)
	}

	cache := reddit.NewMemoryCache(a.cfg.EnrichCacheTTL)
	p := a.newPipeline(b, cache)
	p.SetSelfID(b.SelfID())

	a.health.SetReady(b.Username())

	a.logger.Info().
		Str(logFieldBot, b.Username()).
		Int(logFieldSources, len(a.cfg.SourceAccountIDs)).
		Bool(logFieldTestMode, a.cfg.TestMode).
		Msg("Bot connected")

	return a.serve(ctx, b.Messages, func(ctx context.Context, msg domain.RawMessage) {
		_, _ = p.Handle(ctx, msg) //nolint:errcheck // Handle logs and audits its own failures
	}, cache)
}

// serve drains the update stream through the handler pool and prunes the cache
// until ctx is canceled or the stream closes. A closed stream stops the pruner too.
func (a *App) serve(
	ctx context.Context,
	updates func(context.Context) <-chan domain.RawMessage,
	handle func(context.Context, domain.RawMessage),
	cache *reddit.MemoryCache,
) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer stop()

		return worker.RunPool(gctx, updates(gctx), worker.PoolConfig[domain.RawMessage]{
			Name:    poolName,
			Workers: a.cfg.HandlerWorkers,
			Timeout: a.cfg.HandlerTimeout,
			Handle:  handle,
			Logger:  a.logger,
		})
	})

	g.Go(func() error {
		return worker.SingleTickerLoop(gctx, worker.SingleTickerConfig{
			Name:     cachePrunerName,
			Interval: a.cfg.CachePruneInterval,
			OnTick: func(context.Context) {
				a.pruneCache(cache, time.Now())
			},
			Logger: a.logger,
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot run: %w", err)
	}

	if ctx.Err() == nil {
		a.logger.Warn().Msg("update stream closed")
	}

	return ctx.Err()
}

func (a *App) newPipeline(b *telegrambot.Bot, cache reddit.Cache) *pipeline.Pipeline {
	fetcher := links.NewFetcher(a.cfg.FetchCfg(), a.logger)
	classifier := links.NewClassifier(a.cfg.AllowedExtensions, a.cfg.AllowedDomains)

	return pipeline.New(a.cfg.PipelineCfg(), pipeline.Deps{
		Resolver:   links.NewResolver(fetcher, a.logger),
		Enricher:   reddit.NewEnricher(fetcher, cache, classifier, a.logger),
		Classifier: classifier,
		Composer:   repost.NewComposer(a.cfg.MaxItemsPerMessage),
		Messenger:  b,
		Auditor:    b,
		Logger:     a.logger,
	})
}

func (a *App) pruneCache(cache *reddit.MemoryCache, now time.Time) {
	pruned := cache.Prune(now)
	size := cache.Len()

	observability.EnrichmentCacheSize.Set(float64(size))

	if pruned > 0 {
		a.logger.Debug().Int(logFieldPruned, pruned).Int(logFieldCacheSize, size).Msg("enrichment cache pruned")
	}
}
