package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	apperrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/core/links"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

const (
	jsonSuffix = ".json?raw_json=1"

	logKeyURL   = "url"
	logKeyItems = "items"

	resultHit     = "hit"
	resultOK      = "ok"
	resultNoMedia = "no_media"
	resultError   = "error"
)

// DocumentFetcher retrieves a remote document.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string, kind links.Kind) (*links.FetchResult, error)
}

// Enricher resolves a post URL to the media it carries.
type Enricher struct {
	fetcher DocumentFetcher
	cache   Cache
	filter  MediaFilter
	group   singleflight.Group
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewEnricher(fetcher DocumentFetcher, cache Cache, filter MediaFilter, logger *zerolog.Logger) *Enricher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Enricher{
		fetcher: fetcher,
		cache:   cache,
		filter:  filter,
		now:     time.Now,
		logger:  logger,
	}
}

// Enrich returns the media behind resolvedURL. The returned post is shared with
// the cache and must not be modified. A miss is reported as (nil, false).
func (e *Enricher) Enrich(ctx context.Context, resolvedURL string) (*domain.EnrichedPost, bool) {
	key := links.Canonical(resolvedURL)

	if post, ok := e.cache.Get(key, e.now()); ok {
		observability.EnrichmentCacheHits.Inc()
		observability.EnrichmentResults.WithLabelValues(resultHit).Inc()

		return post, true
	}

	observability.EnrichmentCacheMisses.Inc()

	v, err, _ := e.group.Do(key, func() (any, error) {
		return e.load(ctx, key)
	})
	if err != nil {
		result := resultError
		if apperrors.Is(err, apperrors.ErrNoMedia) {
			result = resultNoMedia
		}

		observability.EnrichmentResults.WithLabelValues(result).Inc()
		e.logger.Debug().Err(err).Str(logKeyURL, key).Msg("enrichment miss")

		return nil, false
	}

	observability.EnrichmentResults.WithLabelValues(resultOK).Inc()

	post, ok := v.(*domain.EnrichedPost)

	return post, ok
}

func (e *Enricher) load(ctx context.Context, key string) (*domain.EnrichedPost, error) {
	// a lookup that finished between our cache check and Do already stored it
	if post, ok := e.cache.Get(key, e.now()); ok {
		return post, nil
	}

	res, err := e.fetcher.Fetch(ctx, key+jsonSuffix, links.KindEnrich)
	if err != nil {
		return nil, fmt.Errorf("fetch post document: %w", err)
	}

	post, err := ParsePost(res.Body, e.filter)
	if err != nil {
		return nil, err
	}

	e.cache.Put(key, post, e.now())
	e.logger.Debug().Str(logKeyURL, key).Int(logKeyItems, len(post.MediaURLs)).Msg("post enriched")

	return post, nil
}

// ParsePost extracts an EnrichedPost from a post's JSON document.
func ParsePost(body []byte, filter MediaFilter) (*domain.EnrichedPost, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode post document: %w", err)
	}

	if !isObject(doc) && !isArray(doc) {
		return nil, fmt.Errorf("post document: %w", apperrors.ErrUnexpectedType)
	}

	record := FindFirst(doc, isPostRecord)
	if record == nil {
		return nil, apperrors.ErrPostNotFound
	}

	found := discoverMedia(record, filter)
	if len(found.urls) == 0 {
		return nil, apperrors.ErrNoMedia
	}

	urls := make([]string, 0, len(found.urls))
	for _, u := range found.urls {
		urls = append(urls, links.Canonical(u))
	}

	return &domain.EnrichedPost{
		MediaURLs:  urls,
		Title:      stringAt(record, "title"),
		Subreddit:  stringAt(record, "subreddit"),
		Author:     stringAt(record, "author"),
		HasGallery: found.hasGallery,
		HasVideo:   found.hasVideo,
	}, nil
}
