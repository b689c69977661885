package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
	"github.com/lueurxax/media-relay-bot/internal/platform/worker"
)

// Kind tells the fetcher which retry budget applies to a call.
type Kind string

const (
	KindResolve Kind = "resolve"
	KindEnrich  Kind = "enrich"
)

const (
	defaultFetchTimeout      = 10 * time.Second
	defaultBaseDelay         = 1200 * time.Millisecond
	defaultJitter            = 300 * time.Millisecond
	defaultRetryWait         = 5 * time.Second
	defaultRetryJitter       = time.Second
	defaultResolveMaxRetries = 2
	defaultEnrichMaxRetries  = 3
	defaultUserAgent         = "MediaRelayBot/1.0 (link resolver)"
	maxRedirects             = 10
	maxRetryAfter            = time.Minute
	maxBodySizeMB            = 5
	maxBodySizeBytes         = maxBodySizeMB * 1024 * 1024

	logKeyURL        = "url"
	logKeyKind       = "kind"
	logKeyAttempt    = "attempt"
	logKeyWait       = "wait"
	resultOK         = "ok"
	resultError      = "error"
	resultLimited    = "rate_limited"
	headerRetryAfter = "Retry-After"
)

// FetchConfig configures timeouts, pacing and retry budgets of the fetcher.
type FetchConfig struct {
	Timeout           time.Duration
	UserAgent         string
	BaseDelay         time.Duration
	Jitter            time.Duration
	DefaultRetryWait  time.Duration
	RetryJitter       time.Duration
	ResolveMaxRetries int
	EnrichMaxRetries  int
}

// FetchResult is a successfully fetched document.
type FetchResult struct {
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher issues HTTP GETs with per-call 429 backoff.
type Fetcher struct {
	client *http.Client
	cfg    FetchConfig
	sleep  Sleeper
	jitter JitterFunc
	logger *zerolog.Logger
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithSleeper replaces the timer used for pre-request delays and backoff waits.
func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = s
	}
}

// WithJitter replaces the random jitter source.
func WithJitter(j JitterFunc) FetcherOption {
	return func(f *Fetcher) {
		f.jitter = j
	}
}

// WithTransport replaces the HTTP transport, keeping timeout and redirect policy.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *Fetcher) {
		f.client.Transport = rt
	}
}

func NewFetcher(cfg FetchConfig, logger *zerolog.Logger, opts ...FetcherOption) *Fetcher {
	cfg = withFetchDefaults(cfg)

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return apperrors.ErrTooManyRedirects
				}

				return nil
			},
		},
		cfg:    cfg,
		sleep:  worker.Wait,
		jitter: RandomJitter,
		logger: logger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func withFetchDefaults(cfg FetchConfig) FetchConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = defaultBaseDelay
	}

	if cfg.Jitter < 0 {
		cfg.Jitter = defaultJitter
	}

	if cfg.DefaultRetryWait <= 0 {
		cfg.DefaultRetryWait = defaultRetryWait
	}

	if cfg.RetryJitter < 0 {
		cfg.RetryJitter = defaultRetryJitter
	}

	if cfg.ResolveMaxRetries <= 0 {
		cfg.ResolveMaxRetries = defaultResolveMaxRetries
	}

	if cfg.EnrichMaxRetries <= 0 {
		cfg.EnrichMaxRetries = defaultEnrichMaxRetries
	}

	return cfg
}

// DefaultFetchConfig returns the production pacing and retry budgets.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:           defaultFetchTimeout,
		UserAgent:         defaultUserAgent,
		BaseDelay:         defaultBaseDelay,
		Jitter:            defaultJitter,
		DefaultRetryWait:  defaultRetryWait,
		RetryJitter:       defaultRetryJitter,
		ResolveMaxRetries: defaultResolveMaxRetries,
		EnrichMaxRetries:  defaultEnrichMaxRetries,
	}
}

// Fetch GETs rawURL. Every attempt is preceded by BaseDelay plus jitter; HTTP 429
// is retried with exponential backoff until the budget for kind is spent.
// Any returned error means "no result" to the caller.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, kind Kind) (*FetchResult, error) {
	if u, err := url.Parse(rawURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: not an http(s) URL: %q", apperrors.ErrInvalidInput, rawURL)
	}

	backoff := NewBackoff(f.maxRetries(kind), f.cfg.DefaultRetryWait, f.cfg.RetryJitter, f.jitter)

	for {
		if err := f.sleep(ctx, f.cfg.BaseDelay+f.jitter(f.cfg.Jitter)); err != nil {
			return nil, fmt.Errorf("pre-request delay: %w", err)
		}

		res, retryAfter, err := f.do(ctx, rawURL, kind)
		if err == nil {
			observability.FetchRequests.WithLabelValues(string(kind), resultOK).Inc()

			return res, nil
		}

		if !apperrors.Is(err, apperrors.ErrRateLimited) {
			observability.FetchRequests.WithLabelValues(string(kind), resultError).Inc()
			f.logger.Debug().Err(err).Str(logKeyURL, rawURL).Str(logKeyKind, string(kind)).Msg("fetch failed")

			return nil, err
		}

		wait, ok := backoff.Next(retryAfter)
		if !ok {
			observability.FetchRequests.WithLabelValues(string(kind), resultLimited).Inc()

			return nil, fmt.Errorf("%w: %s %s after %d retries", apperrors.ErrRetryBudgetExhausted, kind, rawURL, backoff.Attempt())
		}

		observability.FetchRetries.WithLabelValues(string(kind)).Inc()
		f.logger.Warn().
			Str(logKeyURL, rawURL).
			Str(logKeyKind, string(kind)).
			Int(logKeyAttempt, backoff.Attempt()).
			Dur(logKeyWait, wait).
			Msg("rate limited, backing off")

		if err := f.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("backoff wait: %w", err)
		}
	}
}

func (f *Fetcher) maxRetries(kind Kind) int {
	if kind == KindResolve {
		return f.cfg.ResolveMaxRetries
	}

	return f.cfg.EnrichMaxRetries
}

// do performs one attempt. On 429 it returns ErrRateLimited and the upstream wait hint.
func (f *Fetcher) do(ctx context.Context, rawURL string, kind Kind) (*FetchResult, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if kind == KindEnrich {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, parseRetryAfter(resp.Header.Get(headerRetryAfter), time.Now()), apperrors.ErrRateLimited
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, 0, fmt.Errorf("%w: %d", apperrors.ErrHTTPStatusNotOK, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	return &FetchResult{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, 0, nil
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
// Zero means "no usable hint". Hints are capped at maxRetryAfter.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs <= 0 {
			return 0
		}

		if secs >= int64(maxRetryAfter/time.Second) {
			return maxRetryAfter
		}

		return time.Duration(secs) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return min(d, maxRetryAfter)
		}
	}

	return 0
}
