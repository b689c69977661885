package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/media-relay-bot/internal/core/errors"
)

const (
	testBaseDelay = 10 * time.Millisecond
	testRetryWait = 5 * time.Second
)

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waits = append(s.waits, d)

	return nil
}

func (s *recordingSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.waits...)
}

func newTestFetcher(sleeper *recordingSleeper) *Fetcher {
	return NewFetcher(FetchConfig{
		Timeout:          5 * time.Second,
		BaseDelay:        testBaseDelay,
		DefaultRetryWait: testRetryWait,
	}, nil, WithSleeper(sleeper.Sleep), WithJitter(noJitter))
}

func TestFetcherSuccess(t *testing.T) {
	var gotUA, gotAccept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	f := newTestFetcher(sleeper)

	res, err := f.Fetch(context.Background(), srv.URL+"/post.json", KindEnrich)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(res.Body))
	assert.Equal(t, "application/json", res.ContentType)
	assert.Equal(t, srv.URL+"/post.json", res.FinalURL)
	assert.Equal(t, defaultUserAgent, gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, []time.Duration{testBaseDelay}, sleeper.Waits())
}

func TestFetcherFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/r/pics/comments/abc123/title/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/r/pics/comments/abc123/title/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{})

	res, err := f.Fetch(context.Background(), srv.URL+"/short", KindResolve)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/r/pics/comments/abc123/title/", res.FinalURL)
}

func TestFetcherRetriesAfterRateLimit(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	f := newTestFetcher(sleeper)

	res, err := f.Fetch(context.Background(), srv.URL, KindEnrich)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []time.Duration{testBaseDelay, 2 * time.Second, testBaseDelay}, sleeper.Waits())
}

func TestFetcherRetryBudget(t *testing.T) {
	tests := []struct {
		name         string
		kind         Kind
		wantAttempts int32
		wantBackoffs []time.Duration
	}{
		{
			name:         "enrich allows three retries",
			kind:         KindEnrich,
			wantAttempts: 4,
			wantBackoffs: []time.Duration{testRetryWait, 2 * testRetryWait, 4 * testRetryWait},
		},
		{
			name:         "resolve allows two retries",
			kind:         KindResolve,
			wantAttempts: 3,
			wantBackoffs: []time.Duration{testRetryWait, 2 * testRetryWait},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer srv.Close()

			sleeper := &recordingSleeper{}
			f := newTestFetcher(sleeper)

			res, err := f.Fetch(context.Background(), srv.URL, tt.kind)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, apperrors.Is(err, apperrors.ErrRetryBudgetExhausted))
			assert.Equal(t, tt.wantAttempts, hits.Load())

			var backoffs []time.Duration

			for _, w := range sleeper.Waits() {
				if w != testBaseDelay {
					backoffs = append(backoffs, w)
				}
			}

			assert.Equal(t, tt.wantBackoffs, backoffs)
		})
	}
}

func TestFetcherNonRetryableStatus(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{})

	_, err := f.Fetch(context.Background(), srv.URL, KindEnrich)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrHTTPStatusNotOK))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcherRedirectLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := newTestFetcher(&recordingSleeper{})

	_, err := f.Fetch(context.Background(), srv.URL+"/loop", KindResolve)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrTooManyRedirects))
}

func TestFetcherStopsWhenSleepFails(t *testing.T) {
	f := NewFetcher(FetchConfig{}, nil, WithSleeper(func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}))

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/", KindResolve)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithFetchDefaults(t *testing.T) {
	cfg := withFetchDefaults(FetchConfig{BaseDelay: -1, Jitter: -1, RetryJitter: -1})

	assert.Equal(t, DefaultFetchConfig(), cfg)

	cfg = withFetchDefaults(FetchConfig{ResolveMaxRetries: 5, EnrichMaxRetries: 1})
	assert.Equal(t, 5, cfg.ResolveMaxRetries)
	assert.Equal(t, 1, cfg.EnrichMaxRetries)
	assert.Equal(t, time.Duration(0), cfg.BaseDelay)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "7", want: 7 * time.Second},
		{name: "padded seconds", value: " 3 ", want: 3 * time.Second},
		{name: "zero seconds", value: "0", want: 0},
		{name: "negative seconds", value: "-4", want: 0},
		{name: "http date", value: now.Add(45 * time.Second).Format(http.TimeFormat), want: 45 * time.Second},
		{name: "huge seconds are capped", value: "99999999999", want: time.Minute},
		{name: "overflowing seconds are ignored", value: "999999999999999999999", want: 0},
		{name: "far http date is capped", value: now.Add(48 * time.Hour).Format(http.TimeFormat), want: time.Minute},
		{name: "past http date", value: now.Add(-time.Minute).Format(http.TimeFormat), want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.value, now))
		})
	}
}

func TestFetcherRejectsNonHTTPURLs(t *testing.T) {
	sleeper := &recordingSleeper{}
	f := newTestFetcher(sleeper)

	for _, raw := range []string{"ftp://example.com/a.gif", "https://", "not a url", "javascript://x"} {
		_, err := f.Fetch(context.Background(), raw, KindEnrich)
		require.Error(t, err, raw)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput), raw)
	}

	assert.Empty(t, sleeper.Waits())
}
