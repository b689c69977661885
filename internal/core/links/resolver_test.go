package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/abc123", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/r/pics/comments/abc123/a_title/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/r/pics/comments/abc123/a_title/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head></head></html>"))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := NewResolver(newTestFetcher(&recordingSleeper{}), nil)

	got, ok := r.Resolve(context.Background(), srv.URL+"/abc123")
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/r/pics/comments/abc123/a_title/", got)
}

func TestResolverReadsCanonicalLink(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "link rel canonical",
			body: `<html><head><link rel="canonical" href="https://reddit.com/r/pics/comments/xyz/t/"></head></html>`,
			want: "https://reddit.com/r/pics/comments/xyz/t/",
		},
		{
			name: "og url fallback",
			body: `<html><head><meta property="og:url" content="https://reddit.com/r/aww/comments/q1/"></head></html>`,
			want: "https://reddit.com/r/aww/comments/q1/",
		},
		{
			name: "canonical wins over og url",
			body: `<html><head><meta property="og:url" content="https://reddit.com/og"><link rel="alternate canonical" href="https://reddit.com/canon"></head></html>`,
			want: "https://reddit.com/canon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			r := NewResolver(newTestFetcher(&recordingSleeper{}), nil)

			got, ok := r.Resolve(context.Background(), srv.URL+"/r/pics/s/AbCd")
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverRelativeCanonical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<link rel="canonical" href="/r/pics/comments/rel/">`))
	}))
	defer srv.Close()

	r := NewResolver(newTestFetcher(&recordingSleeper{}), nil)

	got, ok := r.Resolve(context.Background(), srv.URL+"/short")
	require.True(t, ok)
	assert.Equal(t, srv.URL+"/r/pics/comments/rel/", got)
}

func TestResolverMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	r := NewResolver(newTestFetcher(&recordingSleeper{}), nil)

	got, ok := r.Resolve(context.Background(), srv.URL+"/gone")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestCanonicalFromHTMLRejectsNonHTTP(t *testing.T) {
	body := []byte(`<link rel="canonical" href="javascript:alert(1)">`)

	assert.Empty(t, canonicalFromHTML(body, "https://redd.it/x"))
}
