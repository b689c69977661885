package links

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const (
	logKeyFinal  = "final_url"
	relCanonical = "canonical"
	propOGURL    = "og:url"
)

// Resolver expands short links to the URL they redirect to.
type Resolver struct {
	fetcher *Fetcher
	logger  *zerolog.Logger
}

func NewResolver(fetcher *Fetcher, logger *zerolog.Logger) *Resolver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve follows redirects from shortURL and returns the terminal URL.
// When the short link answers with an HTML page instead of a redirect, the
// page's canonical link is used. Any failure is a miss.
func (r *Resolver) Resolve(ctx context.Context, shortURL string) (string, bool) {
	res, err := r.fetcher.Fetch(ctx, shortURL, KindResolve)
	if err != nil {
		r.logger.Debug().Err(err).Str(logKeyURL, shortURL).Msg("short link not resolved")

		return "", false
	}

	final := res.FinalURL
	if final == "" {
		return "", false
	}

	if Canonical(final) == Canonical(shortURL) && isHTML(res.ContentType) {
		if href := canonicalFromHTML(res.Body, final); href != "" {
			final = href
		}
	}

	r.logger.Debug().Str(logKeyURL, shortURL).Str(logKeyFinal, final).Msg("short link resolved")

	return final, true
}

func isHTML(contentType string) bool {
	return contentType == "" || strings.Contains(strings.ToLower(contentType), "html")
}

// canonicalFromHTML returns the absolute href of <link rel="canonical">, falling
// back to <meta property="og:url">.
func canonicalFromHTML(body []byte, base string) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var canonical, ogURL string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if canonical != "" {
			return
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				if hasToken(attr(n, "rel"), relCanonical) {
					canonical = attr(n, "href")
				}
			case "meta":
				if ogURL == "" && attr(n, "property") == propOGURL {
					ogURL = attr(n, "content")
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	href := canonical
	if href == "" {
		href = ogURL
	}

	return absolute(strings.TrimSpace(href), base)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}

	return ""
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(strings.ToLower(list)) {
		if f == token {
			return true
		}
	}

	return false
}

func absolute(href, base string) string {
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}

	abs := baseURL.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}

	return abs.String()
}
