package linkextract

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	redditShortHost = "redd.it"
	redditHost      = "reddit.com"
	wwwPrefix       = "www."
	oldPrefix       = "old."
)

var (
	urlRegex       = regexp.MustCompile(`(?i)https?://[^\s<>"]+`)
	subredditRegex = regexp.MustCompile(`(?:^|[^\w/])/?(r/\w+)`)
	shareLinkRegex = regexp.MustCompile(`^/r/\w+/s/\w+`)
	postPathRegex  = regexp.MustCompile(`^(?:/r/\w+)?/comments/\w+`)
)

// ExtractURLs returns every URL token in text in order of appearance.
// Byte-identical duplicates are kept; deduplication happens after canonicalization.
func ExtractURLs(text string) []string {
	return urlRegex.FindAllString(text, -1)
}

// ExtractSubreddits returns "r/<name>" mentions in order of appearance.
func ExtractSubreddits(text string) []string {
	matches := urlRegex.ReplaceAllString(text, " ")

	var subs []string

	for _, m := range subredditRegex.FindAllStringSubmatch(matches, -1) {
		subs = append(subs, m[1])
	}

	return subs
}

// IsShortLink reports whether rawURL is a Reddit short link that needs redirect resolution.
func IsShortLink(rawURL string) bool {
	host, path, ok := hostAndPath(rawURL)
	if !ok {
		return false
	}

	if host == redditShortHost {
		return strings.Trim(path, "/") != ""
	}

	return host == redditHost && shareLinkRegex.MatchString(path)
}

// IsPostURL reports whether rawURL already points at a Reddit post.
func IsPostURL(rawURL string) bool {
	host, path, ok := hostAndPath(rawURL)
	if !ok {
		return false
	}

	return host == redditHost && postPathRegex.MatchString(path)
}

func hostAndPath(rawURL string) (string, string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "", "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, wwwPrefix)
	host = strings.TrimPrefix(host, oldPrefix)

	return host, u.Path, true
}
