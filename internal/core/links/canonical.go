package links

import "strings"

const (
	schemeSep        = "://"
	wwwPrefix        = "www."
	redditWWWHost    = "www.reddit.com"
	redditHost       = "reddit.com"
	redditPreview    = "preview.redd.it"
	redditDirectBase = "https://i.redd.it/"
	mirrorBase       = "https://fxtwitter.com"
)

// microblogHosts are rewritten to an embed-friendly mirror.
var microblogHosts = map[string]struct{}{
	"twitter.com":        {},
	"www.twitter.com":    {},
	"mobile.twitter.com": {},
	"x.com":              {},
	"www.x.com":          {},
}

// Canonical maps a URL token to its normalized form. It is total and idempotent:
// Canonical(Canonical(s)) == Canonical(s) for every s.
func Canonical(raw string) string {
	s := raw

	if idx := strings.Index(s, schemeSep); idx > 0 && isScheme(s[:idx]) {
		s = rewriteHost(s, idx)
	}

	if idx := strings.IndexByte(s, '?'); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimRight(s, "/")
}

// rewriteHost collapses domain aliases. sepIdx is the position of "://".
func rewriteHost(s string, sepIdx int) string {
	rest := s[sepIdx+len(schemeSep):]

	hostEnd := strings.IndexAny(rest, "/?#")
	if hostEnd < 0 {
		hostEnd = len(rest)
	}

	host := strings.ToLower(rest[:hostEnd])
	tail := rest[hostEnd:]

	switch {
	case host == redditWWWHost:
		return s[:sepIdx+len(schemeSep)] + redditHost + tail
	case host == redditPreview:
		if file := previewFilename(tail); file != "" {
			return redditDirectBase + file
		}
	default:
		if _, ok := microblogHosts[host]; ok {
			return mirrorBase + tail
		}
	}

	return s
}

func isScheme(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}

	return true
}

// previewFilename returns the last path segment without query or fragment.
func previewFilename(tail string) string {
	if idx := strings.IndexAny(tail, "?#"); idx >= 0 {
		tail = tail[:idx]
	}

	tail = strings.TrimRight(tail, "/")

	return tail[strings.LastIndexByte(tail, '/')+1:]
}

func normalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimPrefix(host, wwwPrefix)

	return host
}
