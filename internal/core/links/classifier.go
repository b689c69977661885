package links

import (
	"net/url"
	"strings"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/platform/observability"
)

// Classifier decides whether a canonical URL may be reposted.
type Classifier struct {
	extensions []string
	domains    []string
}

// NewClassifier builds a classifier from allow-listed file extensions
// (".mp4", ".gif", ...) and host domains ("redgifs.com").
func NewClassifier(extensions, domains []string) *Classifier {
	c := &Classifier{}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			c.extensions = append(c.extensions, ext)
		}
	}

	for _, d := range domains {
		d = normalizeDomain(d)
		if d != "" {
			c.domains = append(c.domains, d)
		}
	}

	return c
}

// Classify returns Allowed for enriched URLs, URLs on an allow-listed domain
// and URLs whose path carries an allow-listed extension; Blocked otherwise.
func (c *Classifier) Classify(rawURL string, enriched bool) domain.Decision {
	decision := c.decide(rawURL, enriched)
	observability.URLsClassified.WithLabelValues(decision.String()).Inc()

	return decision
}

// IsEmbeddable reports whether a URL not produced by enrichment would be allowed.
func (c *Classifier) IsEmbeddable(rawURL string) bool {
	return c.decide(rawURL, false) == domain.DecisionAllowed
}

// IsAllowedDomain reports whether the URL's host equals or is a subdomain of
// an allow-listed domain.
func (c *Classifier) IsAllowedDomain(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}

	for _, d := range c.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}

func (c *Classifier) decide(rawURL string, enriched bool) domain.Decision {
	if enriched {
		return domain.DecisionAllowed
	}

	if c.IsAllowedDomain(rawURL) {
		return domain.DecisionAllowed
	}

	lower := strings.ToLower(rawURL)
	if idx := strings.IndexByte(lower, '?'); idx >= 0 {
		lower = lower[:idx]
	}

	for _, ext := range c.extensions {
		if strings.Contains(lower, ext) {
			return domain.DecisionAllowed
		}
	}

	return domain.DecisionBlocked
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return normalizeDomain(u.Hostname())
}
