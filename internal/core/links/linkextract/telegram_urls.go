package linkextract

import "strings"

const entityTextLink = "text_link"

// Entity is a formatting span of a chat message. Only the fields needed to
// recover hidden links are kept.
type Entity struct {
	Type string
	URL  string
}

// EntityURLs returns the targets of text_link entities in order. Scheme-less
// targets are made absolute; anything that does not look like a URL is dropped.
func EntityURLs(entities []Entity) []string {
	var urls []string

	for _, e := range entities {
		if e.Type != entityTextLink {
			continue
		}

		if u := normalizeURL(e.URL); u != "" {
			urls = append(urls, u)
		}
	}

	return urls
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.Contains(raw, ".") && !strings.Contains(raw, ":"):
		return "https://" + raw
	default:
		return ""
	}
}
