package reddit

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

const (
	keyFallbackURL   = "fallback_url"
	keyMediaMetadata = "media_metadata"
	keyGalleryData   = "gallery_data"
	statusValid      = "valid"
)

// MediaFilter accepts direct links that can be embedded as-is.
type MediaFilter interface {
	IsEmbeddable(url string) bool
}

// media is what discoverMedia found on a post.
type media struct {
	urls       []string
	hasGallery bool
	hasVideo   bool
}

// discoverMedia picks the post's media in priority order: hosted video,
// gallery, then the post's own link when filter accepts it.
func discoverMedia(post Object, filter MediaFilter) media {
	if v := videoURL(post); v != "" {
		return media{urls: []string{v}, hasVideo: true}
	}

	if items := galleryURLs(post); len(items) > 0 {
		return media{urls: items, hasGallery: true}
	}

	for _, key := range []string{"url_overridden_by_dest", "url"} {
		link := html.UnescapeString(stringAt(post, key))
		if link != "" && filter != nil && filter.IsEmbeddable(link) {
			return media{urls: []string{link}}
		}
	}

	return media{}
}

func videoURL(post Object) string {
	for _, container := range []string{"media", "secure_media"} {
		if v := stringAt(post, container, "reddit_video", keyFallbackURL); v != "" {
			return html.UnescapeString(v)
		}
	}

	if v := stringAt(post, "preview", "reddit_video_preview", keyFallbackURL); v != "" {
		return html.UnescapeString(v)
	}

	return html.UnescapeString(findString(post, keyFallbackURL))
}

func galleryURLs(post Object) []string {
	holder := post
	if objectAt(holder, keyMediaMetadata) == nil {
		holder = FindFirst(post, func(o Object) bool {
			_, ok := o[keyMediaMetadata].(Object)

			return ok
		})
		if holder == nil {
			return nil
		}
	}

	meta := objectAt(holder, keyMediaMetadata)

	var out []string

	for _, id := range galleryOrder(holder, meta) {
		item, ok := meta[id].(Object)
		if !ok {
			continue
		}

		if status, present := item["status"].(string); present && status != statusValid {
			continue
		}

		if u := bestSource(item); u != "" {
			out = append(out, html.UnescapeString(u))
		}
	}

	return out
}

// galleryOrder lists metadata ids in the order gallery_data.items gives them.
// Ids missing from gallery_data follow in sorted order.
func galleryOrder(holder, meta Object) []string {
	ids := make([]string, 0, len(meta))
	seen := make(map[string]struct{}, len(meta))

	items, _ := path(holder, keyGalleryData, "items").([]any)
	for _, it := range items {
		entry, ok := it.(Object)
		if !ok {
			continue
		}

		id, _ := entry["media_id"].(string)
		if _, known := meta[id]; !known {
			continue
		}

		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	rest := make([]string, 0, len(meta)-len(ids))

	for id := range meta {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}

	sort.Strings(rest)

	return append(ids, rest...)
}

// bestSource prefers animated sources, then the full-size still, then the
// widest preview.
func bestSource(item Object) string {
	for _, key := range []string{"gif", "mp4", "u"} {
		if u := stringAt(item, "s", key); u != "" {
			return u
		}
	}

	previews, _ := item["p"].([]any)

	var (
		best  string
		width float64
	)

	for _, p := range previews {
		po, ok := p.(Object)
		if !ok {
			continue
		}

		u, _ := po["u"].(string)
		x, _ := po["x"].(float64)

		if u != "" && (best == "" || x > width) {
			best, width = u, x
		}
	}

	return strings.TrimSpace(best)
}
