// Package repost renders the allowed media of a message into Telegram HTML
// messages that replace the original.
package repost

import (
	"fmt"
	"strings"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
	"github.com/lueurxax/media-relay-bot/internal/platform/htmlutils"
)

const (
	// DefaultMaxItemsPerMessage bounds the numbered items in one outgoing message.
	DefaultMaxItemsPerMessage = 5

	dividerText     = "━━━━━━━━━━━━━━━━━━━━━━"
	groupPrefix     = "r/"
	authorPrefix    = "u/"
	headerSeparator = " · "
)

// Input is everything the composer needs to render one message.
type Input struct {
	Title      string
	Group      string
	Author     string
	URLs       []string
	HasGallery bool
	HasVideo   bool

	// Labels maps a URL to the text of its link. URLs without a label are
	// rendered as bare links.
	Labels map[string]string
}

// Composer turns an allowed URL set into ordered output batches.
type Composer struct {
	maxItems int
}

func NewComposer(maxItems int) *Composer {
	if maxItems <= 0 {
		maxItems = DefaultMaxItemsPerMessage
	}

	return &Composer{maxItems: maxItems}
}

// Compose returns the content batches followed by a divider batch. It returns
// nil when there is nothing to post.
func (c *Composer) Compose(in Input) []domain.OutputBatch {
	if len(in.URLs) == 0 {
		return nil
	}

	var batches []domain.OutputBatch

	switch {
	case in.HasGallery && len(in.URLs) > 1:
		batches = c.numbered(in, domain.RenderGallery)
	case in.HasVideo:
		batches = []domain.OutputBatch{{
			Mode: domain.RenderVideo,
			URLs: in.URLs,
			Text: withHeader(in, lines(in, false, 0)),
		}}
	case len(in.URLs) > 1:
		batches = c.numbered(in, domain.RenderMultiImage)
	default:
		batches = []domain.OutputBatch{{
			Mode: domain.RenderSingle,
			URLs: in.URLs,
			Text: withHeader(in, renderLink(in.URLs[0], in.Labels)),
		}}
	}

	return append(batches, domain.OutputBatch{Mode: domain.RenderDivider, Text: dividerText})
}

// numbered splits the URLs into chunks of maxItems; numbering continues across chunks.
func (c *Composer) numbered(in Input, mode domain.RenderMode) []domain.OutputBatch {
	batches := make([]domain.OutputBatch, 0, (len(in.URLs)+c.maxItems-1)/c.maxItems)

	for start := 0; start < len(in.URLs); start += c.maxItems {
		end := min(start+c.maxItems, len(in.URLs))
		chunk := Input{URLs: in.URLs[start:end], Labels: in.Labels}

		text := lines(chunk, true, start)
		if start == 0 {
			text = withHeader(in, text)
		}

		batches = append(batches, domain.OutputBatch{Mode: mode, URLs: chunk.URLs, Text: text})
	}

	return batches
}

func lines(in Input, numbered bool, offset int) string {
	var sb strings.Builder

	for i, u := range in.URLs {
		if i > 0 {
			sb.WriteByte('\n')
		}

		if numbered {
			fmt.Fprintf(&sb, "%d. ", offset+i+1)
		}

		sb.WriteString(renderLink(u, in.Labels))
	}

	return sb.String()
}

func renderLink(u string, labels map[string]string) string {
	if label, ok := labels[u]; ok && label != "" {
		return htmlutils.Link(u, label)
	}

	return htmlutils.Escape(u)
}

func withHeader(in Input, body string) string {
	header := Header(in.Title, in.Group, in.Author)
	if header == "" {
		return body
	}

	return header + "\n" + body
}

// Header renders the title line and the "r/group · u/author" line, skipping
// whatever is unknown.
func Header(title, group, author string) string {
	var parts []string

	if t := strings.TrimSpace(title); t != "" {
		parts = append(parts, htmlutils.Bold(t))
	}

	var meta []string

	if g := NormalizeGroup(group); g != "" {
		meta = append(meta, htmlutils.Escape(groupPrefix+g))
	}

	if a := strings.TrimPrefix(strings.TrimSpace(author), authorPrefix); a != "" {
		meta = append(meta, htmlutils.Escape(authorPrefix+a))
	}

	if len(meta) > 0 {
		parts = append(parts, strings.Join(meta, headerSeparator))
	}

	return strings.Join(parts, "\n")
}

// NormalizeGroup strips the "r/" or "/r/" prefix from a subreddit mention.
func NormalizeGroup(group string) string {
	g := strings.TrimSpace(group)
	g = strings.TrimPrefix(g, "/")

	return strings.TrimPrefix(g, groupPrefix)
}
