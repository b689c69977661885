// Package htmlutils builds and sizes Telegram HTML messages.
//
// The package handles:
//   - escaping and the few tags the relay emits (b, i, a)
//   - UTF-16 length calculation (Telegram's native encoding)
//   - splitting long messages at line boundaries
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// MaxMessageLength is Telegram's limit for one message, in UTF-16 code units
// of visible text.
const MaxMessageLength = 4096

var tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)

// dangerousProtocols lists URL protocols that are never emitted as links
var dangerousProtocols = []string{
	"javascript:",
	"vbscript:",
	"data:",
}

// Escape escapes text for a Telegram HTML message.
func Escape(s string) string {
	return html.EscapeString(s)
}

func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

func Italic(s string) string {
	return "<i>" + Escape(s) + "</i>"
}

// Link renders an anchor. Hrefs with a dangerous protocol degrade to the plain label.
func Link(href, label string) string {
	lower := strings.ToLower(strings.TrimSpace(href))

	for _, proto := range dangerousProtocols {
		if strings.HasPrefix(lower, proto) {
			return Escape(label)
		}
	}

	return `<a href="` + Escape(href) + `">` + Escape(label) + `</a>`
}

// utf16Len returns the number of UTF-16 code units needed to encode the string.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice returns the longest prefix of s that fits in maxUnits UTF-16 code units.
func utf16Slice(s string, maxUnits int) string {
	units := 0

	for i, r := range s {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return s[:i]
		}

		units += runeUnits
	}

	return s
}

// TextLen returns the visible length of an HTML message as Telegram counts it:
// tags removed, entities decoded, in UTF-16 code units.
func TextLen(s string) int {
	return utf16Len(html.UnescapeString(tagRegex.ReplaceAllString(s, "")))
}

// SplitLines packs the lines of text into parts whose visible length stays
// within limit. Lines are never broken inside markup: an oversized line is cut
// only when it is plain text, and otherwise sent as a part of its own.
func SplitLines(text string, limit int) []string {
	if limit <= 0 || TextLen(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		curLen  int
	)

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := TextLen(line)

		if lineLen > limit {
			flush()
			parts = append(parts, splitLongLine(line, limit)...)

			continue
		}

		sep := 0
		if current.Len() > 0 {
			sep = 1
		}

		if curLen+sep+lineLen > limit {
			flush()

			sep = 0
		}

		if sep > 0 {
			current.WriteByte('\n')
		}

		current.WriteString(line)
		curLen += sep + lineLen
	}

	flush()

	return parts
}

func splitLongLine(line string, limit int) []string {
	if strings.ContainsAny(line, "<&") {
		return []string{line}
	}

	var parts []string

	for line != "" {
		chunk := utf16Slice(line, limit)
		if chunk == "" {
			_, size := utf8.DecodeRuneInString(line)
			chunk = line[:size]
		}

		parts = append(parts, chunk)
		line = line[len(chunk):]
	}

	return parts
}
