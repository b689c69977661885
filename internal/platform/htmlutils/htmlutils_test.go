package htmlutils

import (
	"reflect"
	"strings"
	"testing"
)

func TestFormatting(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "escape",
			got:      Escape(`a<b & "c"`),
			expected: "a&lt;b &amp; &#34;c&#34;",
		},
		{
			name:     "bold",
			got:      Bold("Tom & Jerry"),
			expected: "<b>Tom &amp; Jerry</b>",
		},
		{
			name:     "italic",
			got:      Italic("<memes>"),
			expected: "<i>&lt;memes&gt;</i>",
		},
		{
			name:     "link escapes href and label",
			got:      Link("https://example.com/?a=1&b=2", "r/pics"),
			expected: `<a href="https://example.com/?a=1&amp;b=2">r/pics</a>`,
		},
		{
			name:     "dangerous href degrades to label",
			got:      Link(" JavaScript:alert(1)", "x<y"),
			expected: "x&lt;y",
		},
		{
			name:     "data href degrades to label",
			got:      Link("data:text/html,hi", "label"),
			expected: "label",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

func TestTextLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain", input: "hello", want: 5},
		{name: "tags are free", input: `<a href="https://example.com/long/path">ab</a>`, want: 2},
		{name: "entities count once", input: "&amp;&lt;", want: 2},
		{name: "emoji is a surrogate pair", input: "<b>Hi</b> &amp; 🔴", want: 7},
		{name: "empty", input: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TextLen(tt.input); got != tt.want {
				t.Errorf("TextLen(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	longAnchor := `<a href="https://example.com/` + strings.Repeat("x", 100) + `">a</a>`

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "fits",
			text:  "one\ntwo",
			limit: 100,
			want:  []string{"one\ntwo"},
		},
		{
			name:  "packs whole lines",
			text:  "aaaa\nbbbb\ncccc",
			limit: 9,
			want:  []string{"aaaa\nbbbb", "cccc"},
		},
		{
			name:  "cuts long plain line",
			text:  "x\nabcdefghij",
			limit: 4,
			want:  []string{"x", "abcd", "efgh", "ij"},
		},
		{
			name:  "keeps long markup line whole",
			text:  "x\n<b>abcdefghij</b>",
			limit: 4,
			want:  []string{"x", "<b>abcdefghij</b>"},
		},
		{
			name:  "never splits a surrogate pair",
			text:  "🔴🔴🔴",
			limit: 3,
			want:  []string{"🔴", "🔴", "🔴"},
		},
		{
			name:  "markup does not count",
			text:  longAnchor + "\n" + longAnchor,
			limit: 5,
			want:  []string{longAnchor + "\n" + longAnchor},
		},
		{
			name:  "no limit",
			text:  "abc",
			limit: 0,
			want:  []string{"abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.text, tt.limit)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines() = %q, want %q", got, tt.want)
			}
		})
	}
}
