package dedup

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
)

func cand(url, original string) domain.Candidate {
	return domain.Candidate{URL: url, Original: original, Decision: domain.DecisionAllowed}
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.Candidate
		want  []string
	}{
		{
			name:  "empty",
			input: nil,
			want:  nil,
		},
		{
			name:  "no duplicates keeps order",
			input: []domain.Candidate{cand("https://a/1.jpg", ""), cand("https://a/2.jpg", ""), cand("https://a/3.jpg", "")},
			want:  []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg"},
		},
		{
			name: "first occurrence wins",
			input: []domain.Candidate{
				cand("https://a/2.jpg", "first"),
				cand("https://a/1.jpg", ""),
				cand("https://a/2.jpg", "second"),
				cand("https://a/1.jpg", ""),
			},
			want: []string{"https://a/2.jpg", "https://a/1.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.input)

			var urls []string
			for _, c := range got {
				urls = append(urls, c.URL)
			}

			assert.Equal(t, tt.want, urls)
		})
	}
}

func TestDeduplicateKeepsFirstCandidateFields(t *testing.T) {
	got := Deduplicate([]domain.Candidate{
		{URL: "https://i.redd.it/x.jpg", Original: "https://redd.it/abc", Enriched: true, Decision: domain.DecisionAllowed},
		{URL: "https://i.redd.it/x.jpg", Original: "https://i.redd.it/x.jpg?s=1", Decision: domain.DecisionAllowed},
	})

	assert.Len(t, got, 1)
	assert.True(t, got[0].Enriched)
	assert.Equal(t, "https://redd.it/abc", got[0].Original)
}

func TestDeduplicateFull(t *testing.T) {
	logger := zerolog.Nop()

	res := DeduplicateFull([]domain.Candidate{
		cand("u1", "a"), cand("u1", "b"), cand("u2", "c"), cand("u1", "d"),
	}, &logger)

	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, 2, res.DroppedCount)
}

func TestDeduplicateIdempotent(t *testing.T) {
	input := []domain.Candidate{cand("x", ""), cand("y", ""), cand("x", ""), cand("z", ""), cand("y", "")}

	once := Deduplicate(input)
	assert.Equal(t, once, Deduplicate(once))
}
