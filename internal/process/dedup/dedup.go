// Package dedup removes repeated media URLs from a message's candidate list.
package dedup

import (
	"github.com/rs/zerolog"

	"github.com/lueurxax/media-relay-bot/internal/core/domain"
)

const (
	logKeySkippedURL  = "skipped_url"
	logKeyDuplicateOf = "duplicate_of"
)

// Result contains the deduplicated candidates with metadata.
type Result struct {
	// Candidates keeps the first occurrence of every canonical URL, in input order.
	Candidates []domain.Candidate

	// DroppedCount is the number of candidates removed as duplicates.
	DroppedCount int
}

// Deduplicate keeps the first occurrence of every canonical URL and preserves order.
func Deduplicate(candidates []domain.Candidate) []domain.Candidate {
	return DeduplicateFull(candidates, nil).Candidates
}

// DeduplicateFull performs deduplication and reports what was dropped.
func DeduplicateFull(candidates []domain.Candidate, logger *zerolog.Logger) Result {
	if len(candidates) == 0 {
		return Result{Candidates: candidates}
	}

	seen := make(map[string]string, len(candidates))
	out := make([]domain.Candidate, 0, len(candidates))
	dropped := 0

	for _, c := range candidates {
		if first, dup := seen[c.URL]; dup {
			dropped++

			if logger != nil {
				logger.Debug().
					Str(logKeySkippedURL, c.Original).
					Str(logKeyDuplicateOf, first).
					Msg("Skipping duplicate URL")
			}

			continue
		}

		seen[c.URL] = c.Original
		out = append(out, c)
	}

	return Result{Candidates: out, DroppedCount: dropped}
}
