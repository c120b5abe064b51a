package catalog

import (
	"slices"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

// Score joins entries with their tallies. An entry without a tally scores zero.
func Score(entries []domain.CatalogEntry, tallies map[string]domain.Tally) []domain.ScoredEntry {
	out := make([]domain.ScoredEntry, 0, len(entries))
	for _, e := range entries {
		t, ok := tallies[e.ID]
		if !ok {
			t = domain.EmptyTally()
		}
		out = append(out, domain.ScoredEntry{
			CatalogEntry:   e,
			Score:          t.Score(),
			Upvotes:        t.Upvotes,
			Downvotes:      t.Downvotes,
			ViewerReaction: t.ViewerReaction,
			Upvoters:       t.Upvoters,
			Downvoters:     t.Downvoters,
		})
	}
	return out
}

// Rank drops entries with a negative score and orders the rest by score
// descending, newer entries first on ties. The input is not modified.
func Rank(scored []domain.ScoredEntry) []domain.ScoredEntry {
	out := make([]domain.ScoredEntry, 0, len(scored))
	for _, e := range scored {
		if e.Score >= 0 {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ScoredEntry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}
