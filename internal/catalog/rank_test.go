package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

func entry(id string, createdAt int64) domain.CatalogEntry {
	return domain.CatalogEntry{ID: id, CreatedAt: createdAt, Kind: domain.EntryKindSong, Song: &domain.Song{GUID: id}}
}

func TestScore_MissingTallyIsZero(t *testing.T) {
	scored := Score([]domain.CatalogEntry{entry("a", 1), entry("b", 2)}, map[string]domain.Tally{
		"a": {Upvotes: 3, Downvotes: 1, ViewerReaction: domain.VoteUp, Upvoters: []string{"alice", "bob", "carol"}},
	})

	require.Len(t, scored, 2)
	assert.Equal(t, 2, scored[0].Score)
	assert.Equal(t, domain.VoteUp, scored[0].ViewerReaction)
	assert.Equal(t, 0, scored[1].Score)
	assert.Equal(t, domain.VoteNone, scored[1].ViewerReaction)
}

func TestRank_FiltersNegativeAndSorts(t *testing.T) {
	scored := Score(
		[]domain.CatalogEntry{entry("old-2", 10), entry("neg", 30), entry("new-2", 20), entry("zero", 40), entry("top", 5)},
		map[string]domain.Tally{
			"old-2": {Upvotes: 2},
			"neg":   {Downvotes: 1},
			"new-2": {Upvotes: 2},
			"top":   {Upvotes: 5},
		},
	)

	ranked := Rank(scored)

	ids := make([]string, 0, len(ranked))
	for _, e := range ranked {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"top", "new-2", "old-2", "zero"}, ids)
	assert.Len(t, scored, 5, "input must not be modified")
}

func TestRank_ZeroScoreIsKept(t *testing.T) {
	ranked := Rank(Score([]domain.CatalogEntry{entry("a", 1)}, map[string]domain.Tally{"a": {Upvotes: 1, Downvotes: 1}}))
	require.Len(t, ranked, 1)
	assert.Equal(t, 0, ranked[0].Score)
}
