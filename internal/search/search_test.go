package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
)

func songEntry(id, title, artist string, score int) *domain.ScoredEntry {
	return &domain.ScoredEntry{
		CatalogEntry: domain.CatalogEntry{
			ID: id, ListTag: "songs", Kind: domain.EntryKindSong, CreatedAt: 100,
			Song: &domain.Song{GUID: "guid-" + id, Title: title, Artist: artist},
		},
		Score: score,
	}
}

func artistEntry(id, name string, score int) *domain.ScoredEntry {
	return &domain.ScoredEntry{
		CatalogEntry: domain.CatalogEntry{
			ID: id, ListTag: "musicians", Kind: domain.EntryKindArtist, CreatedAt: 100,
			Artist: &domain.Artist{GUID: "feed-" + id, Name: name, FeedID: "42"},
		},
		Score: score,
	}
}

func seededIndex(t *testing.T, opts Options) *SearchIndex {
	t.Helper()
	index, err := NewSearchIndex(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	require.NoError(t, index.Replace([]*SearchDocument{
		NewDocument(songEntry("s1", "First Light", "Nova", 4)),
		NewDocument(songEntry("s2", "Midnight Drive", "Static Bloom", 1)),
		NewDocument(songEntry("s3", "Northern Lights", "Aurora Kid", 2)),
		NewDocument(artistEntry("a1", "Nova", 3)),
	}))
	return index
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(songEntry("s1", "First Light", "Nova", 4))
	assert.Equal(t, DocTypeSong, doc.Type)
	assert.Equal(t, "First Light", doc.Name)
	assert.Equal(t, "Nova", doc.Artist)
	assert.Equal(t, "guid-s1", doc.StableID)

	art := NewDocument(artistEntry("a1", "Nova", 3))
	assert.Equal(t, DocTypeArtist, art.Type)
	assert.Equal(t, "42", art.FeedID)
	assert.NotContains(t, art.ToMap(), "artist")
}

func TestSearch_MatchesTitleAndArtist(t *testing.T) {
	index := seededIndex(t, Options{})

	res, err := index.Search(context.Background(), SearchParams{Query: "nova"})
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	assert.ElementsMatch(t, []string{"s1", "a1"}, ids)
}

func TestSearch_TypeFilter(t *testing.T) {
	index := seededIndex(t, Options{})

	res, err := index.Search(context.Background(), SearchParams{Query: "nova", Types: []DocType{DocTypeArtist}})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "a1", res.Hits[0].ID)
	assert.Equal(t, DocTypeArtist, res.Hits[0].Type)
	assert.Equal(t, 3, res.Hits[0].CatalogScore)
}

func TestSearch_TitleWord(t *testing.T) {
	index := seededIndex(t, Options{})

	res, err := index.Search(context.Background(), SearchParams{Query: "midnight"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "s2", res.Hits[0].ID)
	assert.Equal(t, "Static Bloom", res.Hits[0].Artist)
}

func TestSearch_EmptyQueryWithListFilter(t *testing.T) {
	index := seededIndex(t, Options{})

	res, err := index.Search(context.Background(), SearchParams{ListTag: "songs", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)
}

func TestReplace_DropsOldDocuments(t *testing.T) {
	index := seededIndex(t, Options{DataPath: t.TempDir()})

	require.NoError(t, index.Replace([]*SearchDocument{
		NewDocument(songEntry("s9", "Only Song", "Solo", 0)),
	}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	res, err := index.Search(context.Background(), SearchParams{Query: "nova"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestNewSearchIndex_ReopensOnDisk(t *testing.T) {
	dir := t.TempDir()

	index, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.Replace([]*SearchDocument{NewDocument(artistEntry("a1", "Nova", 3))}))
	require.NoError(t, index.Close())

	reopened, err := NewSearchIndex(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
