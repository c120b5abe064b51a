package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/search"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func TestSearch_FindsMaterializedSongs(t *testing.T) {
	ts := setupTestServer(t)
	s1 := ts.song(t, "g1", "Night Drive", ago(2*time.Hour))
	ts.song(t, "g2", "Low Tide", ago(time.Hour))

	resp := ts.api.Get("/api/v1/search?q=night")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[search.SearchResult](t, resp.Body.Bytes())
	require.NotEmpty(t, env.Data.Hits)
	assert.Equal(t, s1.ID, env.Data.Hits[0].ID)
	assert.Equal(t, search.DocTypeSong, env.Data.Hits[0].Type)
}

func TestSearch_RejectsUnknownType(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/search?q=night&type=podcast")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestDiscover_SplitsPresentAndImportable(t *testing.T) {
	ts := setupTestServer(t)
	existing := nostrtest.Artist(t, ts.curator, testMusiciansList, "feed-a", "Nova", ago(time.Hour))
	ts.relay.Add(existing)

	resp := ts.api.Get("/api/v1/discover?q=nova")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[DiscoverResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Present, 1)
	assert.Equal(t, existing.ID, env.Data.Present[0].Entry.ID)
	assert.Equal(t, int64(41), env.Data.Present[0].Feed.ID)
	require.Len(t, env.Data.Importable, 1)
	assert.Equal(t, "feed-b", env.Data.Importable[0].PodcastGUID)
}

func TestImportArtist_AddsOnce(t *testing.T) {
	ts := setupTestServer(t)

	first := ts.api.Post("/api/v1/import/artist", map[string]any{"feed_id": "42"})

	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	added := decode[service.ImportResult](t, first.Body.Bytes())
	assert.Equal(t, reconcile.Added, added.Data.Outcome)
	assert.Equal(t, testMusiciansList, added.Data.Entry.ListTag)

	second := ts.api.Post("/api/v1/import/artist", map[string]any{"feed_id": "42"})

	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	again := decode[service.ImportResult](t, second.Body.Bytes())
	assert.Equal(t, reconcile.AlreadyPresent, again.Data.Outcome)
	assert.Equal(t, 1, ts.relay.Count(nostr.Filter{Kinds: nostr.ListItemKinds, Authors: []string{ts.signer.PublicKey()}}))
}

func TestImportArtist_UnknownFeed(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/import/artist", map[string]any{"feed_id": "999"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, ts.relay.PublishCount())
}

func TestImportArtist_RejectsNonNumericFeedID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/import/artist", map[string]any{"feed_id": "abc"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
