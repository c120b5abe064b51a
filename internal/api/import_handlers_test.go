package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/reconcile"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func TestImportSong_DefaultsToSongsList(t *testing.T) {
	ts := setupTestServer(t)

	first := ts.api.Post("/api/v1/import/song", map[string]any{"feed_id": "42", "episode_guid": "b-1"})

	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	added := decode[service.ImportResult](t, first.Body.Bytes())
	assert.Equal(t, reconcile.Added, added.Data.Outcome)
	assert.Equal(t, testSongsList, added.Data.Entry.ListTag)
	require.NotNil(t, added.Data.Entry.Song)
	assert.Equal(t, "Low Tide", added.Data.Entry.Song.Title)
	assert.Equal(t, "Orbit", added.Data.Entry.Song.Artist)

	second := ts.api.Post("/api/v1/import/song", map[string]any{"feed_id": "42", "episode_guid": "b-1"})

	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	again := decode[service.ImportResult](t, second.Body.Bytes())
	assert.Equal(t, reconcile.AlreadyPresent, again.Data.Outcome)
	assert.Equal(t, added.Data.Entry.ID, again.Data.Entry.ID)
	assert.Equal(t, 1, ts.relay.Count(nostr.Filter{Tags: map[string][]string{"z": {testSongsList}}}))
}

func TestImportSong_UnknownEpisode(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/import/song", map[string]any{"feed_id": "42", "episode_guid": "missing"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Zero(t, ts.relay.PublishCount())
}

func TestImportSong_FeedWithoutEpisodes(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/import/song", map[string]any{"feed_id": "41", "episode_guid": "a-1"})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestImportArtist_ByFeedGUID(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/import/artist", map[string]any{"feed_guid": "feed-b"})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[service.ImportResult](t, resp.Body.Bytes())
	assert.Equal(t, reconcile.Added, env.Data.Outcome)
	require.NotNil(t, env.Data.Entry.Artist)
	assert.Equal(t, "feed-b", env.Data.Entry.Artist.FeedGUID)
}
