package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

func TestNewSongEvent_ParsesBack(t *testing.T) {
	song := domain.Song{
		GUID:            "ep-1",
		Title:           "Night Drive",
		Artist:          "Nova",
		MediaURL:        "https://media.example/ep-1.mp3",
		Artwork:         "https://img.example/ep-1.jpg",
		ArtworkBlurHash: "LEHV6nWB2yk8pyo0adR*.7kCMdnj",
		DurationSeconds: 215,
		FeedID:          "42",
		FeedGUID:        "feed-guid",
	}
	ev := NewSongEvent("songs", song, "")
	require.NoError(t, nostrtest.NewSigner(t).Sign(ev))

	entry, err := ParseEntry(ev)

	require.NoError(t, err)
	require.NotNil(t, entry.Song)
	assert.Equal(t, song, *entry.Song)
	assert.Equal(t, "music", entry.Medium)
	assert.Equal(t, "feed-guid", ev.Tags.Value("g"))
	assert.Equal(t, "Song: Night Drive by Nova", ev.Tags.Value("alt"))
	assert.Nil(t, ev.Tags.Find("description"), "empty tags are omitted")
}

func TestNewArtistEvent_ParsesBack(t *testing.T) {
	artist := domain.Artist{
		GUID:     "feed-guid",
		Name:     "Nova",
		FeedURL:  "https://feeds.example/nova.xml",
		FeedID:   "42",
		FeedGUID: "feed-guid",
	}
	ev := NewArtistEvent("musicians", artist, "Synthwave from Lisbon")
	require.NoError(t, nostrtest.NewSigner(t).Sign(ev))

	entry, err := ParseEntry(ev)

	require.NoError(t, err)
	require.NotNil(t, entry.Artist)
	assert.Equal(t, artist, *entry.Artist)
	assert.Equal(t, "Synthwave from Lisbon", entry.Description)
	assert.Nil(t, ev.Tags.Find("artwork"))
}
