package catalog

import (
	"strconv"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// NewSongEvent builds an unsigned songs-list item. Tags with empty values are
// omitted. The feed GUID is repeated as a g tag so a musician's songs can be
// queried by feed.
func NewSongEvent(listTag string, song domain.Song, description string) *nostr.Event {
	artist := song.Artist
	tags := compactTags(
		nostr.Tag{"z", listTag},
		nostr.Tag{"medium", "music"},
		nostr.Tag{"t", song.GUID},
		nostr.Tag{"title", song.Title},
		nostr.Tag{"artist", artist},
		nostr.Tag{"url", song.MediaURL},
		nostr.Tag{"duration", strconv.Itoa(song.DurationSeconds)},
		nostr.Tag{"feedId", song.FeedID},
		nostr.Tag{"feedGuid", song.FeedGUID},
		nostr.Tag{"g", song.FeedGUID},
		nostr.Tag{"artwork", song.Artwork},
		nostr.Tag{"blurhash", song.ArtworkBlurHash},
		nostr.Tag{"description", description},
		nostr.Tag{"alt", "Song: " + song.Title + " by " + artist},
	)
	return &nostr.Event{Kind: nostr.KindListItem, Tags: tags}
}

// NewArtistEvent builds an unsigned musicians-list item.
func NewArtistEvent(listTag string, artist domain.Artist, description string) *nostr.Event {
	tags := compactTags(
		nostr.Tag{"z", listTag},
		nostr.Tag{"medium", "music"},
		nostr.Tag{"t", artist.GUID},
		nostr.Tag{"name", artist.Name},
		nostr.Tag{"feedUrl", artist.FeedURL},
		nostr.Tag{"feedId", artist.FeedID},
		nostr.Tag{"feedGuid", artist.FeedGUID},
		nostr.Tag{"artwork", artist.Artwork},
		nostr.Tag{"blurhash", artist.ArtworkBlurHash},
		nostr.Tag{"description", description},
		nostr.Tag{"alt", "Musician: " + artist.Name},
	)
	return &nostr.Event{Kind: nostr.KindListItem, Tags: tags}
}

func compactTags(tags ...nostr.Tag) nostr.Tags {
	out := make(nostr.Tags, 0, len(tags))
	for _, t := range tags {
		if t.Value() != "" {
			out = append(out, t)
		}
	}
	return out
}
