package nostrtest

import (
	"strconv"
	"testing"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// NewSigner returns a signer with a fresh random key.
func NewSigner(tb testing.TB) *nostr.KeySigner {
	tb.Helper()
	s, err := nostr.GenerateKeySigner()
	if err != nil {
		tb.Fatalf("generate signer: %v", err)
	}
	return s
}

// Sign builds and signs an event.
func Sign(tb testing.TB, signer nostr.Signer, kind int, createdAt int64, content string, tags ...nostr.Tag) *nostr.Event {
	tb.Helper()
	ev := &nostr.Event{
		Kind:      kind,
		CreatedAt: createdAt,
		Content:   content,
		Tags:      nostr.Tags(tags),
	}
	if err := signer.Sign(ev); err != nil {
		tb.Fatalf("sign event: %v", err)
	}
	return ev
}

// Reaction builds a signed reaction to target.
func Reaction(tb testing.TB, signer nostr.Signer, target *nostr.Event, content string, createdAt int64) *nostr.Event {
	tb.Helper()
	return Sign(tb, signer, nostr.KindReaction, createdAt, content,
		nostr.Tag{"e", target.ID},
		nostr.Tag{"p", target.PubKey},
	)
}

// Song builds a signed song list item.
func Song(tb testing.TB, signer nostr.Signer, listTag, guid, title, artist string, duration int, createdAt int64) *nostr.Event {
	tb.Helper()
	return Sign(tb, signer, nostr.KindListItem, createdAt, "",
		nostr.Tag{"z", listTag},
		nostr.Tag{"t", guid},
		nostr.Tag{"title", title},
		nostr.Tag{"artist", artist},
		nostr.Tag{"url", "https://media.example/" + guid + ".mp3"},
		nostr.Tag{"duration", strconv.Itoa(duration)},
	)
}

// Artist builds a signed musician list item.
func Artist(tb testing.TB, signer nostr.Signer, listTag, feedGUID, name string, createdAt int64) *nostr.Event {
	tb.Helper()
	return Sign(tb, signer, nostr.KindListItem, createdAt, "",
		nostr.Tag{"z", listTag},
		nostr.Tag{"t", feedGUID},
		nostr.Tag{"name", name},
		nostr.Tag{"feedUrl", "https://feeds.example/" + feedGUID + ".xml"},
		nostr.Tag{"feedGuid", feedGUID},
	)
}

// Assertion builds a signed trusted assertion about subject.
func Assertion(tb testing.TB, provider nostr.Signer, subject string, rank string, createdAt int64) *nostr.Event {
	tb.Helper()
	return Sign(tb, provider, nostr.KindTrustedAssertionPubkey, createdAt, "",
		nostr.Tag{"d", subject},
		nostr.Tag{"rank", rank},
	)
}
