package reconcile

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func guidFilter(guid string) nostr.Filter {
	return nostr.Filter{Kinds: nostr.ListItemKinds, Tags: map[string][]string{"z": {"songs"}, "t": {guid}}}
}

func TestGuard_ConcurrentAddsStoreOneRecord(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	// Slow publishes widen the window between check and write.
	relay.PublishHook = func(*nostr.Event) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}
	guard := NewGuard(relay, quietLogger())

	alice := nostrtest.NewSigner(t)
	bob := nostrtest.NewSigner(t)
	events := []*nostr.Event{
		nostrtest.Song(t, alice, "songs", "ep-1", "Night Drive", "Nova", 200, 100),
		nostrtest.Song(t, bob, "songs", "ep-1", "Night Drive", "Nova", 200, 101),
	}

	results := make([]AddResult, len(events))
	errs := make([]error, len(events))
	var wg sync.WaitGroup
	for i, ev := range events {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = guard.AddOnce(context.Background(), "songs", ev)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 1, relay.Count(guidFilter("ep-1")))
	assert.ElementsMatch(t, []Outcome{Added, AlreadyPresent}, []Outcome{results[0].Outcome, results[1].Outcome})
	assert.Equal(t, results[0].Entry.ID, results[1].Entry.ID)
}

func TestGuard_SecondProcessSeesFirstWrite(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	signer := nostrtest.NewSigner(t)

	first, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "songs",
		nostrtest.Song(t, signer, "songs", "ep-1", "Night Drive", "Nova", 200, 100))
	require.NoError(t, err)
	assert.Equal(t, Added, first.Outcome)

	second, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "songs",
		nostrtest.Song(t, signer, "songs", "ep-1", "Night Drive", "Nova", 200, 200))
	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, second.Outcome)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, 1, relay.Count(guidFilter("ep-1")))
}

func TestGuard_SameGUIDOnOtherListIsIndependent(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	signer := nostrtest.NewSigner(t)
	guard := NewGuard(relay, quietLogger())

	_, err := guard.AddOnce(context.Background(), "songs",
		nostrtest.Song(t, signer, "songs", "ep-1", "Night Drive", "Nova", 200, 100))
	require.NoError(t, err)

	res, err := guard.AddOnce(context.Background(), "chill",
		nostrtest.Song(t, signer, "chill", "ep-1", "Night Drive", "Nova", 200, 100))
	require.NoError(t, err)
	assert.Equal(t, Added, res.Outcome)
}

func TestGuard_QueryFailureDoesNotPublish(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	relay.QueryHook = func(nostr.Filter) error { return domainerrors.Transport("down", nil) }
	signer := nostrtest.NewSigner(t)

	_, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "songs",
		nostrtest.Song(t, signer, "songs", "ep-1", "Night Drive", "Nova", 200, 100))

	require.Error(t, err)
	assert.True(t, domainerrors.IsRetryable(err))
	assert.Equal(t, 0, relay.PublishCount())
}

func TestGuard_PublishRejectionSurfaces(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	relay.RejectPublish = func(*nostr.Event) string { return "blocked: spam" }
	signer := nostrtest.NewSigner(t)

	_, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "songs",
		nostrtest.Song(t, signer, "songs", "ep-1", "Night Drive", "Nova", 200, 100))

	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAuthorization))
	assert.Equal(t, "blocked: spam", err.Error())
}

func TestGuard_RejectsRecordsWithoutStableID(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	guard := NewGuard(relay, quietLogger())
	nameOnly := nostrtest.Sign(t, nostrtest.NewSigner(t), nostr.KindListItem, 100, "",
		nostr.Tag{"z", "musicians"},
		nostr.Tag{"name", "Nova"},
	)

	_, err := guard.AddOnce(context.Background(), "songs", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = guard.AddOnce(context.Background(), "musicians", nameOnly)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, 0, relay.PublishCount())
}

func TestGuard_RejectsRecordForAnotherList(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	ev := nostrtest.Song(t, nostrtest.NewSigner(t), "songs", "ep-1", "Night Drive", "Nova", 200, 100)

	_, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "chill", ev)

	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Equal(t, 0, relay.PublishCount())
}

func feedGUIDArtist(t *testing.T, signer nostr.Signer, feedGUID string, createdAt int64) *nostr.Event {
	t.Helper()
	return nostrtest.Sign(t, signer, nostr.KindListItem, createdAt, "",
		nostr.Tag{"z", "musicians"},
		nostr.Tag{"name", "Nova"},
		nostr.Tag{"feedGuid", feedGUID},
	)
}

func TestGuard_ArtistKeyedOnlyByFeedGUIDAddsOnce(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	signer := nostrtest.NewSigner(t)
	guard := NewGuard(relay, quietLogger())

	first, err := guard.AddOnce(context.Background(), "musicians", feedGUIDArtist(t, signer, "feed-a", 100))
	require.NoError(t, err)
	second, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "musicians", feedGUIDArtist(t, signer, "feed-a", 200))
	require.NoError(t, err)

	assert.Equal(t, Added, first.Outcome)
	assert.Equal(t, AlreadyPresent, second.Outcome)
	assert.Equal(t, first.Entry.ID, second.Entry.ID)
	assert.Equal(t, 1, relay.Count(nostr.Filter{Tags: map[string][]string{"z": {"musicians"}}}))
}

func TestGuard_ArtistMatchesExistingFeedGUID(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	signer := nostrtest.NewSigner(t)
	existing := nostrtest.Sign(t, signer, nostr.KindListItem, 100, "",
		nostr.Tag{"z", "musicians"},
		nostr.Tag{"t", "legacy-id"},
		nostr.Tag{"name", "Nova"},
		nostr.Tag{"feedGuid", "feed-a"},
	)
	relay.Add(existing)

	res, err := NewGuard(relay, quietLogger()).AddOnce(context.Background(), "musicians",
		nostrtest.Artist(t, signer, "musicians", "feed-a", "Nova", 200))

	require.NoError(t, err)
	assert.Equal(t, AlreadyPresent, res.Outcome)
	assert.Equal(t, existing.ID, res.Entry.ID)
	assert.Equal(t, 0, relay.PublishCount())
}
