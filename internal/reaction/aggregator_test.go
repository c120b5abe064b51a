package reaction

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

func newTestAggregator(store nostr.Store) *Aggregator {
	return NewAggregator(store, 0, 50, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAggregator_Aggregate(t *testing.T) {
	curator := nostrtest.NewSigner(t)
	fan := nostrtest.NewSigner(t)
	troll := nostrtest.NewSigner(t)
	viewer := nostrtest.NewSigner(t)

	song := nostrtest.Song(t, curator, "songs", "g1", "One", "Nova", 200, 100)
	other := nostrtest.Song(t, curator, "songs", "g2", "Two", "Nova", 200, 100)
	relay := nostrtest.NewMemoryRelay(
		song, other,
		nostrtest.Reaction(t, fan, song, "+", 110),
		nostrtest.Reaction(t, fan, song, "+", 120),
		nostrtest.Reaction(t, troll, song, "-", 130),
		nostrtest.Reaction(t, viewer, other, "-", 140),
	)
	trust := domain.TrustMap{fan.PublicKey(): 80, troll.PublicKey(): 5}

	tallies, err := newTestAggregator(relay).Aggregate(context.Background(), Request{
		IDs:    []string{song.ID, other.ID},
		Trust:  trust,
		Viewer: viewer.PublicKey(),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, tallies[song.ID].Upvotes)
	assert.Equal(t, 0, tallies[song.ID].Downvotes)
	assert.Equal(t, domain.VoteNone, tallies[song.ID].ViewerReaction)
	assert.Equal(t, 1, tallies[other.ID].Downvotes)
	assert.Equal(t, domain.VoteDown, tallies[other.ID].ViewerReaction)
}

func TestAggregator_SinceBoundsReactions(t *testing.T) {
	curator := nostrtest.NewSigner(t)
	fan := nostrtest.NewSigner(t)
	song := nostrtest.Song(t, curator, "songs", "g1", "One", "Nova", 200, 100)
	relay := nostrtest.NewMemoryRelay(song, nostrtest.Reaction(t, fan, song, "+", 110))

	tallies, err := newTestAggregator(relay).Aggregate(context.Background(), Request{
		IDs:   []string{song.ID},
		Trust: domain.TrustMap{fan.PublicKey(): 80},
		Since: 200,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, tallies[song.ID].Upvotes)
}

func TestAggregator_FetchErrorStillTalliesEveryID(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	relay.QueryHook = func(nostr.Filter) error { return domainerrors.Transport("down", nil) }

	tallies, err := newTestAggregator(relay).Aggregate(context.Background(), Request{IDs: []string{"a", "b"}})

	require.Error(t, err)
	assert.True(t, domainerrors.IsRetryable(err))
	require.Len(t, tallies, 2)
	assert.Equal(t, 0, tallies["a"].Score())
}

func TestAggregator_NoIDsNoQuery(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()

	tallies, err := newTestAggregator(relay).Aggregate(context.Background(), Request{})

	require.NoError(t, err)
	assert.Empty(t, tallies)
	assert.Equal(t, 0, relay.QueryCount())
}

func TestAggregator_ByAuthor(t *testing.T) {
	curator := nostrtest.NewSigner(t)
	janitor := nostrtest.NewSigner(t)
	song := nostrtest.Song(t, curator, "songs", "g1", "One", "Nova", 200, 100)
	relay := nostrtest.NewMemoryRelay(
		song,
		nostrtest.Reaction(t, janitor, song, "+", 110),
		nostrtest.Reaction(t, janitor, song, "-", 120),
	)

	got, err := newTestAggregator(relay).ByAuthor(context.Background(), janitor.PublicKey(), []string{song.ID, "missing"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.VoteDown, got[song.ID].Vote())
}
