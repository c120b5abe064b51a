package nostr_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

func seedSongs(t *testing.T, relay *nostrtest.MemoryRelay, n int) {
	t.Helper()
	signer := nostrtest.NewSigner(t)
	for i := range n {
		relay.Add(nostrtest.Song(t, signer, "songs", "guid-"+strconv.Itoa(i), "Song", "Nova", 200, int64(1000+i)))
	}
}

func drain(t *testing.T, p *nostr.Pager) []*nostr.Event {
	t.Helper()
	var all []*nostr.Event
	for !p.Done() {
		page, err := p.Next(context.Background())
		require.NoError(t, err)
		all = append(all, page...)
	}
	return all
}

func TestPager_WalksBackwardInPages(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	seedSongs(t, relay, 25)

	p := nostr.NewPager(relay, nostr.Filter{Kinds: nostr.ListItemKinds}, 10, 0)
	all := drain(t, p)

	assert.Len(t, all, 25)
	assert.Equal(t, 3, p.Batches())
	assert.Equal(t, 3, p.Requests())
	assert.Equal(t, 25, p.Total())
}

func TestPager_ExactMultipleNeedsTrailingEmptyPage(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	seedSongs(t, relay, 20)

	p := nostr.NewPager(relay, nostr.Filter{Kinds: nostr.ListItemKinds}, 10, 0)
	all := drain(t, p)

	assert.Len(t, all, 20)
	assert.Equal(t, 2, p.Batches())
	assert.Equal(t, 3, p.Requests())
}

func TestPager_StopsAtCeiling(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	seedSongs(t, relay, 30)

	p := nostr.NewPager(relay, nostr.Filter{Kinds: nostr.ListItemKinds}, 10, 15)
	all := drain(t, p)

	assert.Len(t, all, 15)
	assert.Equal(t, 2, p.Batches())
}
