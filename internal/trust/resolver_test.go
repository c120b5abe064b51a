package trust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

var fallbackProvider = domain.TrustProvider{PubKey: "genesis", RelayURL: "wss://nip85.example"}

func TestResolver_UsesDeclaredRankProvider(t *testing.T) {
	viewer := nostrtest.NewSigner(t)
	relay := nostrtest.NewMemoryRelay(nostrtest.Sign(t, viewer, nostr.KindTrustedProviders, 100, "",
		nostr.Tag{"30382:followers", "someone", "wss://followers.example"},
		nostr.Tag{"30382:rank", "provider-key", "wss://rank.example"},
	))
	r := NewResolver(nostr.StaticStores{S: relay}, []string{"wss://a"}, fallbackProvider, quietLogger())

	got := r.Resolve(context.Background(), viewer.PublicKey())

	assert.Equal(t, domain.TrustProvider{PubKey: "provider-key", RelayURL: "wss://rank.example", Declared: true}, got)
}

func TestResolver_RejectsInsecureRelay(t *testing.T) {
	viewer := nostrtest.NewSigner(t)
	relay := nostrtest.NewMemoryRelay(nostrtest.Sign(t, viewer, nostr.KindTrustedProviders, 100, "",
		nostr.Tag{"30382:rank", "provider-key", "ws://rank.example"},
	))
	r := NewResolver(nostr.StaticStores{S: relay}, []string{"wss://a"}, fallbackProvider, quietLogger())

	assert.Equal(t, fallbackProvider, r.Resolve(context.Background(), viewer.PublicKey()))
}

func TestResolver_AnonymousViewerGetsDefault(t *testing.T) {
	relay := nostrtest.NewMemoryRelay()
	r := NewResolver(nostr.StaticStores{S: relay}, []string{"wss://a"}, fallbackProvider, quietLogger())

	assert.Equal(t, fallbackProvider, r.Resolve(context.Background(), ""))
	assert.Equal(t, 0, relay.QueryCount())
}

func TestResolver_CachesPerViewer(t *testing.T) {
	viewer := nostrtest.NewSigner(t)
	relay := nostrtest.NewMemoryRelay()
	r := NewResolver(nostr.StaticStores{S: relay}, []string{"wss://a", "wss://b"}, fallbackProvider, quietLogger())

	assert.Equal(t, fallbackProvider, r.Resolve(context.Background(), viewer.PublicKey()))
	assert.Equal(t, fallbackProvider, r.Resolve(context.Background(), viewer.PublicKey()))
	assert.Equal(t, 2, relay.QueryCount())
}
