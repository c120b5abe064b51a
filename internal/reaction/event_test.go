package reaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/nostr/nostrtest"
)

func TestNewEvent_Tags(t *testing.T) {
	ev := NewEvent(Target{ID: "item", AuthorKey: "curator", Kind: nostr.KindListItem}, domain.VoteDown, "wss://catalog.example")

	assert.Equal(t, nostr.KindReaction, ev.Kind)
	assert.Equal(t, "-", ev.Content)
	assert.Equal(t, nostr.Tags{
		{"e", "item", "wss://catalog.example"},
		{"p", "curator"},
		{"k", "9999"},
	}, ev.Tags)
}

func TestTargetOf_DefaultsKind(t *testing.T) {
	target := TargetOf(&domain.CatalogEntry{ID: "x", AuthorKey: "a"})
	assert.Equal(t, nostr.KindListItem, target.Kind)
}

func TestValidate(t *testing.T) {
	signer := nostrtest.NewSigner(t)

	good := NewEvent(Target{ID: "item", AuthorKey: "curator", Kind: 9999}, domain.VoteUp, "")
	require.NoError(t, signer.Sign(good))
	r, err := Validate(good)
	require.NoError(t, err)
	assert.Equal(t, "item", r.TargetID)

	emoji := nostrtest.Sign(t, signer, nostr.KindReaction, 100, "🔥", nostr.Tag{"e", "item"})
	_, err = Validate(emoji)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	tampered := nostrtest.Sign(t, signer, nostr.KindReaction, 100, "+", nostr.Tag{"e", "item"})
	tampered.Content = "-"
	_, err = Validate(tampered)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = Validate(nil)
	assert.Error(t, err)
}
