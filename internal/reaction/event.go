package reaction

import (
	"strconv"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// Target identifies the record a reaction points at.
type Target struct {
	ID        string
	AuthorKey string
	Kind      int
}

// TargetOf returns the reaction target for a catalog entry.
func TargetOf(e *domain.CatalogEntry) Target {
	kind := e.EventKind
	if kind == 0 {
		kind = nostr.KindListItem
	}
	return Target{ID: e.ID, AuthorKey: e.AuthorKey, Kind: kind}
}

// NewEvent builds an unsigned reaction. relayHint is written into the "e" tag.
func NewEvent(target Target, vote domain.Vote, relayHint string) *nostr.Event {
	e := nostr.Tag{"e", target.ID}
	if relayHint != "" {
		e = append(e, relayHint)
	}
	return &nostr.Event{
		Kind:    nostr.KindReaction,
		Content: vote.Content(),
		Tags: nostr.Tags{
			e,
			{"p", target.AuthorKey},
			{"k", strconv.Itoa(target.Kind)},
		},
	}
}

// Validate checks a client-signed reaction: kind, target, vote content, id and
// signature.
func Validate(ev *nostr.Event) (domain.ReactionRecord, error) {
	if ev == nil {
		return domain.ReactionRecord{}, domainerrors.Validation("reaction is required")
	}
	if ev.Kind != nostr.KindReaction {
		return domain.ReactionRecord{}, domainerrors.Validationf("reaction must be kind %d, got %d", nostr.KindReaction, ev.Kind)
	}
	r, ok := Parse(ev)
	if !ok {
		return domain.ReactionRecord{}, domainerrors.Validation("reaction has no e tag")
	}
	if ev.Content != "+" && ev.Content != "-" {
		return domain.ReactionRecord{}, domainerrors.Validation("reaction content must be + or -")
	}
	if err := nostr.Verify(ev); err != nil {
		return domain.ReactionRecord{}, domainerrors.Validation("reaction signature invalid").WithCause(err)
	}
	return r, nil
}
