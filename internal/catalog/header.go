package catalog

import (
	"slices"
	"strconv"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/genre"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
)

// HeaderKinds are the kinds a list header may be published as.
var HeaderKinds = []int{nostr.KindListHeader, nostr.KindListHeaderAddressable}

// ParseListHeader reads a list header record. Missing names default to
// "song"/"songs" and a missing d tag falls back to the record id.
func ParseListHeader(ev *nostr.Event) (domain.ListHeader, error) {
	if ev == nil {
		return domain.ListHeader{}, ErrMissingRecord
	}
	if !slices.Contains(HeaderKinds, ev.Kind) {
		return domain.ListHeader{}, domainerrors.Validationf("list header must be kind %d or %d, got %d",
			nostr.KindListHeader, nostr.KindListHeaderAddressable, ev.Kind)
	}

	d := ev.Tags.Value("d")
	if d == "" {
		d = ev.ID
	}
	h := domain.ListHeader{
		ID:           ev.ID,
		AuthorKey:    ev.PubKey,
		Identifier:   d,
		ATag:         ATag(ev.Kind, ev.PubKey, d),
		NameSingular: "song",
		NamePlural:   "songs",
		Description:  ev.Tags.Value("description"),
		Parent:       ev.Tags.Value("parent"),
		Genres:       ev.Tags.Values("genre"),
		CreatedAt:    ev.CreatedAt,
	}
	if names := ev.Tags.Find("names"); len(names) > 1 {
		h.NameSingular = names[1]
		if len(names) > 2 {
			h.NamePlural = names[2]
		}
	}
	if req := ev.Tags.Find("required"); len(req) > 1 {
		h.Required = append([]string(nil), req[1:]...)
	}
	if rec := ev.Tags.Find("recommended"); len(rec) > 1 {
		h.Recommended = append([]string(nil), rec[1:]...)
	}
	return h, nil
}

// ATag formats an addressable record reference.
func ATag(kind int, pubkey, d string) string {
	return strconv.Itoa(kind) + ":" + pubkey + ":" + d
}

// NewListHeaderEvent builds an unsigned addressable list header under parent.
// Genres are normalized to canonical slugs and written both as genre and t tags.
func NewListHeaderEvent(h domain.ListHeader) *nostr.Event {
	tags := nostr.Tags{
		{"d", h.Identifier},
		{"names", h.NameSingular, h.NamePlural},
	}
	if h.Parent != "" {
		tags = append(tags, nostr.Tag{"parent", h.Parent})
	}
	tags = append(tags,
		nostr.Tag{"required", "t"},
		nostr.Tag{"recommended", "title", "artist", "url", "artwork"},
	)
	if h.Description != "" {
		tags = append(tags, nostr.Tag{"description", h.Description})
	}
	for _, g := range genre.NormalizeAll(h.Genres) {
		tags = append(tags, nostr.Tag{"genre", g}, nostr.Tag{"t", g})
	}
	tags = append(tags, nostr.Tag{"alt", "Music playlist: " + h.NamePlural})

	return &nostr.Event{
		Kind: nostr.KindListHeaderAddressable,
		Tags: tags,
	}
}
