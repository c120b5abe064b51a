package reconcile

import (
	"context"
	"log/slog"
	"slices"

	"github.com/trustwaveapp/trustwave-server/internal/catalog"
	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/nostr"
	"github.com/trustwaveapp/trustwave-server/internal/syncutil"
)

// Outcome of a guarded add.
type Outcome string

// Outcomes.
const (
	Added          Outcome = "added"
	AlreadyPresent Outcome = "already_added"
)

// AddResult reports what a guarded add did. Entry is the record now on the
// list, either the one just published or the one found first.
type AddResult struct {
	Outcome Outcome             `json:"outcome"`
	Entry   domain.CatalogEntry `json:"entry"`
}

// Guard serializes check-then-add per (list, stable id). Within a process a
// keyed lock admits one writer at a time; across processes the relay is
// re-queried right before publishing.
type Guard struct {
	store  nostr.Store
	locks  *syncutil.KeyedMutex
	logger *slog.Logger
}

// NewGuard creates a Guard writing to store.
func NewGuard(store nostr.Store, logger *slog.Logger) *Guard {
	return &Guard{store: store, locks: syncutil.NewKeyedMutex(), logger: logger}
}

// scanPageSize is the page size of the list walk that finds artists keyed
// only by feed GUID, which relays cannot filter on.
const scanPageSize = 500

// identities returns every id a catalog entry answers to: its stable id and,
// for artists, its feed GUID.
func identities(e *domain.CatalogEntry) []string {
	var ids []string
	if id := e.StableID(); id != "" {
		ids = append(ids, id)
	}
	if e.Artist != nil && e.Artist.FeedGUID != "" && !slices.Contains(ids, e.Artist.FeedGUID) {
		ids = append(ids, e.Artist.FeedGUID)
	}
	slices.Sort(ids)
	return ids
}

func sharesIdentity(e *domain.CatalogEntry, ids []string) bool {
	return slices.ContainsFunc(identities(e), func(id string) bool { return slices.Contains(ids, id) })
}

// find returns the entry already on listTag that shares an identity with
// want. Songs are always keyed by their t tag; artists may carry only a
// feedGuid, so a miss on t is followed by a walk of the list.
func (g *Guard) find(ctx context.Context, listTag string, want *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	ids := identities(want)
	events, err := g.store.Query(ctx, nostr.Filter{
		Kinds: nostr.ListItemKinds,
		Tags:  map[string][]string{"z": {listTag}, "t": ids},
		Limit: len(ids),
	})
	if e := firstSharing(events, ids); e != nil {
		return e, nil
	}
	if err != nil {
		return nil, err
	}
	if want.Artist == nil {
		return nil, nil
	}

	pager := nostr.NewPager(g.store, nostr.Filter{
		Kinds: nostr.ListItemKinds,
		Tags:  map[string][]string{"z": {listTag}},
	}, scanPageSize, 0)
	for !pager.Done() {
		events, err := pager.Next(ctx)
		if e := firstSharing(events, ids); e != nil {
			return e, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func firstSharing(events []*nostr.Event, ids []string) *domain.CatalogEntry {
	for _, ev := range events {
		if e, err := catalog.ParseEntry(ev); err == nil && sharesIdentity(&e, ids) {
			return &e
		}
	}
	return nil
}

// AddOnce publishes ev unless listTag already has an entry sharing one of its
// ids. The ids come from ev itself, and ev must target listTag. A record
// found between the caller's check and this call is a successful no-op
// reported as AlreadyPresent.
func (g *Guard) AddOnce(ctx context.Context, listTag string, ev *nostr.Event) (AddResult, error) {
	if ev == nil {
		return AddResult{}, domainerrors.Validation("record is required")
	}
	entry, err := catalog.ParseEntry(ev)
	if err != nil {
		return AddResult{}, domainerrors.Validation("record is not a catalog entry").WithCause(err)
	}
	if entry.ListTag != listTag {
		return AddResult{}, domainerrors.Validationf("record targets %q, expected %q", entry.ListTag, listTag)
	}
	ids := identities(&entry)
	if len(ids) == 0 {
		return AddResult{}, domainerrors.Validation("stable id is required")
	}

	// Sorted ids keep the lock order consistent across callers.
	for _, id := range ids {
		unlock := g.locks.Lock(listTag + "\x00" + id)
		defer unlock()
	}

	existing, err := g.find(ctx, listTag, &entry)
	if err != nil {
		return AddResult{}, err
	}
	if existing != nil {
		g.logger.Info("import skipped, already on list",
			"list", listTag, "stable_id", entry.StableID(), "existing", existing.ID)
		return AddResult{Outcome: AlreadyPresent, Entry: *existing}, nil
	}

	if err := g.store.Publish(ctx, ev); err != nil {
		return AddResult{}, err
	}

	g.logger.Info("catalog entry added", "list", listTag, "stable_id", entry.StableID(), "id", ev.ID)
	return AddResult{Outcome: Added, Entry: entry}, nil
}
