package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
)

// Hide records id as hidden. Hiding an already hidden id refreshes the reason.
func (s *Store) Hide(ctx context.Context, item domain.HiddenItem) error {
	if item.ID == "" {
		return domainerrors.Validation("hidden item id is required")
	}
	if item.HiddenAt.IsZero() {
		item.HiddenAt = time.Now().UTC()
	}
	if err := s.Hidden.Put(ctx, item.ID, &item); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("catalog item hidden", "id", item.ID, "list", item.ListTag, "reason", item.Reason)
	}
	return nil
}

// Unhide removes id from the hidden set.
func (s *Store) Unhide(ctx context.Context, id string) error {
	if err := s.Hidden.Delete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("catalog item unhidden", "id", id)
	}
	return nil
}

// IsHidden reports whether id is hidden. Lookup failures are logged and
// treated as not hidden so a storage hiccup never empties the catalog.
func (s *Store) IsHidden(id string) bool {
	ok, err := s.Hidden.Exists(id)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("hidden lookup failed", "id", id, "error", err)
		}
		return false
	}
	return ok
}

// HiddenIDs returns the ids hidden on listTag, or every hidden id when listTag is empty.
func (s *Store) HiddenIDs(ctx context.Context, listTag string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if listTag != "" {
		ids, err := s.Hidden.IDsByIndex(ctx, "list", listTag)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[id] = struct{}{}
		}
		return out, nil
	}
	for item, err := range s.Hidden.List(ctx) {
		if err != nil {
			return nil, err
		}
		out[item.ID] = struct{}{}
	}
	return out, nil
}

// ListHidden returns one page of hidden items ordered by id.
func (s *Store) ListHidden(ctx context.Context, params PaginationParams) (*PaginatedResult[domain.HiddenItem], error) {
	page, err := paginate(s.Hidden.List(ctx), params, func(item *domain.HiddenItem) string { return item.ID })
	if errors.Is(err, ErrInvalidCursor) {
		return nil, domainerrors.Validation(err.Error())
	}
	return page, err
}

// ClearHidden removes every hidden item and returns how many were removed.
func (s *Store) ClearHidden(ctx context.Context) (int, error) {
	n, err := s.Hidden.DeleteAll(ctx)
	if err == nil && s.logger != nil {
		s.logger.Info("hidden set cleared", slog.Int("removed", n))
	}
	return n, err
}
