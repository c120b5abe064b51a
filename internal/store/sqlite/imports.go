package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ImportRecord notes that a stable id was pushed to (or found on) a list.
type ImportRecord struct {
	ListTag    string
	StableID   string
	RecordID   string
	Kind       string // song or artist
	FeedID     string
	Outcome    string // added or already_added
	ImportedAt time.Time
}

// RecordImport upserts an import record.
func (s *Store) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO imports (list_tag, stable_id, record_id, kind, feed_id, outcome, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(list_tag, stable_id) DO UPDATE SET
			record_id = excluded.record_id, outcome = excluded.outcome, imported_at = excluded.imported_at`,
		rec.ListTag, rec.StableID, rec.RecordID, rec.Kind, rec.FeedID, rec.Outcome, formatTime(rec.ImportedAt))
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// Imported reports whether stableID was already imported onto listTag.
func (s *Store) Imported(ctx context.Context, listTag, stableID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM imports WHERE list_tag = ? AND stable_id = ?`, listTag, stableID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query import: %w", err)
	}
	return true, nil
}

