package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Checkpoint is the resume position a job saved last.
type Checkpoint struct {
	Job       string
	Cursor    string
	UpdatedAt time.Time
}

// GetCheckpoint returns the saved checkpoint for job. ok is false when the
// job never saved one.
func (s *Store) GetCheckpoint(ctx context.Context, job string) (cp Checkpoint, ok bool, err error) {
	var updated string
	err = s.db.QueryRowContext(ctx,
		`SELECT job, cursor, updated_at FROM checkpoints WHERE job = ?`, job,
	).Scan(&cp.Job, &cp.Cursor, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("query checkpoint: %w", err)
	}

	cp.UpdatedAt, err = parseTime(updated)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint time: %w", err)
	}
	return cp, true, nil
}

// SetCheckpoint stores cursor as the resume position for job.
func (s *Store) SetCheckpoint(ctx context.Context, job, cursor string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (job, cursor, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(job) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`,
		job, cursor, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// ClearCheckpoint forgets the resume position for job.
func (s *Store) ClearCheckpoint(ctx context.Context, job string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE job = ?`, job); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
