package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/trustwaveapp/trustwave-server/internal/errors"
	"github.com/trustwaveapp/trustwave-server/internal/id"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one execution of a background job.
type Run struct {
	ID         string
	Job        string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Scanned    int
	Flagged    int
	Published  int
	Error      string
}

// RunStats are the counters a job reports when it finishes.
type RunStats struct {
	Scanned   int
	Flagged   int
	Published int
}

// StartRun records the start of a job run and returns it.
func (s *Store) StartRun(ctx context.Context, job string, dryRun bool) (*Run, error) {
	runID, err := id.Generate("run")
	if err != nil {
		return nil, err
	}
	run := &Run{ID: runID, Job: job, DryRun: dryRun, StartedAt: time.Now().UTC(), Status: RunRunning}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, job, dry_run, started_at, status) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Job, boolInt(dryRun), formatTime(run.StartedAt), run.Status)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun closes a run with its counters. A non-nil runErr marks it failed.
func (s *Store) FinishRun(ctx context.Context, id string, stats RunStats, runErr error) error {
	status, msg := RunCompleted, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, status = ?, scanned = ?, flagged = ?, published = ?, error = ?
		WHERE id = ?`,
		formatTime(time.Now()), status, stats.Scanned, stats.Flagged, stats.Published, nullString(msg), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domainerrors.NotFoundf("run %s not found", id)
	}
	return nil
}

// LastRun returns the most recently started run of job.
func (s *Store) LastRun(ctx context.Context, job string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job, dry_run, started_at, finished_at, status, scanned, flagged, published, error
		FROM runs WHERE job = ? ORDER BY started_at DESC LIMIT 1`, job)

	var (
		r        Run
		dry      int
		started  string
		finished sql.NullString
		msg      sql.NullString
	)
	err := row.Scan(&r.ID, &r.Job, &dry, &started, &finished, &r.Status, &r.Scanned, &r.Flagged, &r.Published, &msg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("no %s runs recorded", job)
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	r.DryRun = dry == 1
	r.Error = msg.String
	if r.StartedAt, err = parseTime(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = parseNullableTime(finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &r, nil
}
