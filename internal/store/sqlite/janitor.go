package sqlite

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"time"
)

// Janitor actions.
const (
	ActionDownvoted = "downvoted"
	ActionDryRun    = "dry_run"
	ActionSkipped   = "skipped" // Already downvoted by the janitor identity
	ActionFailed    = "failed"
)

// Verdict is the janitor's decision about one catalog record.
type Verdict struct {
	RecordID string
	Title    string
	Reasons  []string
	Action   string
}

// RecordVerdicts stores a batch of verdicts for a run in one transaction.
func (s *Store) RecordVerdicts(ctx context.Context, runID string, verdicts []Verdict) error {
	if len(verdicts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO janitor_verdicts (run_id, record_id, title, reasons, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, record_id) DO UPDATE SET reasons = excluded.reasons, action = excluded.action`)
	if err != nil {
		return fmt.Errorf("prepare verdict insert: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, v := range verdicts {
		reasons, err := json.Marshal(v.Reasons)
		if err != nil {
			return fmt.Errorf("marshal reasons: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, v.RecordID, v.Title, string(reasons), v.Action, now); err != nil {
			return fmt.Errorf("insert verdict %s: %w", v.RecordID, err)
		}
	}
	return tx.Commit()
}

// Downvoted returns the record ids any previous run actually downvoted.
func (s *Store) Downvoted(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT record_id FROM janitor_verdicts WHERE action = ?`, ActionDownvoted)
	if err != nil {
		return nil, fmt.Errorf("query downvoted: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan downvoted: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// RunVerdicts lists the verdicts of one run in record id order.
func (s *Store) RunVerdicts(ctx context.Context, runID string) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, title, reasons, action FROM janitor_verdicts
		WHERE run_id = ? ORDER BY record_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []Verdict
	for rows.Next() {
		var (
			v       Verdict
			reasons string
		)
		if err := rows.Scan(&v.RecordID, &v.Title, &reasons, &v.Action); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		if err := json.Unmarshal([]byte(reasons), &v.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
