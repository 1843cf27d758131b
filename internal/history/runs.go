package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Run is one recorded export run.
type Run struct {
	ID         int64
	RunID      string
	Kind       string
	PeriodFrom string
	PeriodTo   string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Warnings   int
	OutputFile string
	Status     string
	Failures   []Failure
}

// Failure is one failed item of a run.
type Failure struct {
	Position    int
	VoucherDate string
	VoucherNo   string
	Kind        string
	Message     string
}

// timeLayout is fixed-width so that stored times sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// StatusOf derives a run status from its failure count.
func StatusOf(failed int, aborted bool) string {
	switch {
	case aborted:
		return StatusFailed
	case failed > 0:
		return StatusPartial
	default:
		return StatusCompleted
	}
}

// Runs manages export run records.
type Runs struct {
	conn *Connection
}

// NewRuns creates a Runs instance.
func NewRuns(conn *Connection) *Runs {
	return &Runs{conn: conn}
}

// Record stores a run and its failures in one transaction.
func (r *Runs) Record(ctx context.Context, run Run) error {
	tx, err := r.conn.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO export_runs (run_id, kind, period_from, period_to, started_at, finished_at,
			total, succeeded, failed, warnings, output_file, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Kind,
		run.PeriodFrom,
		run.PeriodTo,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
		run.Total,
		run.Succeeded,
		run.Failed,
		run.Warnings,
		run.OutputFile,
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, f := range run.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO export_failures (run_id, position, voucher_date, voucher_no, kind, message)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, f.Position, f.VoucherDate, f.VoucherNo, f.Kind, f.Message,
		)
		if err != nil {
			return fmt.Errorf("failed to record failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// List returns the most recent runs, newest first, without failures.
func (r *Runs) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.db.QueryContext(ctx, `
		SELECT id, run_id, kind, period_from, period_to, started_at, finished_at,
			total, succeeded, failed, warnings, output_file, status
		FROM export_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return runs, nil
}

// Get returns one run with its failures, or nil if it does not exist.
func (r *Runs) Get(ctx context.Context, runID string) (*Run, error) {
	row := r.conn.db.QueryRowContext(ctx, `
		SELECT id, run_id, kind, period_from, period_to, started_at, finished_at,
			total, succeeded, failed, warnings, output_file, status
		FROM export_runs
		WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn.db.QueryContext(ctx, `
		SELECT position, voucher_date, voucher_no, kind, message
		FROM export_failures
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get failures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.Position, &f.VoucherDate, &f.VoucherNo, &f.Kind, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		run.Failures = append(run.Failures, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get failures: %w", err)
	}

	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var run Run
	var startedAt, finishedAt string

	err := s.Scan(
		&run.ID,
		&run.RunID,
		&run.Kind,
		&run.PeriodFrom,
		&run.PeriodTo,
		&startedAt,
		&finishedAt,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.Warnings,
		&run.OutputFile,
		&run.Status,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return Run{}, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return Run{}, fmt.Errorf("invalid finished_at %q: %w", finishedAt, err)
	}

	return run, nil
}
