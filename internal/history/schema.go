// Package history records export runs in a local SQLite database.
package history

import "context"

// Schema defines the SQL statements to create database tables.
const Schema = `
-- One row per export run (one output document)
CREATE TABLE IF NOT EXISTS export_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL,                -- 'vouchers' or 'ledgers'
    period_from TEXT NOT NULL,         -- YYYY-MM-DD, empty when open
    period_to TEXT NOT NULL,
    started_at TEXT NOT NULL,          -- UTC, fixed width
    finished_at TEXT NOT NULL,
    total INTEGER NOT NULL,
    succeeded INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    warnings INTEGER NOT NULL,
    output_file TEXT NOT NULL,         -- empty on dry runs and aborted runs
    status TEXT NOT NULL               -- 'completed', 'partial' or 'failed'
);

CREATE INDEX IF NOT EXISTS idx_export_runs_started
    ON export_runs(started_at);

-- Failed vouchers of a run
CREATE TABLE IF NOT EXISTS export_failures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL REFERENCES export_runs(run_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    voucher_date TEXT NOT NULL,
    voucher_no TEXT NOT NULL,
    kind TEXT NOT NULL,
    message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_export_failures_run
    ON export_failures(run_id);
`

// InitializeSchema creates all tables if they don't exist.
func InitializeSchema(ctx context.Context, conn *Connection) error {
	_, err := conn.db.ExecContext(ctx, Schema)
	return err
}
