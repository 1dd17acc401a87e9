package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ActiveSessionKey is the records key holding the single active session.
const ActiveSessionKey = "active_session"

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE statements are re-run on every open.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillSessionSource(db); err != nil {
		return fmt.Errorf("backfilling active session source: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id                    TEXT PRIMARY KEY,
		name                  TEXT NOT NULL,
		address               TEXT NOT NULL DEFAULT '',
		latitude              REAL,
		longitude             REAL,
		autotimer_enabled     INTEGER NOT NULL DEFAULT 0,
		geofence_radius       INTEGER NOT NULL DEFAULT 100 CHECK(geofence_radius >= 25),
		delay_start_min       INTEGER NOT NULL DEFAULT 2 CHECK(delay_start_min BETWEEN 0 AND 10),
		delay_stop_min        INTEGER NOT NULL DEFAULT 2 CHECK(delay_stop_min BETWEEN 0 AND 10),
		notifications_enabled INTEGER NOT NULL DEFAULT 1,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,

	// At most one job may own the AutoTimer.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_single_autotimer
		ON jobs(autotimer_enabled) WHERE autotimer_enabled = 1`,

	`CREATE TABLE IF NOT EXISTS work_days (
		id         TEXT PRIMARY KEY,
		date       TEXT NOT NULL,
		job_id     TEXT REFERENCES jobs(id) ON DELETE CASCADE,
		hours      REAL NOT NULL CHECK(hours >= 0),
		notes      TEXT NOT NULL DEFAULT '',
		overtime   INTEGER NOT NULL DEFAULT 0,
		type       TEXT NOT NULL DEFAULT 'work'
		           CHECK(type IN ('work','free','vacation','sick')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_work_days_date_job ON work_days(date, job_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_days_job ON work_days(job_id)`,

	`CREATE TABLE IF NOT EXISTS records (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	// Actual clock range shown in reports.
	`ALTER TABLE work_days ADD COLUMN actual_start TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE work_days ADD COLUMN actual_end TEXT NOT NULL DEFAULT ''`,
}

// migrateBackfillSessionSource tags an active session written before the
// source field existed. Sessions noted "Auto-started" were started by the
// engine; everything else was started by hand. Idempotent.
func migrateBackfillSessionSource(db *sql.DB) error {
	ctx := context.Background()

	var raw string
	err := db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, ActiveSessionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading active session: %w", err)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return fmt.Errorf("decoding active session: %w", err)
	}
	if src, ok := rec["source"].(string); ok && src != "" {
		return nil
	}

	rec["source"] = "manual"
	if note, _ := rec["notes"].(string); note == "Auto-started" {
		rec["source"] = "auto"
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding active session: %w", err)
	}
	if _, err := db.ExecContext(ctx, `UPDATE records SET value = ? WHERE key = ?`, string(out), ActiveSessionKey); err != nil {
		return fmt.Errorf("updating active session: %w", err)
	}
	return nil
}
