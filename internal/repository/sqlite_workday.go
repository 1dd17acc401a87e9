package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
)

// SQLiteWorkDayRepo implements WorkDayRepo using a SQLite database.
type SQLiteWorkDayRepo struct {
	db db.DBTX
}

func NewSQLiteWorkDayRepo(conn db.DBTX) *SQLiteWorkDayRepo {
	return &SQLiteWorkDayRepo{db: conn}
}

const workDayColumns = `id, date, job_id, hours, notes, overtime, actual_start, actual_end, type, created_at, updated_at`

func (r *SQLiteWorkDayRepo) Create(ctx context.Context, w *domain.WorkDay) error {
	typ := w.Type
	if typ == "" {
		typ = domain.WorkDayWork
	}
	query := `INSERT INTO work_days (` + workDayColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.Date,
		nullableString(w.JobID),
		w.Hours,
		w.Notes,
		boolToInt(w.Overtime),
		w.ActualStart,
		w.ActualEnd,
		string(typ),
		w.CreatedAt.UTC().Format(time.RFC3339),
		w.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting work day: %w", err)
	}
	return nil
}

func (r *SQLiteWorkDayRepo) Update(ctx context.Context, w *domain.WorkDay) error {
	query := `UPDATE work_days SET date = ?, job_id = ?, hours = ?, notes = ?, overtime = ?,
		actual_start = ?, actual_end = ?, type = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		w.Date,
		nullableString(w.JobID),
		w.Hours,
		w.Notes,
		boolToInt(w.Overtime),
		w.ActualStart,
		w.ActualEnd,
		string(w.Type),
		w.UpdatedAt.UTC().Format(time.RFC3339),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work day: %w", err)
	}
	return requireAffected(res, "work day")
}

func (r *SQLiteWorkDayRepo) GetByID(ctx context.Context, id string) (*domain.WorkDay, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workDayColumns+` FROM work_days WHERE id = ?`, id)
	return scanWorkDay(row)
}

func (r *SQLiteWorkDayRepo) FindByDateAndJob(ctx context.Context, date, jobID string) (*domain.WorkDay, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workDayColumns+` FROM work_days WHERE date = ? AND job_id = ? ORDER BY created_at LIMIT 1`,
		date, jobID)
	return scanWorkDay(row)
}

func (r *SQLiteWorkDayRepo) ListRecent(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(domain.DateLayout)
	return r.ListSince(ctx, since, jobID)
}

func (r *SQLiteWorkDayRepo) ListSince(ctx context.Context, since, jobID string) ([]*domain.WorkDay, error) {
	query := `SELECT ` + workDayColumns + ` FROM work_days WHERE date >= ?`
	args := []any{since}
	if jobID != "" {
		query += ` AND job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing work days: %w", err)
	}
	defer rows.Close()

	var out []*domain.WorkDay
	for rows.Next() {
		w, err := scanWorkDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work days: %w", err)
	}
	return out, nil
}

func (r *SQLiteWorkDayRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_days WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work day: %w", err)
	}
	return requireAffected(res, "work day")
}

func scanWorkDay(row rowScanner) (*domain.WorkDay, error) {
	var w domain.WorkDay
	var jobID sql.NullString
	var overtime int
	var typ, createdAt, updatedAt string

	err := row.Scan(
		&w.ID, &w.Date, &jobID, &w.Hours, &w.Notes, &overtime,
		&w.ActualStart, &w.ActualEnd, &typ, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("work day: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning work day: %w", err)
	}
	w.JobID = jobID.String
	w.Overtime = intToBool(overtime)
	w.Type = domain.WorkDayType(typ)
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)
	return &w, nil
}
