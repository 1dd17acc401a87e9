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

// SQLiteJobRepo implements JobRepo using a SQLite database.
type SQLiteJobRepo struct {
	db db.DBTX
}

// NewSQLiteJobRepo creates a new SQLiteJobRepo. conn may be a *sql.DB or a
// *sql.Tx handed out by a unit of work.
func NewSQLiteJobRepo(conn db.DBTX) *SQLiteJobRepo {
	return &SQLiteJobRepo{db: conn}
}

const jobColumns = `id, name, address, latitude, longitude, autotimer_enabled, geofence_radius,
	delay_start_min, delay_stop_min, notifications_enabled, created_at, updated_at`

func (r *SQLiteJobRepo) Create(ctx context.Context, j *domain.Job) error {
	lat, lon := coordinateArgs(j.Location)
	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		j.ID,
		j.Name,
		j.Address,
		lat, lon,
		boolToInt(j.AutoTimer.Enabled),
		j.AutoTimer.GeofenceRadiusMeters,
		j.AutoTimer.DelayStartMinutes,
		j.AutoTimer.DelayStopMinutes,
		boolToInt(j.AutoTimer.NotificationsEnabled),
		j.CreatedAt.UTC().Format(time.RFC3339),
		j.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (r *SQLiteJobRepo) Enabled(ctx context.Context) (*domain.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE autotimer_enabled = 1 LIMIT 1`)
	return scanJob(row)
}

func (r *SQLiteJobRepo) List(ctx context.Context) ([]*domain.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY name COLLATE NOCASE, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

func (r *SQLiteJobRepo) Update(ctx context.Context, j *domain.Job) error {
	lat, lon := coordinateArgs(j.Location)
	query := `UPDATE jobs SET name = ?, address = ?, latitude = ?, longitude = ?, autotimer_enabled = ?,
		geofence_radius = ?, delay_start_min = ?, delay_stop_min = ?, notifications_enabled = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		j.Name,
		j.Address,
		lat, lon,
		boolToInt(j.AutoTimer.Enabled),
		j.AutoTimer.GeofenceRadiusMeters,
		j.AutoTimer.DelayStartMinutes,
		j.AutoTimer.DelayStopMinutes,
		boolToInt(j.AutoTimer.NotificationsEnabled),
		j.UpdatedAt.UTC().Format(time.RFC3339),
		j.ID,
	)
	if err != nil {
		return fmt.Errorf("updating job: %w", err)
	}
	return requireAffected(res, "job")
}

func (r *SQLiteJobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting job: %w", err)
	}
	return requireAffected(res, "job")
}

func (r *SQLiteJobRepo) SetAutoTimerEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET autotimer_enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("setting autotimer flag: %w", err)
	}
	return requireAffected(res, "job")
}

func (r *SQLiteJobRepo) DisableAllAutoTimers(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET autotimer_enabled = 0, updated_at = ? WHERE autotimer_enabled = 1`, nowUTC())
	if err != nil {
		return fmt.Errorf("disabling autotimers: %w", err)
	}
	return nil
}

func (r *SQLiteJobRepo) ClampRadius(ctx context.Context, min int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM jobs WHERE geofence_radius < ? ORDER BY id`, min)
	if err != nil {
		return nil, fmt.Errorf("finding small radii: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning job id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating job ids: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return nil, nil
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET geofence_radius = ?, updated_at = ? WHERE geofence_radius < ?`,
		min, nowUTC(), min); err != nil {
		return nil, fmt.Errorf("clamping radii: %w", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var lat, lon sql.NullFloat64
	var enabled, notify int
	var createdAt, updatedAt string

	err := row.Scan(
		&j.ID, &j.Name, &j.Address, &lat, &lon,
		&enabled,
		&j.AutoTimer.GeofenceRadiusMeters,
		&j.AutoTimer.DelayStartMinutes,
		&j.AutoTimer.DelayStopMinutes,
		&notify,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	j.Location = coordinateFrom(lat, lon)
	j.AutoTimer.Enabled = intToBool(enabled)
	j.AutoTimer.NotificationsEnabled = intToBool(notify)
	j.CreatedAt = parseTime(createdAt)
	j.UpdatedAt = parseTime(updatedAt)
	return &j, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
