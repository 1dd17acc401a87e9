package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/db"
)

// Keys of the documents kept in the records table.
const (
	KeyActiveSession        = db.ActiveSessionKey
	KeyModeSettings         = "location_mode"
	KeyEngineSnapshot       = "autotimer_state"
	KeyPermissions          = "location_permissions"
	KeyNotificationSettings = "notification_settings"
)

// SQLiteRecordRepo implements RecordRepo over the key/value records table.
type SQLiteRecordRepo[T any] struct {
	db  db.DBTX
	key string
}

func NewSQLiteRecordRepo[T any](conn db.DBTX, key string) *SQLiteRecordRepo[T] {
	return &SQLiteRecordRepo[T]{db: conn, key: key}
}

func (r *SQLiteRecordRepo[T]) Get(ctx context.Context) (*T, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, r.key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", r.key, ErrNotFound)
		}
		return nil, fmt.Errorf("loading record %s: %w", r.key, err)
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", r.key, err)
	}
	return &v, nil
}

func (r *SQLiteRecordRepo[T]) Put(ctx context.Context, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", r.key, err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		r.key, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("saving record %s: %w", r.key, err)
	}
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (r *SQLiteRecordRepo[T]) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, r.key); err != nil {
		return fmt.Errorf("deleting record %s: %w", r.key, err)
	}
	return nil
}
