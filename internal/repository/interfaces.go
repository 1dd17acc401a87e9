package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

type JobRepo interface {
	Create(ctx context.Context, j *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	List(ctx context.Context) ([]*domain.Job, error)
	Update(ctx context.Context, j *domain.Job) error
	Delete(ctx context.Context, id string) error

	// Enabled returns the job owning the AutoTimer, or ErrNotFound.
	Enabled(ctx context.Context) (*domain.Job, error)
	SetAutoTimerEnabled(ctx context.Context, id string, enabled bool) error
	DisableAllAutoTimers(ctx context.Context) error
	// ClampRadius raises every geofence radius below min to min and
	// returns the ids of the jobs it touched.
	ClampRadius(ctx context.Context, min int) ([]string, error)
}

type WorkDayRepo interface {
	Create(ctx context.Context, w *domain.WorkDay) error
	Update(ctx context.Context, w *domain.WorkDay) error
	GetByID(ctx context.Context, id string) (*domain.WorkDay, error)
	FindByDateAndJob(ctx context.Context, date, jobID string) (*domain.WorkDay, error)
	// ListRecent returns records dated within the last days days, newest
	// first. An empty jobID matches every job.
	ListRecent(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error)
	// ListSince returns records dated on or after since (YYYY-MM-DD).
	ListSince(ctx context.Context, since, jobID string) ([]*domain.WorkDay, error)
	Delete(ctx context.Context, id string) error
}

// RecordRepo stores a single JSON document under a fixed key.
type RecordRepo[T any] interface {
	Get(ctx context.Context) (*T, error)
	Put(ctx context.Context, v *T) error
	Delete(ctx context.Context) error
}
