package service

import (
	"context"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/importer"
)

type JobService interface {
	Create(ctx context.Context, j *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	// Resolve finds a job by id or, failing that, by case-insensitive name.
	Resolve(ctx context.Context, ref string) (*domain.Job, error)
	List(ctx context.Context) ([]*domain.Job, error)
	Update(ctx context.Context, j *domain.Job) error
	Delete(ctx context.Context, id string) error
}

type WorkDayService interface {
	ListRecent(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error)
}

// ModeResult reports what SetMode did. PermissionRequired means the mode
// needs the "always" location grant and nothing was changed.
type ModeResult struct {
	Settings           domain.ModeSettings
	Changed            bool
	PermissionRequired bool
	ClampedJobIDs      []string
}

type ModeService interface {
	GetSettings(ctx context.Context) (domain.ModeSettings, error)
	SetMode(ctx context.Context, mode domain.Mode) (ModeResult, error)
	CheckBackgroundPermission(ctx context.Context) (bool, error)
	RequestBackgroundPermission(ctx context.Context) (bool, error)
	SamplingPolicy(mode domain.Mode) domain.SamplingPolicy
	// Subscribe registers fn for every successful mode change and returns
	// a function that removes it.
	Subscribe(fn func(domain.ModeSettings)) (unsubscribe func())
}

// PermissionProvider is the platform's location permission surface.
type PermissionProvider interface {
	Current(ctx context.Context) (domain.Permissions, error)
	RequestBackground(ctx context.Context) (domain.Permissions, error)
}

type NotificationSettingsService interface {
	Get(ctx context.Context) (domain.NotificationSettings, error)
	Set(ctx context.Context, s domain.NotificationSettings) error
}

// ImportResult holds the outcome of a job import.
type ImportResult struct {
	Jobs           []*domain.Job
	WorkDayCount   int
	MergedWorkDays int
}

type ImportService interface {
	ImportJobs(ctx context.Context, filePath string) (*ImportResult, error)
	ImportJobsFromSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
