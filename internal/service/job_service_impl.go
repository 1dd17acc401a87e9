package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrJobInUse     = errors.New("job has an active session")
	ErrAmbiguousJob = errors.New("more than one job matches")
)

type jobService struct {
	jobs     repository.JobRepo
	sessions repository.RecordRepo[domain.ActiveSession]
	modes    ModeService
	observer UseCaseObserver
}

// NewJobService builds the job CRUD service. modes supplies the radius
// floor new configurations are clamped to; nil means foreground-only.
func NewJobService(
	jobs repository.JobRepo,
	sessions repository.RecordRepo[domain.ActiveSession],
	modes ModeService,
	observers ...UseCaseObserver,
) JobService {
	return &jobService{
		jobs:     jobs,
		sessions: sessions,
		modes:    modes,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *jobService) currentMode(ctx context.Context) domain.Mode {
	if s.modes == nil {
		return domain.ModeForegroundOnly
	}
	settings, err := s.modes.GetSettings(ctx)
	if err != nil {
		return domain.ModeForegroundOnly
	}
	return settings.Mode
}

// Create stores a new job. AutoTimer ownership is never granted here; it
// goes through the engine so conflicts are detected.
func (s *jobService) Create(ctx context.Context, j *domain.Job) (err error) {
	startedAt := time.Now()
	defer func() { observe(ctx, s.observer, "create-job", startedAt, err, map[string]any{"job": j.Name}) }()

	if err = j.Validate(); err != nil {
		return err
	}
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	j.AutoTimer = j.AutoTimer.Normalize(s.currentMode(ctx))
	j.AutoTimer.Enabled = false
	return s.jobs.Create(ctx, j)
}

func (s *jobService) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

func (s *jobService) Resolve(ctx context.Context, ref string) (*domain.Job, error) {
	j, err := s.jobs.GetByID(ctx, ref)
	if err == nil {
		return j, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Job
	for _, cand := range jobs {
		if strings.EqualFold(cand.Name, ref) || strings.HasPrefix(cand.ID, ref) {
			matches = append(matches, cand)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("job %q: %w", ref, repository.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("job %q: %w", ref, ErrAmbiguousJob)
	}
}

func (s *jobService) List(ctx context.Context) ([]*domain.Job, error) {
	return s.jobs.List(ctx)
}

// Update saves edits. The stored ownership flag is kept.
func (s *jobService) Update(ctx context.Context, j *domain.Job) (err error) {
	startedAt := time.Now()
	defer func() { observe(ctx, s.observer, "update-job", startedAt, err, map[string]any{"job_id": j.ID}) }()

	if err = j.Validate(); err != nil {
		return err
	}
	var stored *domain.Job
	stored, err = s.jobs.GetByID(ctx, j.ID)
	if err != nil {
		return err
	}
	j.AutoTimer = j.AutoTimer.Normalize(s.currentMode(ctx))
	j.AutoTimer.Enabled = stored.AutoTimer.Enabled
	j.CreatedAt = stored.CreatedAt
	j.UpdatedAt = time.Now().UTC()
	return s.jobs.Update(ctx, j)
}

// Delete removes a job and its work days. A job with a running session
// cannot be deleted.
func (s *jobService) Delete(ctx context.Context, id string) (err error) {
	startedAt := time.Now()
	defer func() { observe(ctx, s.observer, "delete-job", startedAt, err, map[string]any{"job_id": id}) }()

	var active *domain.ActiveSession
	active, err = s.sessions.Get(ctx)
	switch {
	case err == nil && active.JobID == id:
		return ErrJobInUse
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return err
	}
	err = s.jobs.Delete(ctx, id)
	return err
}

type workDayService struct {
	workDays repository.WorkDayRepo
	now      func() time.Time
}

// NewWorkDayService lists work days relative to now. A nil now means the
// wall clock.
func NewWorkDayService(workDays repository.WorkDayRepo, now func() time.Time) WorkDayService {
	if now == nil {
		now = time.Now
	}
	return &workDayService{workDays: workDays, now: now}
}

func (s *workDayService) ListRecent(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error) {
	if days <= 0 {
		days = 7
	}
	since := s.now().UTC().AddDate(0, 0, -days).Format(domain.DateLayout)
	return s.workDays.ListSince(ctx, since, jobID)
}
