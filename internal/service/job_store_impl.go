package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
)

// JobStore adapts the job repository to the engine's JobStore port.
type JobStore struct {
	conn db.DBTX
	uow  db.UnitOfWork
}

var _ autotimer.JobStore = (*JobStore)(nil)

func NewJobStore(conn db.DBTX, uow db.UnitOfWork) *JobStore {
	return &JobStore{conn: conn, uow: uow}
}

func (s *JobStore) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	j, err := repository.NewSQLiteJobRepo(s.conn).GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("job %s: %w", id, autotimer.ErrJobNotFound)
	}
	return j, err
}

func (s *JobStore) ListJobs(ctx context.Context) ([]*domain.Job, error) {
	return repository.NewSQLiteJobRepo(s.conn).List(ctx)
}

func (s *JobStore) SetAutoTimerEnabled(ctx context.Context, id string, enabled bool) error {
	err := repository.NewSQLiteJobRepo(s.conn).SetAutoTimerEnabled(ctx, id, enabled)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("job %s: %w", id, autotimer.ErrJobNotFound)
	}
	return err
}

// SwitchAutoTimer clears every owner and enables id in one transaction.
func (s *JobStore) SwitchAutoTimer(ctx context.Context, id string) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		jobs := repository.NewSQLiteJobRepo(tx)
		if err := jobs.DisableAllAutoTimers(ctx); err != nil {
			return err
		}
		err := jobs.SetAutoTimerEnabled(ctx, id, true)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("job %s: %w", id, autotimer.ErrJobNotFound)
		}
		return err
	})
}
