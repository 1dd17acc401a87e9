package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/importer"
	"github.com/alexanderramin/jobclock/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	modes    ModeService
	observer UseCaseObserver
}

// NewImportService persists import files in a single transaction: either
// every job and work day lands or nothing does.
func NewImportService(uow db.UnitOfWork, modes ModeService, observers ...UseCaseObserver) ImportService {
	return &importService{uow: uow, modes: modes, observer: useCaseObserverOrNoop(observers)}
}

func (s *importService) ImportJobs(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportJobsFromSchema(ctx, schema)
}

func (s *importService) ImportJobsFromSchema(ctx context.Context, schema *importer.ImportSchema) (res *ImportResult, err error) {
	startedAt := time.Now()
	defer func() {
		fields := map[string]any{"jobs": len(schema.Jobs), "work_days": len(schema.WorkDays)}
		observe(ctx, s.observer, "import-jobs", startedAt, err, fields)
	}()

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	imported := importer.Convert(schema)

	mode := domain.ModeForegroundOnly
	if s.modes != nil {
		if settings, err := s.modes.GetSettings(ctx); err == nil {
			mode = settings.Mode
		}
	}

	res, err = db.InTx(ctx, s.uow, func(ctx context.Context, tx db.DBTX) (*ImportResult, error) {
		out := &ImportResult{Jobs: imported.Jobs}
		jobs := repository.NewSQLiteJobRepo(tx)
		workDays := repository.NewSQLiteWorkDayRepo(tx)

		existing, err := jobs.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing jobs: %w", err)
		}
		taken := make(map[string]bool, len(existing))
		for _, j := range existing {
			taken[strings.ToLower(j.Name)] = true
		}

		for _, j := range imported.Jobs {
			if taken[strings.ToLower(j.Name)] {
				return nil, fmt.Errorf("a job named %q already exists", j.Name)
			}
			j.AutoTimer = j.AutoTimer.Normalize(mode)
			if err := jobs.Create(ctx, j); err != nil {
				return nil, fmt.Errorf("creating job %q: %w", j.Name, err)
			}
		}

		for _, w := range imported.WorkDays {
			prior, err := workDays.FindByDateAndJob(ctx, w.Date, w.JobID)
			switch {
			case err == nil:
				if err := workDays.Update(ctx, w.MergeInto(prior)); err != nil {
					return nil, fmt.Errorf("merging work day %s: %w", w.Date, err)
				}
				out.MergedWorkDays++
			case errors.Is(err, repository.ErrNotFound):
				if err := workDays.Create(ctx, w); err != nil {
					return nil, fmt.Errorf("creating work day %s: %w", w.Date, err)
				}
			default:
				return nil, fmt.Errorf("looking up work day %s: %w", w.Date, err)
			}
			out.WorkDayCount++
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
