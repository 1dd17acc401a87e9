package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/alexanderramin/jobclock/internal/service"
)

// resolveJob finds a job by ID, ID prefix or case-insensitive name.
func resolveJob(ctx context.Context, app *App, ref string) (*domain.Job, error) {
	j, err := app.Jobs.Resolve(ctx, ref)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("no job matches %q (see `jobclock job list`)", ref)
	case errors.Is(err, service.ErrAmbiguousJob):
		return nil, fmt.Errorf("%q matches more than one job, use the ID", ref)
	case err != nil:
		return nil, err
	}
	return j, nil
}
