package autotimer

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/google/uuid"
)

// FinalizeResult describes the work-day record a session was folded into.
type FinalizeResult struct {
	WorkDay        *domain.WorkDay
	Merged         bool
	ElapsedSeconds int
	Hours          float64
}

// Finalizer turns an ended session into a work-day record and clears it.
type Finalizer struct {
	store SessionStore
}

func NewFinalizer(store SessionStore) *Finalizer {
	return &Finalizer{store: store}
}

// Finalize records s as ending at end. A record already present for the
// same date and job absorbs the new hours instead of gaining a sibling.
// With a TxSessionStore the lookup, write and clear share one transaction.
func (f *Finalizer) Finalize(ctx context.Context, s *domain.ActiveSession, end time.Time) (*FinalizeResult, error) {
	var res *FinalizeResult
	run := func(ctx context.Context, store SessionStore) error {
		r, err := finalizeWith(ctx, store, s, end)
		if err != nil {
			return err
		}
		res = r
		return nil
	}

	var err error
	if tx, ok := f.store.(TxSessionStore); ok {
		err = tx.WithinTx(ctx, run)
	} else {
		err = run(ctx, f.store)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func finalizeWith(ctx context.Context, store SessionStore, s *domain.ActiveSession, end time.Time) (*FinalizeResult, error) {
	wd := domain.NewWorkDayFromSession(s, end)
	res := &FinalizeResult{ElapsedSeconds: s.Elapsed(end), Hours: wd.Hours}

	existing, err := store.FindWorkDay(ctx, wd.Date, wd.JobID)
	if err != nil {
		return nil, fmt.Errorf("looking up work day: %w", err)
	}

	now := end.UTC()
	if existing != nil {
		merged := wd.MergeInto(existing)
		merged.UpdatedAt = now
		if err := store.UpdateWorkDay(ctx, merged); err != nil {
			return nil, fmt.Errorf("merging work day: %w", err)
		}
		res.WorkDay = merged
		res.Merged = true
	} else {
		wd.ID = uuid.New().String()
		wd.CreatedAt = now
		wd.UpdatedAt = now
		if err := store.AddWorkDay(ctx, wd); err != nil {
			return nil, fmt.Errorf("adding work day: %w", err)
		}
		res.WorkDay = wd
	}

	if err := store.ClearActiveSession(ctx); err != nil {
		return nil, fmt.Errorf("clearing active session: %w", err)
	}
	return res, nil
}
