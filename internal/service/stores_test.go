package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/alexanderramin/jobclock/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_EmptyReadsReturnNil(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSessionStore(database, testutil.NewTestUoW(database))
	ctx := context.Background()

	sess, err := store.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	wd, err := store.FindWorkDay(ctx, "2025-06-16", "missing")
	require.NoError(t, err)
	assert.Nil(t, wd)

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSessionStore_FinalizeMergesInTransaction(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSessionStore(database, testutil.NewTestUoW(database))
	ctx := context.Background()
	job := testutil.NewTestJob("Depot")
	require.NoError(t, repository.NewSQLiteJobRepo(database).Create(ctx, job))

	end := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	fin := autotimer.NewFinalizer(store)

	first := &domain.ActiveSession{JobID: job.ID, StartTime: end.Add(-3 * time.Hour), Source: domain.SourceAuto, Notes: domain.AutoStartedNote}
	require.NoError(t, store.SaveActiveSession(ctx, first))
	_, err := fin.Finalize(ctx, first, end)
	require.NoError(t, err)

	second := &domain.ActiveSession{JobID: job.ID, StartTime: end.Add(time.Hour), Source: domain.SourceManual}
	require.NoError(t, store.SaveActiveSession(ctx, second))
	res, err := fin.Finalize(ctx, second, end.Add(3*time.Hour))
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.InDelta(t, 5.0, res.WorkDay.Hours, 1e-9)

	sess, err := store.GetActiveSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	got, err := store.FindWorkDay(ctx, "2025-06-16", job.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "09:00", got.ActualStart)
	assert.Equal(t, "15:00", got.ActualEnd)
}

func TestSessionStore_FinalizeRollsBackWhenClearFails(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	job := testutil.NewTestJob("Depot")
	require.NoError(t, repository.NewSQLiteJobRepo(database).Create(ctx, job))

	boom := errors.New("io error")
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Match: "DELETE FROM records", Err: boom}
	store := NewSessionStore(database, uow)
	end := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	sess := &domain.ActiveSession{JobID: job.ID, StartTime: end.Add(-time.Hour), Source: domain.SourceAuto}
	require.NoError(t, store.SaveActiveSession(ctx, sess))

	_, err := autotimer.NewFinalizer(store).Finalize(ctx, sess, end)
	require.ErrorIs(t, err, boom)

	wd, err := store.FindWorkDay(ctx, "2025-06-16", job.ID)
	require.NoError(t, err)
	assert.Nil(t, wd, "work day insert is rolled back")

	still, err := store.GetActiveSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, still)
	assert.Equal(t, job.ID, still.JobID)
	assert.Equal(t, int32(1), uow.Calls.Load())
}

func TestSessionStore_SnapshotRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	store := NewSessionStore(database, nil)
	ctx := context.Background()
	deadline := time.Date(2025, 6, 16, 8, 4, 0, 0, time.UTC)

	require.NoError(t, store.SaveSnapshot(ctx, &autotimer.Snapshot{
		State: domain.StateEntering, JobID: "j1", PendingAction: "start", Deadline: deadline, TotalDelaySec: 120,
	}))
	got, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StateEntering, got.State)
	assert.True(t, deadline.Equal(got.Deadline))
	assert.Equal(t, 120, got.TotalDelaySec)
}

func TestJobStore_SwitchMovesOwnership(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	store := NewJobStore(database, testutil.NewTestUoW(database))
	repo := repository.NewSQLiteJobRepo(database)
	a := testutil.NewTestJob("A", testutil.WithAutoTimer())
	b := testutil.NewTestJob("B")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, store.SwitchAutoTimer(ctx, b.ID))

	owner, err := repo.Enabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, owner.ID)

	err = store.SwitchAutoTimer(ctx, "missing")
	assert.ErrorIs(t, err, autotimer.ErrJobNotFound)
	owner, err = repo.Enabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, owner.ID, "failed switch leaves the previous owner")
}

func TestJobStore_GetJobMapsNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	_, err := NewJobStore(database, nil).GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, autotimer.ErrJobNotFound)
}
