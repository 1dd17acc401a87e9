// Package autotimer turns a stream of location fixes into work sessions.
//
// The Engine owns the AutoTimer state machine for the single monitored job.
// Samples, timer fires, ticks and user commands are all funnelled through
// one mutex so state is only ever mutated by one caller at a time.
// Persistence happens inside that critical section; notifications and the
// live-status surface are handed to an EffectRunner after it is released.
package autotimer

import (
	"context"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// Timer is a cancellable pending callback.
type Timer = interface{ Stop() bool }

// Clock abstracts time so tests can drive the hysteresis delays.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// JobStore is the engine's read view of job configuration plus the one
// mutation it may issue: flipping AutoTimer ownership.
type JobStore interface {
	// GetJob returns ErrJobNotFound for unknown ids.
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	ListJobs(ctx context.Context) ([]*domain.Job, error)
	SetAutoTimerEnabled(ctx context.Context, id string, enabled bool) error
	// SwitchAutoTimer disables every other job and enables id in one step.
	SwitchAutoTimer(ctx context.Context, id string) error
}

// SessionStore persists the single active session and the work-day records
// it is finalized into. Lookups return nil, nil when nothing matches.
type SessionStore interface {
	GetActiveSession(ctx context.Context) (*domain.ActiveSession, error)
	SaveActiveSession(ctx context.Context, s *domain.ActiveSession) error
	ClearActiveSession(ctx context.Context) error
	AddWorkDay(ctx context.Context, w *domain.WorkDay) error
	UpdateWorkDay(ctx context.Context, w *domain.WorkDay) error
	FindWorkDay(ctx context.Context, date, jobID string) (*domain.WorkDay, error)
	GetWorkDays(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error)
}

// TxSessionStore is a SessionStore that can group writes atomically.
type TxSessionStore interface {
	SessionStore
	WithinTx(ctx context.Context, fn func(ctx context.Context, store SessionStore) error) error
}

// SnapshotStore keeps the engine state across restarts. Load returns
// nil, nil when no snapshot was saved.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, s *Snapshot) error
}

// Notifier dispatches a user-facing notification. Best effort.
type Notifier interface {
	Send(ctx context.Context, kind domain.NotificationKind, jobName string, params map[string]any) error
}

// LiveStatus drives the out-of-app elapsed-time surface. Best effort.
type LiveStatus interface {
	Start(ctx context.Context, jobName, address string, startTime time.Time) error
	End(ctx context.Context, elapsedSeconds int) error
}

// Sample is one location fix.
type Sample struct {
	Coordinate     domain.Coordinate
	AccuracyMeters float64
	Origin         domain.SampleOrigin
	At             time.Time
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, domain.NotificationKind, string, map[string]any) error {
	return nil
}

type nopLiveStatus struct{}

func (nopLiveStatus) Start(context.Context, string, string, time.Time) error { return nil }
func (nopLiveStatus) End(context.Context, int) error                         { return nil }
