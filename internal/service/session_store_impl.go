package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
)

// SessionStore backs the engine's session, work-day and snapshot
// persistence with the SQLite repositories.
type SessionStore struct {
	conn db.DBTX
	uow  db.UnitOfWork
}

var (
	_ autotimer.TxSessionStore = (*SessionStore)(nil)
	_ autotimer.SnapshotStore  = (*SessionStore)(nil)
)

// NewSessionStore builds a store on conn. uow may be nil, in which case
// WithinTx runs without a transaction.
func NewSessionStore(conn db.DBTX, uow db.UnitOfWork) *SessionStore {
	return &SessionStore{conn: conn, uow: uow}
}

func (s *SessionStore) active() *repository.SQLiteRecordRepo[domain.ActiveSession] {
	return repository.NewSQLiteRecordRepo[domain.ActiveSession](s.conn, repository.KeyActiveSession)
}

func (s *SessionStore) workDays() *repository.SQLiteWorkDayRepo {
	return repository.NewSQLiteWorkDayRepo(s.conn)
}

func (s *SessionStore) GetActiveSession(ctx context.Context) (*domain.ActiveSession, error) {
	sess, err := s.active().Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return sess, err
}

func (s *SessionStore) SaveActiveSession(ctx context.Context, sess *domain.ActiveSession) error {
	return s.active().Put(ctx, sess)
}

func (s *SessionStore) ClearActiveSession(ctx context.Context) error {
	return s.active().Delete(ctx)
}

func (s *SessionStore) AddWorkDay(ctx context.Context, w *domain.WorkDay) error {
	return s.workDays().Create(ctx, w)
}

func (s *SessionStore) UpdateWorkDay(ctx context.Context, w *domain.WorkDay) error {
	return s.workDays().Update(ctx, w)
}

func (s *SessionStore) FindWorkDay(ctx context.Context, date, jobID string) (*domain.WorkDay, error) {
	w, err := s.workDays().FindByDateAndJob(ctx, date, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return w, err
}

func (s *SessionStore) GetWorkDays(ctx context.Context, days int, jobID string) ([]*domain.WorkDay, error) {
	return s.workDays().ListRecent(ctx, days, jobID)
}

// WithinTx hands fn a store bound to one transaction.
func (s *SessionStore) WithinTx(ctx context.Context, fn func(ctx context.Context, store autotimer.SessionStore) error) error {
	if s.uow == nil {
		return fn(ctx, s)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &SessionStore{conn: tx})
	})
}

func (s *SessionStore) LoadSnapshot(ctx context.Context) (*autotimer.Snapshot, error) {
	snap, err := repository.NewSQLiteRecordRepo[autotimer.Snapshot](s.conn, repository.KeyEngineSnapshot).Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return snap, err
}

func (s *SessionStore) SaveSnapshot(ctx context.Context, snap *autotimer.Snapshot) error {
	return repository.NewSQLiteRecordRepo[autotimer.Snapshot](s.conn, repository.KeyEngineSnapshot).Put(ctx, snap)
}
