package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/jobclock/internal/db"
)

// FailOnNthExecUoW runs each transaction against DB but returns Err from
// the FailOn-th write, counted from 1. When Match is set only writes whose
// SQL contains Match are counted, so a test can target "DELETE FROM records"
// without knowing how many inserts come first. Reads are never counted.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Match  string
	Err    error

	// Calls counts transactions started, including failed ones.
	Calls atomic.Int32
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn db.TxFunc) error {
	u.Calls.Add(1)
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	w := &failingExec{DBTX: tx, failOn: u.FailOn, match: u.Match, err: u.Err}
	if err := fn(ctx, w); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type failingExec struct {
	db.DBTX
	seen   atomic.Int32
	failOn int32
	match  string
	err    error
}

func (f *failingExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.match == "" || strings.Contains(query, f.match) {
		if f.seen.Add(1) == f.failOn {
			return nil, f.err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
