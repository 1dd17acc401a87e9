package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const putRecord = `INSERT INTO records (key, value, updated_at) VALUES (?, ?, '2025-06-16T08:00:00Z')`

func recordValue(t *testing.T, conn db.DBTX, key string) (string, bool) {
	t.Helper()
	var v string
	err := conn.QueryRowContext(context.Background(), `SELECT value FROM records WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", false
	}
	return v, true
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	conn := testutil.NewTestDB(t)
	uow := db.NewSQLiteUnitOfWork(conn)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, putRecord, "k1", `{"a":1}`)
		return err
	})
	require.NoError(t, err)

	v, ok := recordValue(t, conn, "k1")
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, v)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	conn := testutil.NewTestDB(t)
	uow := db.NewSQLiteUnitOfWork(conn)
	boom := errors.New("deliberate failure")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, putRecord, "k2", `{}`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := recordValue(t, conn, "k2")
	assert.False(t, ok, "row should not exist after rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	conn := testutil.NewTestDB(t)
	uow := db.NewSQLiteUnitOfWork(conn)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_, _ = tx.ExecContext(ctx, putRecord, "k3", `{}`)
			panic("boom")
		})
	})

	_, ok := recordValue(t, conn, "k3")
	assert.False(t, ok, "row should not exist after panic rollback")
}

func TestInTx_ReturnsValueOnlyOnCommit(t *testing.T) {
	conn := testutil.NewTestDB(t)
	ctx := context.Background()

	n, err := db.InTx(ctx, db.NewSQLiteUnitOfWork(conn), func(ctx context.Context, tx db.DBTX) (int, error) {
		res, err := tx.ExecContext(ctx, putRecord, "k4", `{}`)
		if err != nil {
			return 0, err
		}
		rows, err := res.RowsAffected()
		return int(rows), err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	boom := errors.New("disk full")
	failing := &testutil.FailOnNthExecUoW{DB: conn, FailOn: 2, Err: boom}
	n, err = db.InTx(ctx, failing, func(ctx context.Context, tx db.DBTX) (int, error) {
		for _, k := range []string{"k5", "k6"} {
			if _, err := tx.ExecContext(ctx, putRecord, k, `{}`); err != nil {
				return 1, err
			}
		}
		return 2, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Zero(t, n)
	_, ok := recordValue(t, conn, "k5")
	assert.False(t, ok, "first write is rolled back with the second")
}

func TestOpenDB_SecondHandleSeesCommittedRows(t *testing.T) {
	first, path := testutil.NewFileTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.NewSQLiteUnitOfWork(first).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, putRecord, db.ActiveSessionKey, `{"jobId":"j1"}`)
		return err
	}))

	second, err := db.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	// Reopening runs the migrations again, which backfill the session source.
	v, ok := recordValue(t, second, db.ActiveSessionKey)
	assert.True(t, ok)
	assert.JSONEq(t, `{"jobId":"j1","source":"manual"}`, v)

	var mode string
	require.NoError(t, second.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpenDB_PragmasApplyToEveryConnection(t *testing.T) {
	conn, _ := testutil.NewFileTestDB(t)
	ctx := context.Background()

	// Hold two connections at once so the pool must open a second one.
	c1, err := conn.Conn(ctx)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := conn.Conn(ctx)
	require.NoError(t, err)
	defer c2.Close()

	for _, c := range []*sql.Conn{c1, c2} {
		var fk, timeout int
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		assert.Equal(t, 1, fk)
		assert.Equal(t, db.BusyTimeoutMillis, timeout)
	}
}
