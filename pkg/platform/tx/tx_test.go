package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestRunCommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE documents").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := Run(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		inCtx, ok := From(ctx)
		require.True(t, ok)
		assert.Same(t, tx, inCtx)
		_, err := tx.ExecContext(ctx, "UPDATE documents SET title = 'x'")
		return err
	})
	require.NoError(t, err)
}

func TestRunRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := Run(context.Background(), db, func(context.Context, *sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRunJoinsExistingTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	outer, err := db.Begin()
	require.NoError(t, err)
	ctx := WithTx(context.Background(), outer)

	err = Run(ctx, db, func(_ context.Context, tx *sql.Tx) error {
		assert.Same(t, outer, tx)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, outer.Commit())
}

func TestWithNilTxLeavesContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithTx(ctx, nil))
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestBeginFailure(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connections"))

	err := Run(context.Background(), db, func(context.Context, *sql.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorContains(t, err, "begin tx")
}
