// Package store_test verifies the PostgreSQL adapter against a pgxmock
// connection injected through the store's dialer.
package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbird/connect/internal/store"
)

func newMockedStore(t *testing.T) (*store.PgStore, pgxmock.PgxConnIface, *int) {
	t.Helper()

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)

	dials := 0
	st := store.NewPgStoreWithDialer(func(ctx context.Context) (store.Conn, error) {
		dials++
		return mock, nil
	}, zerolog.Nop())

	return st, mock, &dials
}

func TestConnectIsIdempotent(t *testing.T) {
	st, mock, dials := newMockedStore(t)
	mock.ExpectPing()

	assert.True(t, st.Connect(context.Background()))
	assert.True(t, st.Connect(context.Background()), "second connect should be a no-op")
	assert.Equal(t, 1, *dials, "only the first connect should dial")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteDialsLazily(t *testing.T) {
	st, mock, dials := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectExec("DELETE FROM students WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	affected := st.Execute(context.Background(), "delete student", "DELETE FROM students WHERE id = $1", int64(7))

	assert.Equal(t, int64(1), affected)
	assert.Equal(t, 1, *dials, "first operation should open the connection")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteReportsFailureAsNegative(t *testing.T) {
	st, mock, _ := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectExec("DELETE FROM students").
		WithArgs(int64(7)).
		WillReturnError(errors.New("connection reset"))

	affected := st.Execute(context.Background(), "delete student", "DELETE FROM students WHERE id = $1", int64(7))

	assert.Equal(t, int64(-1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteFailsWhenDialerFails(t *testing.T) {
	st := store.NewPgStoreWithDialer(func(ctx context.Context) (store.Conn, error) {
		return nil, errors.New("no route to host")
	}, zerolog.Nop())

	affected := st.Execute(context.Background(), "delete student", "DELETE FROM students WHERE id = $1", int64(7))
	assert.Equal(t, int64(-1), affected)
}

func TestExecuteReturningScansGeneratedID(t *testing.T) {
	st, mock, _ := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectQuery("INSERT INTO students .+ RETURNING id").
		WithArgs("xavier").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	var id int64
	ok := st.ExecuteReturning(context.Background(), "insert student",
		"INSERT INTO students (username) VALUES ($1) RETURNING id", []any{"xavier"}, &id)

	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryRowMissingRowIsNotAnError(t *testing.T) {
	st, mock, _ := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectQuery("SELECT name FROM students").
		WithArgs(int64(1)).
		WillReturnError(pgx.ErrNoRows)

	var name string
	ok := st.QueryRow(context.Background(), "SELECT name FROM students WHERE id = $1", []any{int64(1)}, &name)

	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryHandsRowsToScanFunc(t *testing.T) {
	st, mock, _ := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectQuery("SELECT id, name FROM tags").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "robotics").
			AddRow(int64(2), "chess"))

	var names []string
	ok := st.Query(context.Background(), "SELECT id, name FROM tags", nil, func(rows store.Rows) error {
		for rows.Next() {
			var id int64
			var name string
			if err := rows.Scan(&id, &name); err != nil {
				return err
			}
			names = append(names, name)
		}
		return nil
	})

	assert.True(t, ok)
	assert.Equal(t, []string{"robotics", "chess"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	st, mock, _ := newMockedStore(t)
	mock.ExpectPing()
	mock.ExpectClose()

	require.True(t, st.Connect(context.Background()))
	assert.True(t, st.Disconnect(context.Background()))
	assert.True(t, st.Disconnect(context.Background()), "second disconnect should be a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}
