package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM cart_records WHERE name=$1`)).
		WithArgs("ravioliCart").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`[]`)))

	got, err := NewPostgresStore(mock).Get(context.Background(), "ravioliCart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT payload FROM cart_records`)).
		WithArgs("ravioliCart").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresStore(mock).Get(context.Background(), "ravioliCart")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Put(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cart_records(name, payload)`)).
		WithArgs("ravioliCart", []byte(`[1]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewPostgresStore(mock).Put(context.Background(), "ravioliCart", []byte(`[1]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgresStore(mock)
	del := regexp.QuoteMeta(`DELETE FROM cart_records WHERE name=$1`)

	mock.ExpectExec(del).WithArgs("ravioliCart").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(del).WithArgs("ravioliCart").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(del).WithArgs("ravioliCart").WillReturnError(errors.New("connection reset"))

	require.NoError(t, store.Delete(context.Background(), "ravioliCart"))
	require.ErrorIs(t, store.Delete(context.Background(), "ravioliCart"), ErrNotFound)
	require.EqualError(t, store.Delete(context.Background(), "ravioliCart"), "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}
