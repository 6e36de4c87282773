package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"activity-points/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	db, err := Connect("sqlite", ":memory:")
	require.NoError(t, err)
	s, err := NewSQL(db)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "sqlite", s.Driver)
	runCollectionSuite(t, s)
}

func newPostgresMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS records").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := NewSQL(sqlx.NewDb(mockDB, "postgres"))
	require.NoError(t, err)
	return s, mock
}

const ledgerJSON = `{"userId":"demo","total":1500,"donated":250,"utilized":700,"available":550,"history":[]}`

func TestPostgresGet(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()
	getQuery := regexp.QuoteMeta(`SELECT data FROM records WHERE kind = $1 AND id = $2`)

	mock.ExpectQuery(getQuery).
		WithArgs(KindLedgers, "demo").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(ledgerJSON)))
	l, ok, err := s.Ledgers.Get(ctx, "demo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 550, l.Available)

	mock.ExpectQuery(getQuery).
		WithArgs(KindLedgers, "nobody").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	_, ok, err = s.Ledgers.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(getQuery).
		WithArgs(KindLedgers, "demo").
		WillReturnError(errors.New("connection refused"))
	_, _, err = s.Ledgers.Get(ctx, "demo")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateLocksRow(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()
	lockQuery := regexp.QuoteMeta(`SELECT data FROM records WHERE kind = $1 AND id = $2 FOR UPDATE`)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs(KindLedgers, "demo").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(ledgerJSON)))
	mock.ExpectExec("INSERT INTO records").
		WithArgs(KindLedgers, "demo", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	l, err := s.Ledgers.Update(ctx, "demo", func(cur models.Ledger, exists bool) (models.Ledger, error) {
		require.True(t, exists)
		cur.Available -= 50
		cur.Donated += 50
		return cur, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 500, l.Available)
	assert.True(t, l.Balanced())

	errInsufficient := errors.New("insufficient")
	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).
		WithArgs(KindLedgers, "demo").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(ledgerJSON)))
	mock.ExpectRollback()

	_, err = s.Ledgers.Update(ctx, "demo", func(cur models.Ledger, exists bool) (models.Ledger, error) {
		return cur, errInsufficient
	})
	assert.ErrorIs(t, err, errInsufficient)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListQuery(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT data FROM records WHERE kind = $1 AND (data->>'type' = $2) AND (LOWER(data->>'name') LIKE $3 ESCAPE '\' OR LOWER(data->>'description') LIKE $4 ESCAPE '\') ORDER BY data->'date', seq LIMIT $5 OFFSET $6`,
	)).
		WithArgs(KindActivities, "fitness", "%yoga%", "%yoga%", 5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(`{"id":"a","name":"Yoga"}`))

	q := Query{}.
		Match(Eq("type", "fitness")).
		Match(Contains("name", "Yoga"), Contains("description", "Yoga")).
		Sort("date", false).
		Page(5, 0)
	list, err := s.Activities.List(ctx, q)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT data FROM records WHERE kind = $1 AND ((data->'participants') @> CAST($2 AS jsonb)) ORDER BY seq`,
	)).
		WithArgs(KindActivities, `["u1"]`).
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	list, err = s.Activities.List(ctx, Query{}.Match(Has("participants", "u1")))
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteReportsExistence(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()
	del := regexp.QuoteMeta(`DELETE FROM records WHERE kind = $1 AND id = $2`)

	mock.ExpectExec(del).WithArgs(KindUsers, "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(del).WithArgs(KindUsers, "u2").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.Users.Delete(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Users.Delete(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
