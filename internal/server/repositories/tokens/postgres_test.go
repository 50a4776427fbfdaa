package tokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Minute)
	created := time.Now()

	q := `(?s)^INSERT\s+INTO\s+tokens\s*\(account_id,\s*hash,\s*salt,\s*attempts,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at$`
	mock.ExpectQuery(q).
		WithArgs("acc-1", []byte("h"), []byte("s"), 0, exp).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("tok-1", created))

	tok := &models.Token{AccountID: "acc-1", Hash: []byte("h"), Salt: []byte("s"), ExpiresAt: exp}
	require.NoError(t, repo.Create(context.Background(), tok))
	assert.Equal(t, "tok-1", tok.ID)
	assert.Equal(t, created, tok.CreatedAt)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+tokens`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Token{AccountID: "acc-1"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestFindLatest(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	exp := time.Now().Add(time.Minute)

	q := `(?s)^SELECT\s+id,\s*account_id,\s*hash,\s*salt,\s*attempts,\s*expires_at,\s*created_at\s+FROM\s+tokens\s+WHERE\s+account_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+1$`
	mock.ExpectQuery(q).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "hash", "salt", "attempts", "expires_at", "created_at"}).
			AddRow("tok-1", "acc-1", []byte("h"), []byte("s"), 2, exp, time.Now()))

	tok, err := repo.FindLatest(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.ID)
	assert.Equal(t, 2, tok.Attempts)
	assert.Equal(t, []byte("h"), tok.Hash)
}

func TestFindLatest_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+tokens`).WithArgs("acc-1").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindLatest(context.Background(), "acc-1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClaimAttempt(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	q := `(?s)^UPDATE\s+tokens\s+SET\s+attempts\s*=\s*attempts\s*\+\s*1\s+WHERE\s+id\s*=\s*\$1\s+AND\s+attempts\s*<\s*\$2\s+RETURNING\s+attempts$`
	mock.ExpectQuery(q).WithArgs("tok-1", 5).WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(3))

	n, err := repo.ClaimAttempt(context.Background(), "tok-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestClaimAttempt_LimitReached(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`UPDATE\s+tokens`).WithArgs("tok-1", 5).WillReturnError(sql.ErrNoRows)

	_, err := repo.ClaimAttempt(context.Background(), "tok-1", 5)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestConsume(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`^DELETE\s+FROM\s+tokens\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id$`).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("tok-1"))
	require.NoError(t, repo.Consume(context.Background(), "tok-1"))

	mock.ExpectQuery(`DELETE\s+FROM\s+tokens`).WithArgs("tok-1").WillReturnError(sql.ErrNoRows)
	assert.ErrorIs(t, repo.Consume(context.Background(), "tok-1"), common.ErrorNotFound)

	mock.ExpectQuery(`DELETE\s+FROM\s+tokens`).WithArgs("tok-2").WillReturnError(errors.New("boom"))
	err := repo.Consume(context.Background(), "tok-2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByAccount(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`^DELETE\s+FROM\s+tokens\s+WHERE\s+account_id\s*=\s*\$1$`).
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeleteByAccount(context.Background(), "acc-1"))

	mock.ExpectExec(`DELETE\s+FROM\s+tokens`).WithArgs("acc-2").WillReturnError(errors.New("boom"))
	err := repo.DeleteByAccount(context.Background(), "acc-2")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*boom`, err.Error())
}
