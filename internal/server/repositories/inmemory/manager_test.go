package inmemory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*RepositoryManager)(nil)

func TestAccountsTokensSessions(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager()

	a1, err := m.Accounts(nil).GetOrCreate(ctx, "a@x.com")
	require.NoError(t, err)
	a2, err := m.Accounts(nil).GetOrCreate(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, a1.ID, a2.ID)

	_, err = m.Accounts(nil).GetByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	tok := &models.Token{AccountID: a1.ID, ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, m.Tokens(nil).Create(ctx, tok))
	n, err := m.Tokens(nil).ClaimAttempt(ctx, tok.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = m.Tokens(nil).ClaimAttempt(ctx, tok.ID, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound, "limit reached")

	latest, err := m.Tokens(nil).FindLatest(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Attempts)

	require.NoError(t, m.Tokens(nil).Consume(ctx, tok.ID))
	assert.ErrorIs(t, m.Tokens(nil).Consume(ctx, tok.ID), common.ErrorNotFound)

	require.NoError(t, m.Tokens(nil).Create(ctx, &models.Token{AccountID: a1.ID}))
	require.NoError(t, m.Tokens(nil).DeleteByAccount(ctx, a1.ID))
	_, err = m.Tokens(nil).FindLatest(ctx, a1.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	s, err := m.Sessions(nil).Create(ctx, a1.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, m.Sessions(nil).Delete(ctx, s.ID))
	assert.ErrorIs(t, m.Sessions(nil).Delete(ctx, s.ID), common.ErrorNotFound)
}

func seed(t *testing.T, m *RepositoryManager, data string, perms ...string) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, m.Documents(nil).Create(context.Background(), &models.Document{
		ID: id, Collection: "files", Data: json.RawMessage(data), Permissions: perms,
	}))
	return id
}

func TestDocuments_ListFilters(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager()
	repo := m.Documents(nil)

	seed(t, m, `{"name":"Report.pdf","owner":"u1","type":"document","size":30,"users":[]}`, "user:a1")
	seed(t, m, `{"name":"cat.png","owner":"u2","type":"image","size":10,"users":["me@x.com"]}`, "user:a2")
	seed(t, m, `{"name":"dog.png","owner":"u2","type":"image","size":20,"users":[]}`, "user:a2")

	mine := query.Or(query.Equal("owner", "u1"), query.Contains("users", "me@x.com"))

	docs, total, err := repo.List(ctx, "files", "", []query.Query{mine, query.OrderAsc("size")})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, docs, 2)
	assert.Contains(t, string(docs[0].Data), "cat.png")
	assert.Contains(t, string(docs[1].Data), "Report.pdf")

	docs, _, err = repo.List(ctx, "files", "", []query.Query{mine, query.Search("name", "REPORT")})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	docs, total, err = repo.List(ctx, "files", "", []query.Query{query.Equal("type", "image"), query.OrderDesc("size"), query.Limit(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, docs, 1)
	assert.Contains(t, string(docs[0].Data), "dog.png")

	docs, _, err = repo.List(ctx, "files", "user:a1", nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, total, err = repo.List(ctx, "files", "", []query.Query{query.Offset(10)})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, docs)

	_, _, err = repo.List(ctx, "files", "", []query.Query{query.Contains(query.AttrID, "x")})
	assert.ErrorIs(t, err, common.ErrInvalidQuery)
}

func TestDocuments_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewRepositoryManager()
	repo := m.Documents(nil)

	id := seed(t, m, `{"name":"a.txt","size":1}`, "user:a1")

	_, err := repo.Get(ctx, "files", id, "user:other")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	doc, err := repo.Update(ctx, "files", id, json.RawMessage(`{"name":"b.txt"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"b.txt","size":1}`, string(doc.Data))

	require.NoError(t, repo.Delete(ctx, "files", id))
	assert.ErrorIs(t, repo.Delete(ctx, "files", id), common.ErrorNotFound)

	err = repo.Create(ctx, &models.Document{ID: "not-a-uuid", Collection: "files"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
