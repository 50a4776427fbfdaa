package backend

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/inmemory"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type mapCookies struct {
	values map[string]string
	reads  int
}

func (c *mapCookies) Get(name string) (string, error) {
	c.reads++
	v, ok := c.values[name]
	if !ok {
		return "", http.ErrNoCookie
	}
	return v, nil
}

func (c *mapCookies) Set(ck *http.Cookie) { c.values[ck.Name] = ck.Value }
func (c *mapCookies) Delete(name string)  { delete(c.values, name) }

// flakyCookies fails the first n reads.
type flakyCookies struct {
	mapCookies
	failures int
}

func (c *flakyCookies) Get(name string) (string, error) {
	if c.failures > 0 {
		c.failures--
		c.reads++
		return "", errors.New("cookie store busy")
	}
	return c.mapCookies.Get(name)
}

type captureMailer struct {
	mu   sync.Mutex
	body string
}

func (m *captureMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.body = body
	return nil
}

var codePattern = regexp.MustCompile(`code is (\d{6})`)

func newFactory(t *testing.T) (*Factory, *captureMailer) {
	t.Helper()
	return newFactoryWith(t, inmemory.NewRepositoryManager())
}

func newFactoryWith(t *testing.T, repos repomanager.RepositoryManager) (*Factory, *captureMailer) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.RetryDelay = time.Millisecond

	logger := logging.NewText(io.Discard, "error")
	mailer := &captureMailer{}
	accounts := platform.NewAccountService(db, repos, mailer, cfg, logger)
	databases := platform.NewDatabases(repos.Documents(db))
	storage := platform.NewStorage(nil, nil, cfg.S3Bucket)

	return NewFactory(accounts, databases, storage, platform.Avatars{Endpoint: cfg.PublicEndpoint},
		platform.URLs{Endpoint: cfg.PublicEndpoint, Bucket: cfg.S3Bucket, Project: cfg.ProjectID},
		cfg.CookieAttempts, logger), mailer
}

func signIn(t *testing.T, f *Factory, m *captureMailer, email string) *platform.SessionInfo {
	t.Helper()
	ctx := context.Background()
	admin := f.Admin()
	accountID, err := admin.Account.CreateEmailToken(ctx, email)
	require.NoError(t, err)
	match := codePattern.FindStringSubmatch(m.body)
	require.Len(t, match, 2)
	info, err := admin.Account.CreateSession(ctx, accountID, match[1])
	require.NoError(t, err)
	return info
}

func TestFactory_Admin(t *testing.T) {
	f, _ := newFactory(t)
	admin := f.Admin()

	assert.NotNil(t, admin.Storage)
	assert.Empty(t, admin.Databases.ReadAs())

	_, err := admin.Account.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.ErrorIs(t, admin.Account.DeleteSession(context.Background()), common.ErrNoSession)
	assert.Nil(t, admin.Account.Session())
}

func TestFactory_Session(t *testing.T) {
	ctx := context.Background()
	f, m := newFactory(t)
	info := signIn(t, f, m, "alice@example.com")

	cookies := &mapCookies{values: map[string]string{common.SessionCookieName: info.Secret}}
	client, err := f.Session(ctx, cookies)
	require.NoError(t, err)

	assert.Nil(t, client.Storage)
	assert.Equal(t, platform.Principal(info.AccountID), client.Databases.ReadAs())
	assert.Equal(t, 1, cookies.reads)

	account, err := client.Account.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)

	require.NoError(t, client.Account.DeleteSession(ctx))
	_, err = f.Session(ctx, cookies)
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestFactory_Session_NoCookie(t *testing.T) {
	f, _ := newFactory(t)
	cookies := &mapCookies{values: map[string]string{}}

	_, err := f.Session(context.Background(), cookies)
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.Equal(t, 10, cookies.reads)
}

func TestFactory_Session_RetriesCookieRead(t *testing.T) {
	f, m := newFactory(t)
	info := signIn(t, f, m, "bob@example.com")

	cookies := &flakyCookies{
		mapCookies: mapCookies{values: map[string]string{common.SessionCookieName: info.Secret}},
		failures:   3,
	}
	client, err := f.Session(context.Background(), cookies)
	require.NoError(t, err)
	assert.Equal(t, info.ID, client.Account.Session().ID)
	assert.Equal(t, 4, cookies.reads)
}

func TestFactory_Session_InvalidSecret(t *testing.T) {
	f, _ := newFactory(t)
	cookies := &mapCookies{values: map[string]string{common.SessionCookieName: "garbage"}}

	_, err := f.Session(context.Background(), cookies)
	assert.ErrorIs(t, err, common.ErrNoSession)
	assert.Equal(t, 1, cookies.reads)
}

// downRepos fails session lookups while down is set.
type downRepos struct {
	*inmemory.RepositoryManager
	down bool
}

func (m *downRepos) Sessions(db dbx.DBTX) sessions.Repository {
	return &downSessions{Repository: m.RepositoryManager.Sessions(db), m: m}
}

type downSessions struct {
	sessions.Repository
	m *downRepos
}

func (r *downSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	if r.m.down {
		return nil, errors.New("db error: connection refused")
	}
	return r.Repository.Get(ctx, id)
}

func TestFactory_Session_StorageFailureIsNotNoSession(t *testing.T) {
	repos := &downRepos{RepositoryManager: inmemory.NewRepositoryManager()}
	f, m := newFactoryWith(t, repos)
	info := signIn(t, f, m, "carol@example.com")
	cookies := &mapCookies{values: map[string]string{common.SessionCookieName: info.Secret}}

	repos.down = true
	_, err := f.Session(context.Background(), cookies)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNoSession)
	assert.Contains(t, err.Error(), "connection refused")
}
