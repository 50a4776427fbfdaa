// Package backend builds connections to the platform: an admin client with
// full privilege, and session clients scoped to the user named by the
// request's session cookie.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/retryx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
)

// Cookies is the request/response cookie jar of the caller.
type Cookies interface {
	// Get returns the value of the named cookie or an error if it is absent.
	Get(name string) (string, error)
	Set(c *http.Cookie)
	Delete(name string)
}

// Client is one connection to the platform. Storage is nil on session
// clients.
type Client struct {
	Account   *Account
	Databases *platform.Databases
	Storage   *platform.Storage
	Avatars   platform.Avatars
	URLs      platform.URLs
}

// Account exposes the account capabilities. Session-bound methods fail with
// common.ErrNoSession on the admin client.
type Account struct {
	svc     *platform.AccountService
	session *models.Session
}

func (a *Account) CreateEmailToken(ctx context.Context, email string) (string, error) {
	return a.svc.CreateEmailToken(ctx, email)
}

func (a *Account) CreateSession(ctx context.Context, accountID, secret string) (*platform.SessionInfo, error) {
	return a.svc.CreateSession(ctx, accountID, secret)
}

// Get returns the account of the current session.
func (a *Account) Get(ctx context.Context) (*models.Account, error) {
	if a.session == nil {
		return nil, common.ErrNoSession
	}
	return a.svc.Get(ctx, a.session.AccountID)
}

// Session returns the current session, nil on the admin client.
func (a *Account) Session() *models.Session {
	return a.session
}

// DeleteSession ends the current session.
func (a *Account) DeleteSession(ctx context.Context) error {
	if a.session == nil {
		return common.ErrNoSession
	}
	return a.svc.DeleteSession(ctx, a.session.ID)
}

// Factory hands out clients. It holds no per-request state.
type Factory struct {
	accounts       *platform.AccountService
	databases      *platform.Databases
	storage        *platform.Storage
	avatars        platform.Avatars
	urls           platform.URLs
	cookieAttempts int
	logger         logging.Logger
}

func NewFactory(accounts *platform.AccountService, databases *platform.Databases, storage *platform.Storage,
	avatars platform.Avatars, urls platform.URLs, cookieAttempts int, logger logging.Logger) *Factory {
	return &Factory{
		accounts:       accounts,
		databases:      databases,
		storage:        storage,
		avatars:        avatars,
		urls:           urls,
		cookieAttempts: cookieAttempts,
		logger:         logger.With("module", "backend"),
	}
}

// Admin returns the privileged client.
func (f *Factory) Admin() *Client {
	return &Client{
		Account:   &Account{svc: f.accounts},
		Databases: f.databases,
		Storage:   f.storage,
		Avatars:   f.avatars,
		URLs:      f.urls,
	}
}

var errNoCookie = errors.New("session cookie not set")

// Session reads the session cookie, retrying immediately up to the configured
// number of attempts, and returns a client scoped to that session. A missing,
// invalid or expired secret wraps common.ErrNoSession; storage failures are
// returned as they are.
func (f *Factory) Session(ctx context.Context, cookies Cookies) (*Client, error) {
	var secret string

	err := retryx.Do(ctx, retryx.Policy{
		Attempts: f.cookieAttempts,
		OnRetry: func(attempt int, err error) {
			f.logger.Debug(ctx, "failed to get session info, trying again", "attempt", attempt, "error", err)
		},
	}, func(ctx context.Context, _ int) error {
		v, err := cookies.Get(common.SessionCookieName)
		if err != nil {
			return err
		}
		if v == "" {
			return errNoCookie
		}
		secret = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNoSession, err)
	}

	session, err := f.accounts.Authenticate(ctx, secret)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", common.ErrNoSession, err)
		}
		return nil, fmt.Errorf("error authenticating session: %w", err)
	}

	return &Client{
		Account:   &Account{svc: f.accounts, session: session},
		Databases: f.databases.As(platform.Principal(session.AccountID)),
		Avatars:   f.avatars,
		URLs:      f.urls,
	}, nil
}
