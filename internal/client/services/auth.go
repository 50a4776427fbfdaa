// Package services contains application services for the GophDrive CLI.
// This file defines the authentication service: passcode sign-up and
// sign-in, session persistence in the local state database, and sign-out.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - SignUp / SignIn: ask the server to email a passcode; return the account id.
//   - Verify: exchange the passcode for a session and persist it locally.
//   - Restore: reuse a persisted session, dropping it when the server rejects it.
//   - SignOut: end the session on the server (best effort) and forget it locally.
type AuthService interface {
	SignUp(ctx context.Context, fullName, email string) (string, error)
	SignIn(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, accountID, passcode string) (*models.User, error)
	Restore(ctx context.Context) (*models.User, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	logger logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// state database.
func NewAuthService(c client.Client, db *sql.DB, logger logging.Logger) AuthService {
	return &authService{client: c, db: db, logger: logger.With("module", "auth")}
}

func (a *authService) getMetadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *authService) SignUp(ctx context.Context, fullName, email string) (string, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "", fmt.Errorf("%w: full name is required", client.ErrInvalidInput)
	}
	return a.client.SignUp(ctx, fullName, normalize(email))
}

func (a *authService) SignIn(ctx context.Context, email string) (string, error) {
	return a.client.SignIn(ctx, normalize(email))
}

// Verify checks the passcode and saves the session secret and email in one
// transaction.
func (a *authService) Verify(ctx context.Context, email, accountID, passcode string) (*models.User, error) {
	secret, err := a.client.Verify(ctx, accountID, strings.TrimSpace(passcode))
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getMetadataRepo(tx)
		if err := repo.Set(ctx, metadata.KeySession, secret); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeyEmail, normalize(email))
	})
	if err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}

	return a.client.Me(ctx)
}

// Restore returns the user of the saved session, or nil when there is none
// or the server no longer accepts it.
func (a *authService) Restore(ctx context.Context) (*models.User, error) {
	repo := a.getMetadataRepo(a.db)

	secret, ok, err := repo.Get(ctx, metadata.KeySession)
	if err != nil {
		return nil, err
	}
	if !ok || secret == "" {
		return nil, nil
	}

	a.client.SetSession(secret)
	user, err := a.client.Me(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		a.logger.Info(ctx, "saved session rejected, signing out locally")
		a.client.SetSession("")
		return nil, repo.Clear(ctx)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SignOut always clears local state; the server error, if any, is returned
// after that.
func (a *authService) SignOut(ctx context.Context) error {
	serverErr := a.client.SignOut(ctx)
	if serverErr != nil {
		a.logger.Warn(ctx, "server sign-out failed", "error", serverErr)
	}
	if err := a.getMetadataRepo(a.db).Clear(ctx); err != nil {
		return err
	}
	return serverErr
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
