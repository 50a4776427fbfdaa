package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/backend"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/google/uuid"
)

// UserNotFound is the SignIn outcome for an unknown email.
const UserNotFound = "User not found"

// SignInResult is either the account to verify a passcode for, or a
// user-facing error when no user has that email.
type SignInResult struct {
	AccountID string `json:"accountId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UserService handles sign-up, sign-in with emailed passcodes, and sessions.
type UserService struct {
	clients           ClientFactory
	placeholderAvatar string
	logger            logging.Logger
}

func NewUserService(clients ClientFactory, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		clients:           clients,
		placeholderAvatar: cfg.PlaceholderAvatarURL,
		logger:            logger.With("module", "services.user"),
	}
}

// GetUserByEmail returns the user document for email, or nil if there is none.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email, err := platform.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	list, err := s.clients.Admin().Databases.ListDocuments(ctx, common.UsersCollection,
		query.Equal("email", email), query.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if list.Total == 0 || len(list.Documents) == 0 {
		return nil, nil
	}
	return decodeUser(&list.Documents[0])
}

// SendEmailOTP issues a passcode for email and returns the account it belongs to.
func (s *UserService) SendEmailOTP(ctx context.Context, email string) (string, error) {
	accountID, err := s.clients.Admin().Account.CreateEmailToken(ctx, email)
	if err != nil {
		s.logger.Error(ctx, "failed to send email OTP", "error", err)
		return "", fmt.Errorf("error sending passcode: %w", err)
	}
	return accountID, nil
}

// CreateAccount sends a passcode and, for a new email, records the user with
// the placeholder avatar. Nothing is written when the passcode cannot be sent.
func (s *UserService) CreateAccount(ctx context.Context, fullName, email string) (string, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	accountID, err := s.SendEmailOTP(ctx, email)
	if err != nil {
		return "", err
	}

	if existing != nil {
		return accountID, nil
	}

	normalized, _ := platform.NormalizeEmail(email)
	data := userData{
		FullName:  fullName,
		Email:     normalized,
		Avatar:    s.placeholderAvatar,
		AccountID: accountID,
	}
	_, err = s.clients.Admin().Databases.CreateDocument(ctx, common.UsersCollection, uuid.NewString(), data,
		[]string{platform.Principal(accountID)})
	if err != nil {
		s.logger.Error(ctx, "failed to create user", "error", err)
		return "", fmt.Errorf("error creating user: %w", err)
	}

	return accountID, nil
}

// SignIn resends a passcode to a known user. An unknown email is not an
// error: the result carries UserNotFound instead.
func (s *UserService) SignIn(ctx context.Context, email string) (*SignInResult, error) {
	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &SignInResult{Error: UserNotFound}, nil
	}

	if _, err := s.SendEmailOTP(ctx, email); err != nil {
		return nil, err
	}
	return &SignInResult{AccountID: existing.AccountID}, nil
}

// VerifyOTP exchanges a passcode for a session and stores its secret in the
// session cookie. It returns the session id.
func (s *UserService) VerifyOTP(ctx context.Context, cookies backend.Cookies, accountID, passcode string) (string, error) {
	info, err := s.clients.Admin().Account.CreateSession(ctx, accountID, passcode)
	if err != nil {
		s.logger.Error(ctx, "failed to verify OTP", "error", err)
		return "", err
	}

	cookies.Set(&http.Cookie{
		Name:     common.SessionCookieName,
		Value:    info.Secret,
		Path:     "/",
		Expires:  info.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	return info.ID, nil
}

// SignOut ends the current session. The cookie is cleared even when the
// session could not be deleted; that failure is still returned.
func (s *UserService) SignOut(ctx context.Context, cookies backend.Cookies) (err error) {
	defer cookies.Delete(common.SessionCookieName)

	client, err := s.clients.Session(ctx, cookies)
	if err != nil {
		s.logger.Warn(ctx, "sign out without session", "error", err)
		return err
	}
	if err := client.Account.DeleteSession(ctx); err != nil {
		s.logger.Error(ctx, "failed to delete session", "error", err)
		return err
	}
	return nil
}

// GetCurrentUser returns the user of the current session. No session and no
// user document both yield nil without an error.
func (s *UserService) GetCurrentUser(ctx context.Context, cookies backend.Cookies) (*models.User, error) {
	client, err := s.clients.Session(ctx, cookies)
	if err != nil {
		if errors.Is(err, common.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}

	account, err := client.Account.Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrNoSession) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	list, err := client.Databases.ListDocuments(ctx, common.UsersCollection,
		query.Equal("accountId", account.ID), query.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if len(list.Documents) == 0 {
		return nil, nil
	}
	return decodeUser(&list.Documents[0])
}

// RequireCurrentUser is GetCurrentUser for write paths: a missing user is
// common.ErrUserNotFound.
func (s *UserService) RequireCurrentUser(ctx context.Context, cookies backend.Cookies) (*models.User, error) {
	user, err := s.GetCurrentUser(ctx, cookies)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}
