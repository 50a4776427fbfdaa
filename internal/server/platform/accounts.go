package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/cryptox"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/retryx"
	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
)

// PasscodeDigits is the length of emailed passcodes.
const PasscodeDigits = 6

const mailAttempts = 3

// SessionInfo is a freshly created session together with its secret.
type SessionInfo struct {
	ID        string
	AccountID string
	Secret    string
	ExpiresAt time.Time
}

// AccountService issues emailed passcodes and exchanges them for sessions.
type AccountService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	mailer           Mailer
	logger           logging.Logger
	secretKey        []byte
	sessionValidity  time.Duration
	passcodeValidity time.Duration
	maxAttempts      int
	retryDelay       time.Duration
	now              func() time.Time
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, mailer Mailer, cfg *config.Config, logger logging.Logger) *AccountService {
	return &AccountService{
		db:               db,
		repomanager:      m,
		mailer:           mailer,
		logger:           logger.With("module", "platform.accounts"),
		secretKey:        []byte(cfg.SecretKey),
		sessionValidity:  cfg.SessionValidity,
		passcodeValidity: cfg.PasscodeValidity,
		maxAttempts:      cfg.MaxPasscodeAttempts,
		retryDelay:       cfg.RetryDelay,
		now:              time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email %q", common.ErrInvalidInput, email)
	}
	return email, nil
}

// CreateEmailToken finds or creates the account of email, replaces its
// pending passcode with a new one and mails it. It returns the account ID.
func (s *AccountService) CreateEmailToken(ctx context.Context, email string) (string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return "", err
	}

	account, err := s.repomanager.Accounts(s.db).GetOrCreate(ctx, email)
	if err != nil {
		return "", fmt.Errorf("error creating account: %w", err)
	}

	code, err := cryptox.GeneratePasscode(PasscodeDigits)
	if err != nil {
		return "", err
	}
	salt := cryptox.NewSalt()
	token := &models.Token{
		AccountID: account.ID,
		Hash:      cryptox.HashSecret([]byte(code), salt),
		Salt:      salt,
		ExpiresAt: s.now().Add(s.passcodeValidity),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tokens(tx)
		if err := repo.DeleteByAccount(ctx, account.ID); err != nil {
			return err
		}
		return repo.Create(ctx, token)
	})
	if err != nil {
		return "", fmt.Errorf("error storing passcode: %w", err)
	}

	subject := "Your verification code"
	body := fmt.Sprintf("Your verification code is %s.\r\nIt expires in %s.\r\n", code, s.passcodeValidity)

	err = retryx.Do(ctx, retryx.Policy{
		Attempts: mailAttempts,
		Delay:    s.retryDelay,
		OnRetry: func(attempt int, err error) {
			s.logger.Warn(ctx, "passcode delivery failed, retrying", "attempt", attempt, "error", err)
		},
	}, func(ctx context.Context, _ int) error {
		return s.mailer.Send(ctx, email, subject, body)
	})
	if err != nil {
		return "", fmt.Errorf("error sending passcode: %w", err)
	}

	return account.ID, nil
}

// CreateSession checks code against the account's pending passcode and, on
// success, consumes it and opens a session.
func (s *AccountService) CreateSession(ctx context.Context, accountID, code string) (*SessionInfo, error) {
	tokens := s.repomanager.Tokens(s.db)

	token, err := tokens.FindLatest(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPasscodeInvalid
		}
		return nil, fmt.Errorf("error loading passcode: %w", err)
	}

	if s.now().After(token.ExpiresAt) {
		s.discardTokens(ctx, accountID)
		return nil, common.ErrPasscodeExpired
	}

	// The attempt is counted before the code is checked, so concurrent
	// guesses cannot get past the limit.
	if _, err := tokens.ClaimAttempt(ctx, token.ID, s.maxAttempts); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.discardTokens(ctx, accountID)
			return nil, common.ErrPasscodeInvalid
		}
		return nil, fmt.Errorf("error counting passcode attempt: %w", err)
	}
	if !cryptox.VerifySecret([]byte(code), token.Salt, token.Hash) {
		return nil, common.ErrPasscodeInvalid
	}

	var session *models.Session
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Tokens(tx)
		if err := repo.Consume(ctx, token.ID); err != nil {
			return err
		}
		if err := repo.DeleteByAccount(ctx, accountID); err != nil {
			return err
		}
		var err error
		session, err = s.repomanager.Sessions(tx).Create(ctx, accountID, s.now().Add(s.sessionValidity))
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrPasscodeInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	secret, err := auth.GenerateToken(session.ID, accountID, s.secretKey, s.sessionValidity)
	if err != nil {
		return nil, fmt.Errorf("error signing session: %w", err)
	}

	return &SessionInfo{ID: session.ID, AccountID: accountID, Secret: secret, ExpiresAt: session.ExpiresAt}, nil
}

// discardTokens drops the pending passcodes of an account that can no longer
// be used. Failure only leaves a dead token behind.
func (s *AccountService) discardTokens(ctx context.Context, accountID string) {
	if err := s.repomanager.Tokens(s.db).DeleteByAccount(ctx, accountID); err != nil {
		s.logger.Error(ctx, "error discarding passcode", "account", accountID, "error", err)
	}
}

// Authenticate resolves a session secret to a live session.
func (s *AccountService) Authenticate(ctx context.Context, secret string) (*models.Session, error) {
	claims, err := auth.ParseToken(secret, s.secretKey)
	if err != nil {
		return nil, err
	}

	session, err := s.repomanager.Sessions(s.db).Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error loading session: %w", err)
	}
	if session.AccountID != claims.AccountID {
		return nil, common.ErrInvalidToken
	}
	if s.now().After(session.ExpiresAt) {
		return nil, common.ErrTokenExpired
	}
	return session, nil
}

// Get returns the account by ID.
func (s *AccountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, accountID)
}

// DeleteSession ends a session. Unknown sessions yield common.ErrorNotFound.
func (s *AccountService) DeleteSession(ctx context.Context, sessionID string) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, sessionID)
}
