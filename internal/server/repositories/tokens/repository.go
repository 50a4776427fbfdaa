// Package tokens declares the repository contract for emailed passcode
// tokens.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Repository stores hashed passcodes. An account has at most one live token
// in practice; callers replace older ones with DeleteByAccount.
type Repository interface {
	// Create stores t and fills its ID and CreatedAt.
	Create(ctx context.Context, t *models.Token) error
	// FindLatest returns the newest token of the account, or common.ErrorNotFound.
	FindLatest(ctx context.Context, accountID string) (*models.Token, error)
	// ClaimAttempt counts one verification attempt and returns the new count.
	// It fails with common.ErrorNotFound when the token is gone or has
	// already used limit attempts, so the count never exceeds limit.
	ClaimAttempt(ctx context.Context, id string, limit int) (int, error)
	// Consume deletes the token, or fails with common.ErrorNotFound when
	// another caller consumed it first.
	Consume(ctx context.Context, id string) error
	// DeleteByAccount removes every token of the account.
	DeleteByAccount(ctx context.Context, accountID string) error
}
