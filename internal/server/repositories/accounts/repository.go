// Package accounts declares the repository contract for platform accounts.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Repository stores accounts keyed by unique email.
type Repository interface {
	// GetOrCreate returns the account for email, creating it if absent.
	GetOrCreate(ctx context.Context, email string) (*models.Account, error)
	// GetByID returns common.ErrorNotFound when the account does not exist.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// GetByEmail returns common.ErrorNotFound when the account does not exist.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
