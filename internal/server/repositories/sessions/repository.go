// Package sessions declares the repository contract for platform sessions.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, accountID string, expiresAt time.Time) (*models.Session, error)
	// Get returns common.ErrorNotFound for unknown sessions.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Delete reports common.ErrorNotFound when nothing was removed.
	Delete(ctx context.Context, id string) error
}
