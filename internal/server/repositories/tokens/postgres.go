package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Token) error {
	query :=
		`INSERT INTO tokens (account_id, hash, salt, attempts, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, t.AccountID, t.Hash, t.Salt, t.Attempts, t.ExpiresAt).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindLatest(ctx context.Context, accountID string) (*models.Token, error) {
	query :=
		`SELECT id, account_id, hash, salt, attempts, expires_at, created_at
		 FROM tokens
		 WHERE account_id = $1
		 ORDER BY created_at DESC
		 LIMIT 1
		 `

	t := &models.Token{}
	err := r.db.QueryRowContext(ctx, query, accountID).
		Scan(&t.ID, &t.AccountID, &t.Hash, &t.Salt, &t.Attempts, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) ClaimAttempt(ctx context.Context, id string, limit int) (int, error) {
	query :=
		`UPDATE tokens SET attempts = attempts + 1
		 WHERE id = $1 AND attempts < $2
		 RETURNING attempts
		 `

	var attempts int
	err := r.db.QueryRowContext(ctx, query, id, limit).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, id string) error {
	var deleted string
	err := r.db.QueryRowContext(ctx, `DELETE FROM tokens WHERE id = $1 RETURNING id`, id).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE account_id = $1`, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
