package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, collection, data, permissions, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) error {
	if _, err := uuid.Parse(doc.ID); err != nil {
		return fmt.Errorf("%w: document id %q", common.ErrInvalidInput, doc.ID)
	}

	data := doc.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	perms, err := json.Marshal(nonNil(doc.Permissions))
	if err != nil {
		return err
	}

	query :=
		`INSERT INTO documents (id, collection, data, permissions)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query, doc.ID, doc.Collection, string(data), string(perms)).
		Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	doc.Data = data
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id, readAs string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	q := `SELECT ` + columns + ` FROM documents WHERE collection = $1 AND id = $2`
	args := []any{collection, id}
	if readAs != "" {
		q += ` AND permissions @> $3::jsonb`
		args = append(args, jsonArray(readAs))
	}

	return scanOne(r.db.QueryRowContext(ctx, q, args...))
}

func (r *PostgresRepository) Update(ctx context.Context, collection, id string, patch json.RawMessage) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query :=
		`UPDATE documents SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2
		 RETURNING ` + columns

	return scanOne(r.db.QueryRowContext(ctx, query, collection, id, string(patch)))
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, collection, readAs string, qs []query.Query) ([]models.Document, int, error) {
	c, err := compile(collection, readAs, qs)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+c.where, c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	q := `SELECT ` + columns + ` FROM documents WHERE ` + c.where + ` ORDER BY ` + c.order
	if c.limit >= 0 {
		q += ` LIMIT ` + strconv.Itoa(c.limit)
	}
	if c.offset > 0 {
		q += ` OFFSET ` + strconv.Itoa(c.offset)
	}

	rows, err := r.db.QueryContext(ctx, q, c.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return docs, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Document, error) {
	d := &models.Document{}
	var data, perms []byte
	if err := s.Scan(&d.ID, &d.Collection, &data, &perms, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Data = json.RawMessage(data)
	if err := json.Unmarshal(perms, &d.Permissions); err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}
	return d, nil
}

func scanOne(row *sql.Row) (*models.Document, error) {
	d, err := scan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
