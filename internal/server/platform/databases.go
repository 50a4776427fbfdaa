package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/documents"
)

// DocumentList is one page of a listing plus the total number of matches.
type DocumentList struct {
	Total     int
	Documents []models.Document
}

// Databases is the document store as seen by one principal. A zero readAs
// sees and modifies everything; otherwise only documents whose permissions
// name readAs are visible, and only those can be changed.
type Databases struct {
	repo   documents.Repository
	readAs string
}

func NewDatabases(repo documents.Repository) *Databases {
	return &Databases{repo: repo}
}

// As returns a view restricted to principal.
func (d *Databases) As(principal string) *Databases {
	return &Databases{repo: d.repo, readAs: principal}
}

// ReadAs reports the principal of this view, empty for full access.
func (d *Databases) ReadAs() string { return d.readAs }

// CreateDocument stores data (any JSON object value) under id.
func (d *Databases) CreateDocument(ctx context.Context, collection, id string, data any, permissions []string) (*models.Document, error) {
	if d.readAs != "" && !slices.Contains(permissions, d.readAs) {
		return nil, common.ErrorForbidden
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	doc := &models.Document{ID: id, Collection: collection, Data: raw, Permissions: permissions}
	if err := d.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Databases) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	return d.repo.Get(ctx, collection, id, d.readAs)
}

// UpdateDocument merges the top-level keys of patch into the document.
func (d *Databases) UpdateDocument(ctx context.Context, collection, id string, patch any) (*models.Document, error) {
	if err := d.check(ctx, collection, id); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return d.repo.Update(ctx, collection, id, raw)
}

func (d *Databases) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := d.check(ctx, collection, id); err != nil {
		return err
	}
	return d.repo.Delete(ctx, collection, id)
}

func (d *Databases) ListDocuments(ctx context.Context, collection string, qs ...query.Query) (*DocumentList, error) {
	docs, total, err := d.repo.List(ctx, collection, d.readAs, qs)
	if err != nil {
		return nil, err
	}
	return &DocumentList{Total: total, Documents: docs}, nil
}

func (d *Databases) check(ctx context.Context, collection, id string) error {
	if d.readAs == "" {
		return nil
	}
	_, err := d.repo.Get(ctx, collection, id, d.readAs)
	return err
}
