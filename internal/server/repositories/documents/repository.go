// Package documents declares the repository contract for the schemaless
// document store.
package documents

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Repository stores JSON documents grouped in collections.
//
// readAs restricts reads to documents whose permissions contain the given
// principal; an empty readAs reads everything.
type Repository interface {
	// Create stores doc, which must carry an ID, and fills its timestamps.
	Create(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, collection, id, readAs string) (*models.Document, error)
	// Update merges patch (a JSON object) into the stored data.
	Update(ctx context.Context, collection, id string, patch json.RawMessage) (*models.Document, error)
	Delete(ctx context.Context, collection, id string) error
	// List returns the documents matching qs and the total number of matches
	// ignoring limit and offset.
	List(ctx context.Context, collection, readAs string, qs []query.Query) ([]models.Document, int, error)
}
