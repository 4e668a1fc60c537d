package repository

import (
	"context"

	"docauth/internal/model"
)

// DocumentRepository defines data access for signed documents.
// No business logic here, strictly persistence operations. Records are append-only.
type DocumentRepository interface {
	// Create inserts a new document record. The ID must be unique; a duplicate
	// returns ErrConflict. Returns the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a page of documents in insertion order (oldest first) and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)
}
