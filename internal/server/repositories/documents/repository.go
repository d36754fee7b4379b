// Package documents stores metadata of uploaded PDFs. The bytes live in
// the blob store under StorageKey.
package documents

import (
	"context"

	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

// Repository is scoped by owner: a document owned by another user behaves
// exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)

	// GetByUUID returns common.ErrorNotFound unless userID owns the document.
	GetByUUID(ctx context.Context, uuid, userID string) (*models.Document, error)

	// ListByUser returns the user's documents, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Document, error)

	// Delete removes the document and, through the foreign key, its
	// highlights. It returns the deleted row so the blob can be removed.
	Delete(ctx context.Context, uuid, userID string) (*models.Document, error)
}
