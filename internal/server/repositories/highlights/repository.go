// Package highlights persists highlights. Every read is scoped by the
// owning user.
package highlights

import (
	"context"

	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

type Repository interface {
	// LockScope serializes writers for one (document, user) pair until the
	// surrounding transaction ends. It must run inside a transaction.
	LockScope(ctx context.Context, documentID int64, userID string) error

	Insert(ctx context.Context, h *models.Highlight) error

	// ListForDocument returns the user's highlights on the document with the
	// given external UUID, newest first. An unknown document yields an empty
	// slice.
	ListForDocument(ctx context.Context, documentUUID, userID string) ([]*models.Highlight, error)
}
