package highlights

import (
	"context"
	"fmt"

	"github.com/al0nec0der/MarkPDF/internal/dbx"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LockScope(ctx context.Context, documentID int64, userID string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2, 0))`
	if _, err := r.db.ExecContext(ctx, query, documentID, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Insert(ctx context.Context, h *models.Highlight) error {
	query :=
		`INSERT INTO highlights (id, document_id, user_id, page_number, position, content_text, content_image, comment_text, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		h.ID, h.DocumentID, h.UserID, h.PageNumber, h.Position,
		h.ContentText, h.ContentImage, h.CommentText, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListForDocument(ctx context.Context, documentUUID, userID string) ([]*models.Highlight, error) {
	query :=
		`SELECT h.id, h.document_id, d.uuid, h.user_id, h.page_number, h.position,
		        h.content_text, h.content_image, h.comment_text, h.created_at
		 FROM highlights h
		 JOIN documents d ON d.id = h.document_id
		 WHERE d.uuid = $1 AND d.user_id = $2 AND h.user_id = $2
		 ORDER BY h.created_at DESC, h.id DESC`

	rows, err := r.db.QueryContext(ctx, query, documentUUID, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Highlight{}
	for rows.Next() {
		h := &models.Highlight{}
		if err := rows.Scan(&h.ID, &h.DocumentID, &h.DocumentUUID, &h.UserID, &h.PageNumber, &h.Position,
			&h.ContentText, &h.ContentImage, &h.CommentText, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
