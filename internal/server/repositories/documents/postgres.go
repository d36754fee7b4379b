package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/dbx"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = `id, uuid, user_id, storage_key, file_name, size_bytes, created_at`

func scan(row interface{ Scan(...any) error }) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(&d.ID, &d.UUID, &d.UserID, &d.StorageKey, &d.FileName, &d.SizeBytes, &d.CreatedAt)
	return d, err
}

func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query :=
		`INSERT INTO documents (uuid, user_id, storage_key, file_name, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, doc.UUID, doc.UserID, doc.StorageKey, doc.FileName, doc.SizeBytes).
		Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc, nil
}

func (r *PostgresRepository) GetByUUID(ctx context.Context, uuid, userID string) (*models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE uuid = $1 AND user_id = $2`

	d, err := scan(r.db.QueryRowContext(ctx, query, uuid, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*models.Document{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, uuid, userID string) (*models.Document, error) {
	query := `DELETE FROM documents WHERE uuid = $1 AND user_id = $2 RETURNING ` + columns

	d, err := scan(r.db.QueryRowContext(ctx, query, uuid, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}
