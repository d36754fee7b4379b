package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/dbx"
	"github.com/al0nec0der/MarkPDF/internal/geometry"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/repomanager"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// HighlightService persists normalized drafts and reads them back, always
// scoped to one user.
type HighlightService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	normalizer  *highlight.Normalizer
	logger      logging.Logger
}

func NewHighlightService(db *sql.DB, m repomanager.RepositoryManager, docs highlight.DocumentLookup, logger logging.Logger) *HighlightService {
	return &HighlightService{
		db:          db,
		repomanager: m,
		normalizer:  highlight.NewNormalizer(docs),
		logger:      logger.With("module", "highlights"),
	}
}

// Submit normalizes a raw payload and saves it. Degradations are returned
// alongside the stored highlight.
func (s *HighlightService) Submit(ctx context.Context, req highlight.Request) (*highlight.Highlight, []highlight.Degradation, error) {
	res, err := s.normalizer.Normalize(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range res.Degradations {
		s.logger.Warn(ctx, "geometry degraded", "field", d.Field, "reason", d.Reason)
	}

	h, err := s.Save(ctx, req.UserRef, &res.Draft)
	if err != nil {
		return nil, res.Degradations, err
	}
	return h, res.Degradations, nil
}

// Save stores d for userID, assigning its id and creation time. Concurrent
// saves for the same document and user are serialized.
func (s *HighlightService) Save(ctx context.Context, userID string, d *highlight.Draft) (*highlight.Highlight, error) {
	if _, err := uuid.Parse(d.DocumentRef); err != nil {
		return nil, common.ErrDocumentNotFound
	}

	h := &highlight.Highlight{
		ID:          uuid.NewString(),
		DocumentRef: d.DocumentRef,
		UserRef:     userID,
		PageNumber:  d.PageNumber,
		Position:    d.Position,
		Content:     d.Content,
		Comment:     d.Comment,
		CreatedAt:   nowUTC().Truncate(time.Microsecond),
	}
	h.Position.PageNumber = d.PageNumber
	if h.Position.Rects == nil {
		h.Position.Rects = []geometry.Rect{}
	}

	pos, err := json.Marshal(h.Position)
	if err != nil {
		return nil, fmt.Errorf("%w: encode position: %w", common.ErrPersistenceUnavailable, err)
	}

	row := &models.Highlight{
		ID:          h.ID,
		UserID:      userID,
		PageNumber:  h.PageNumber,
		Position:    pos,
		ContentText: h.Content.Text,
		ContentImage: sql.NullString{
			String: h.Content.Image,
			Valid:  h.Content.Image != "",
		},
		CommentText: h.Comment.Text,
		CreatedAt:   h.CreatedAt,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		doc, err := s.repomanager.Documents(tx).GetByUUID(ctx, d.DocumentRef, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrDocumentNotFound
			}
			return err
		}
		row.DocumentID = doc.ID

		repo := s.repomanager.Highlights(tx)
		if err := repo.LockScope(ctx, doc.ID, userID); err != nil {
			return err
		}
		return repo.Insert(ctx, row)
	})
	if err != nil {
		if errors.Is(err, common.ErrDocumentNotFound) {
			return nil, err
		}
		s.logger.Error(ctx, "save highlight", "document", d.DocumentRef, "error", err)
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	return h, nil
}

// ListForDocument returns the user's highlights on a document, newest
// first. Unknown documents yield an empty slice, never nil.
func (s *HighlightService) ListForDocument(ctx context.Context, documentRef, userID string) ([]highlight.Highlight, error) {
	out := []highlight.Highlight{}
	if _, err := uuid.Parse(documentRef); err != nil {
		return out, nil
	}

	rows, err := s.repomanager.Highlights(s.db).ListForDocument(ctx, documentRef, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	for _, r := range rows {
		if r.UserID != userID {
			continue
		}
		pos, notes := highlight.DecodeStoredPosition(r.Position, r.PageNumber)
		for _, n := range notes {
			s.logger.Warn(ctx, "stored geometry degraded", "id", r.ID, "field", n.Field, "reason", n.Reason)
		}
		out = append(out, highlight.Highlight{
			ID:          r.ID,
			DocumentRef: r.DocumentUUID,
			UserRef:     r.UserID,
			PageNumber:  r.PageNumber,
			Position:    pos,
			Content:     highlight.Content{Text: r.ContentText, Image: r.ContentImage.String},
			Comment:     highlight.Comment{Text: r.CommentText},
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return out, nil
}
