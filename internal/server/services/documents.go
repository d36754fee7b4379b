package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo"
	"github.com/al0nec0der/MarkPDF/internal/server/blobstore"
	"github.com/al0nec0der/MarkPDF/internal/server/config"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/repomanager"
)

const pdfContentType = "application/pdf"

// pageCountCacheSize bounds the page counts kept in memory.
var pageCountCacheSize = 1024

// DocumentView is a document as returned to its owner.
type DocumentView struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	SizeBytes int64     `json:"sizeBytes"`
	PageCount int       `json:"pageCount,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewOf(d *models.Document) DocumentView {
	return DocumentView{ID: d.UUID, FileName: d.FileName, SizeBytes: d.SizeBytes, CreatedAt: d.CreatedAt}
}

type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	maxUpload   int64
	logger      logging.Logger

	// Page counts are not persisted. Stored blobs never change, so counts
	// are cached by storage key and a miss inspects the blob.
	pageCounts *lru.Cache[string, int]
	inspect    singleflight.Group
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, cfg *config.Config, logger logging.Logger) *DocumentService {
	pageCounts, err := lru.New[string, int](pageCountCacheSize)
	if err != nil {
		panic(err)
	}
	return &DocumentService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		maxUpload:   cfg.MaxUploadBytes,
		logger:      logger.With("module", "documents"),
		pageCounts:  pageCounts,
	}
}

// Upload validates r as a PDF, stores it and records its metadata.
func (s *DocumentService) Upload(ctx context.Context, userID, fileName string, r io.Reader) (*DocumentView, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, fmt.Errorf("%w: limit is %d bytes", common.ErrTooLarge, s.maxUpload)
	}

	info, err := pdfinfo.InspectBytes(data)
	if err != nil {
		return nil, err
	}

	key := blobstore.NewStorageKey()
	if err := s.blobs.Put(ctx, key, bytes.NewReader(data), int64(len(data)), pdfContentType); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		UUID:       uuid.NewString(),
		UserID:     userID,
		StorageKey: key,
		FileName:   fileName,
		SizeBytes:  int64(len(data)),
	})
	if err != nil {
		if derr := s.blobs.Delete(ctx, key); derr != nil {
			s.logger.Warn(ctx, "orphaned blob", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	s.pageCounts.Add(key, info.PageCount)
	s.logger.Info(ctx, "document uploaded", "id", doc.UUID, "pages", info.PageCount, "size", doc.SizeBytes)

	v := viewOf(doc)
	v.PageCount = info.PageCount
	return &v, nil
}

// Get returns the document with its page count and a presigned download URL.
func (s *DocumentService) Get(ctx context.Context, userID, id string) (*DocumentView, error) {
	doc, err := s.find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.PresignGet(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	v := viewOf(doc)
	v.URL = url
	v.PageCount = s.pageCount(ctx, doc)
	return &v, nil
}

// List returns the user's documents, newest first. The result is never nil.
func (s *DocumentService) List(ctx context.Context, userID string) ([]DocumentView, error) {
	docs, err := s.repomanager.Documents(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}
	out := make([]DocumentView, 0, len(docs))
	for _, d := range docs {
		out = append(out, viewOf(d))
	}
	return out, nil
}

// Delete removes the document and its highlights. A blob that cannot be
// removed is logged and left behind.
func (s *DocumentService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrDocumentNotFound
	}
	doc, err := s.repomanager.Documents(s.db).Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrDocumentNotFound
		}
		return fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}

	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn(ctx, "orphaned blob", "key", doc.StorageKey, "error", err)
	}
	s.pageCounts.Remove(doc.StorageKey)
	return nil
}

// LookupDocument resolves a document for the highlight normalizer. The page
// count is zero when it is unknown.
func (s *DocumentService) LookupDocument(ctx context.Context, documentRef, userRef string) (highlight.DocumentInfo, error) {
	doc, err := s.find(ctx, userRef, documentRef)
	if err != nil {
		return highlight.DocumentInfo{}, err
	}
	return highlight.DocumentInfo{Ref: doc.UUID, PageCount: s.pageCount(ctx, doc)}, nil
}

func (s *DocumentService) find(ctx context.Context, userID, id string) (*models.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrDocumentNotFound
	}
	doc, err := s.repomanager.Documents(s.db).GetByUUID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("%w: %w", common.ErrPersistenceUnavailable, err)
	}
	return doc, nil
}

// pageCount returns the document's page count, or zero when the blob
// cannot be inspected. Concurrent misses for one blob share a single read.
func (s *DocumentService) pageCount(ctx context.Context, doc *models.Document) int {
	if n, ok := s.pageCounts.Get(doc.StorageKey); ok {
		return n
	}

	v, err, _ := s.inspect.Do(doc.StorageKey, func() (any, error) {
		n, err := s.inspectBlob(ctx, doc.StorageKey)
		if err != nil {
			return 0, err
		}
		s.pageCounts.Add(doc.StorageKey, n)
		return n, nil
	})
	if err != nil {
		s.logger.Warn(ctx, "page count unavailable", "id", doc.UUID, "error", err)
		return 0
	}
	return v.(int)
}

func (s *DocumentService) inspectBlob(ctx context.Context, key string) (int, error) {
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.maxUpload+1))
	if err != nil {
		return 0, err
	}
	info, err := pdfinfo.InspectBytes(data)
	if err != nil {
		return 0, err
	}
	return info.PageCount, nil
}
