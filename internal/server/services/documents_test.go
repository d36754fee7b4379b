package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/logging"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo/pdftest"
	"github.com/al0nec0der/MarkPDF/internal/server/config"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
)

func newDocumentService(t *testing.T) (*DocumentService, *fakeRepoManager, *fakeBlobs) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	blobs := &fakeBlobs{}
	cfg := &config.Config{MaxUploadBytes: 1 << 20}
	return NewDocumentService(db, rm, blobs, cfg, logging.Nop()), rm, blobs
}

func TestUpload_StoresBlobAndMetadata(t *testing.T) {
	s, rm, blobs := newDocumentService(t)
	pdf := pdftest.Letter(3)

	v, err := s.Upload(context.Background(), "u1", "paper.pdf", bytes.NewReader(pdf))
	require.NoError(t, err)

	_, err = uuid.Parse(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", v.FileName)
	assert.Equal(t, int64(len(pdf)), v.SizeBytes)
	assert.Equal(t, 3, v.PageCount)

	doc := rm.d.docs[v.ID]
	require.NotNil(t, doc)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, pdf, blobs.objects[doc.StorageKey])
}

func TestUpload_Rejects(t *testing.T) {
	ctx := context.Background()

	t.Run("not a pdf", func(t *testing.T) {
		s, _, blobs := newDocumentService(t)
		_, err := s.Upload(ctx, "u1", "a.txt", strings.NewReader("hello"))
		assert.ErrorIs(t, err, common.ErrNotPDF)
		assert.Empty(t, blobs.objects)
	})

	t.Run("too large", func(t *testing.T) {
		s, _, _ := newDocumentService(t)
		s.maxUpload = 10
		_, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(1)))
		assert.ErrorIs(t, err, common.ErrTooLarge)
	})

	t.Run("blob store down", func(t *testing.T) {
		s, rm, blobs := newDocumentService(t)
		blobs.putErr = errBoom
		_, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(1)))
		assert.ErrorIs(t, err, common.ErrPersistenceUnavailable)
		assert.Empty(t, rm.d.docs)
	})

	t.Run("metadata insert fails removes blob", func(t *testing.T) {
		s, rm, blobs := newDocumentService(t)
		rm.d.err = errBoom
		_, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(1)))
		assert.ErrorIs(t, err, common.ErrPersistenceUnavailable)
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, blobs.objects)
	})
}

func TestGet_PresignsAndCountsPages(t *testing.T) {
	s, _, blobs := newDocumentService(t)
	ctx := context.Background()

	up, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(2)))
	require.NoError(t, err)

	v, err := s.Get(ctx, "u1", up.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v.PageCount)
	assert.True(t, strings.HasPrefix(v.URL, "https://blobs.local/documents/"))
	assert.Zero(t, blobs.gets, "page count is cached at upload")

	_, err = s.Get(ctx, "u2", up.ID)
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)

	_, err = s.Get(ctx, "u1", "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)
}

func TestGet_InspectsUncachedBlob(t *testing.T) {
	s, rm, blobs := newDocumentService(t)
	ctx := context.Background()

	id := uuid.NewString()
	rm.d.add(&models.Document{UUID: id, UserID: "u1", StorageKey: "k1", FileName: "old.pdf"})
	blobs.objects = map[string][]byte{"k1": pdftest.Letter(4)}

	v, err := s.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 4, v.PageCount)

	_, err = s.Get(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, 1, blobs.gets)
}

func TestPageCountCache_Bounded(t *testing.T) {
	orig := pageCountCacheSize
	pageCountCacheSize = 2
	t.Cleanup(func() { pageCountCacheSize = orig })

	s, _, blobs := newDocumentService(t)
	ctx := context.Background()

	first, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(1)))
	require.NoError(t, err)
	for _, n := range []int{2, 3} {
		_, err := s.Upload(ctx, "u1", "b.pdf", bytes.NewReader(pdftest.Letter(n)))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.pageCounts.Len())

	v, err := s.Get(ctx, "u1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.PageCount, "an evicted count is read back from the blob")
	assert.Equal(t, 1, blobs.gets)
	assert.Equal(t, 2, s.pageCounts.Len())
}

func TestLookupDocument(t *testing.T) {
	s, rm, blobs := newDocumentService(t)
	ctx := context.Background()

	id := uuid.NewString()
	rm.d.add(&models.Document{UUID: id, UserID: "u1", StorageKey: "k1"})
	blobs.getErr = errBoom

	info, err := s.LookupDocument(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, id, info.Ref)
	assert.Zero(t, info.PageCount, "unknown page count when the blob is unreadable")

	_, err = s.LookupDocument(ctx, id, "u2")
	assert.ErrorIs(t, err, common.ErrDocumentNotFound)

	rm.d.err = errBoom
	_, err = s.LookupDocument(ctx, id, "u1")
	assert.ErrorIs(t, err, common.ErrPersistenceUnavailable)
}

func TestListAndDelete(t *testing.T) {
	s, _, blobs := newDocumentService(t)
	ctx := context.Background()

	a, err := s.Upload(ctx, "u1", "a.pdf", bytes.NewReader(pdftest.Letter(1)))
	require.NoError(t, err)
	b, err := s.Upload(ctx, "u1", "b.pdf", bytes.NewReader(pdftest.Letter(1)))
	require.NoError(t, err)
	_, err = s.Upload(ctx, "u2", "c.pdf", bytes.NewReader(pdftest.Letter(1)))
	require.NoError(t, err)

	list, err := s.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.ErrorIs(t, s.Delete(ctx, "u2", a.ID), common.ErrDocumentNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "u1", "junk"), common.ErrDocumentNotFound)

	blobs.delErr = errBoom
	require.NoError(t, s.Delete(ctx, "u1", a.ID), "blob cleanup failures are logged only")
	blobs.delErr = nil
	require.NoError(t, s.Delete(ctx, "u1", b.ID))

	list, err = s.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Len(t, blobs.objects, 2)
}
