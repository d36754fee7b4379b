package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/dbx"
	"github.com/al0nec0der/MarkPDF/internal/server/models"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/documents"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/highlights"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/refreshtokens"
	"github.com/al0nec0der/MarkPDF/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- users ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	err    error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.byName == nil {
		f.byName = map[string]*models.User{}
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = "user-" + u.UserName
	u.CreatedAt = time.Now()
	f.byName[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct {
	mu        sync.Mutex
	tokens    map[string]*models.RefreshToken
	createErr error
	findErr   error
	delErr    error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.tokens == nil {
		f.tokens = map[string]*models.RefreshToken{}
	}
	f.tokens[t.Token] = t
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return t, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.tokens, token)
	return nil
}

// --- documents ---

type fakeDocsRepo struct {
	mu     sync.Mutex
	docs   map[string]*models.Document
	nextID int64
	err    error
}

func (f *fakeDocsRepo) add(d *models.Document) *models.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs == nil {
		f.docs = map[string]*models.Document{}
	}
	f.nextID++
	d.ID = f.nextID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.nextID) * time.Minute)
	}
	f.docs[d.UUID] = d
	return d
}

func (f *fakeDocsRepo) Create(ctx context.Context, d *models.Document) (*models.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.add(d), nil
}

func (f *fakeDocsRepo) GetByUUID(ctx context.Context, id, userID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[id]
	if !ok || d.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return d, nil
}

func (f *fakeDocsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []*models.Document{}
	for _, d := range f.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeDocsRepo) Delete(ctx context.Context, id, userID string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.docs[id]
	if !ok || d.UserID != userID {
		return nil, common.ErrorNotFound
	}
	delete(f.docs, id)
	return d, nil
}

// --- highlights ---

// fakeHighlightsRepo keeps rows in memory. With leak set, listing ignores
// the user filter so the service's own filtering can be observed.
type fakeHighlightsRepo struct {
	mu        sync.Mutex
	docs      *fakeDocsRepo
	rows      []*models.Highlight
	locks     []int64
	leak      bool
	lockErr   error
	insertErr error
	listErr   error
}

func (f *fakeHighlightsRepo) LockScope(ctx context.Context, documentID int64, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		return f.lockErr
	}
	f.locks = append(f.locks, documentID)
	return nil
}

func (f *fakeHighlightsRepo) Insert(ctx context.Context, h *models.Highlight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *h
	cp.Position = append([]byte(nil), h.Position...)
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeHighlightsRepo) ListForDocument(ctx context.Context, documentUUID, userID string) ([]*models.Highlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var docID int64 = -1
	if f.docs != nil {
		f.docs.mu.Lock()
		if d, ok := f.docs.docs[documentUUID]; ok {
			docID = d.ID
		}
		f.docs.mu.Unlock()
	}
	out := []*models.Highlight{}
	for _, r := range f.rows {
		if r.DocumentID != docID {
			continue
		}
		if !f.leak && r.UserID != userID {
			continue
		}
		cp := *r
		cp.DocumentUUID = documentUUID
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// --- blobs ---

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	delErr  error
	presErr error
	gets    int
}

func (f *fakeBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = b
	return nil
}

func (f *fakeBlobs) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobs) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) PresignGet(ctx context.Context, key string) (string, error) {
	if f.presErr != nil {
		return "", f.presErr
	}
	return "https://blobs.local/" + key, nil
}

// --- manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	d *fakeDocsRepo
	h *fakeHighlightsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	d := &fakeDocsRepo{}
	return &fakeRepoManager{
		u: &fakeUsersRepo{},
		r: &fakeRefreshRepo{},
		d: d,
		h: &fakeHighlightsRepo{docs: d},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Documents(dbx.DBTX) documents.Repository         { return m.d }
func (m *fakeRepoManager) Highlights(dbx.DBTX) highlights.Repository       { return m.h }
