package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/al0nec0der/MarkPDF/internal/client/api"
	"github.com/al0nec0der/MarkPDF/internal/client/config"
	"github.com/al0nec0der/MarkPDF/internal/client/render"
	"github.com/al0nec0der/MarkPDF/internal/client/tokenstore"
	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo"
)

var errBoom = errors.New("boom")

type fakeBackend struct {
	mu sync.Mutex

	docs       map[string]api.Document
	highlights map[string][]highlight.Formatted
	uploads    map[string][]byte
	created    []highlight.Payload
	users      []string

	loginErr  error
	logoutErr error
	createErr error // fails the next create only
	getErr    error
	nextID    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		docs:       map[string]api.Document{},
		highlights: map[string][]highlight.Formatted{},
		uploads:    map[string][]byte{},
	}
}

func (f *fakeBackend) Register(_ context.Context, username, _ string) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, username)
	return &api.User{ID: "u-1", Username: username}, nil
}

func (f *fakeBackend) Login(_ context.Context, _, password string) (*api.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if password == "" {
		return nil, common.ErrorUnauthorized
	}
	return &api.TokenPair{AccessToken: "acc", RefreshToken: "ref"}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	return f.logoutErr
}

func (f *fakeBackend) UploadDocument(_ context.Context, name string, r io.Reader) (*api.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[name] = data
	d := api.Document{ID: "d-" + name, FileName: name, SizeBytes: int64(len(data)), PageCount: 2}
	f.docs[d.ID] = d
	return &d, nil
}

func (f *fakeBackend) ListDocuments(context.Context) ([]api.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Document, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeBackend) GetDocument(_ context.Context, id string) (*api.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, common.ErrDocumentNotFound
	}
	return &d, nil
}

func (f *fakeBackend) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return common.ErrDocumentNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeBackend) ListHighlights(_ context.Context, id string) ([]highlight.Formatted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]highlight.Formatted{}, f.highlights[id]...), nil
}

func (f *fakeBackend) CreateHighlight(_ context.Context, id string, p highlight.Payload) (*highlight.Formatted, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	if err := f.createErr; err != nil {
		f.createErr = nil
		return nil, err
	}
	f.nextID++
	h := highlight.Formatted{ID: fmt.Sprintf("h%d", f.nextID), Content: p.Content, Position: p.Position}
	if p.Comment != nil {
		h.Comment.Text = p.Comment.Text
	}
	f.highlights[id] = append([]highlight.Formatted{h}, f.highlights[id]...)
	return &h, nil
}

type fakeRenderer struct{}

func (fakeRenderer) Load(context.Context, string) (*render.Layout, error) {
	return render.NewLayout(&pdfinfo.Info{
		PageCount: 2,
		Pages:     []pdfinfo.PageSize{{Width: 612, Height: 792}, {Width: 612, Height: 792}},
	}), nil
}

func newTestApp(t *testing.T, b *fakeBackend, input string) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.toml")

	tokens, err := tokenstore.Open(cfg.SessionFile)
	require.NoError(t, err)

	var out bytes.Buffer
	return &App{
		config:   cfg,
		tokens:   tokens,
		backend:  b,
		renderer: fakeRenderer{},
		logger:   logging.Nop(),
		reader:   bufio.NewReader(strings.NewReader(input)),
		out:      &out,
	}, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	old := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = old })
	return &lines
}

var testTime = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
