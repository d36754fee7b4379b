package session

import (
	"context"
	"errors"
	"sync"

	"github.com/al0nec0der/MarkPDF/internal/client/api"
	"github.com/al0nec0der/MarkPDF/internal/client/render"
	"github.com/al0nec0der/MarkPDF/internal/geometry"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo"
)

var errBoom = errors.New("boom")

type fakeBackend struct {
	mu sync.Mutex

	getDocument    func(ctx context.Context, id string) (*api.Document, error)
	listHighlights func(ctx context.Context, id string) ([]highlight.Formatted, error)
	create         func(ctx context.Context, id string, p highlight.Payload) (*highlight.Formatted, error)

	listCalls int
	created   []highlight.Payload
}

func newFakeBackend() *fakeBackend {
	b := &fakeBackend{}
	b.getDocument = func(_ context.Context, id string) (*api.Document, error) {
		return &api.Document{ID: id, FileName: id + ".pdf", URL: "http://blob/" + id}, nil
	}
	b.listHighlights = func(context.Context, string) ([]highlight.Formatted, error) {
		return []highlight.Formatted{}, nil
	}
	b.create = func(_ context.Context, _ string, p highlight.Payload) (*highlight.Formatted, error) {
		h := highlight.Formatted{ID: "new", Content: p.Content, Position: p.Position}
		if p.Comment != nil {
			h.Comment.Text = p.Comment.Text
		}
		return &h, nil
	}
	return b
}

func (b *fakeBackend) GetDocument(ctx context.Context, id string) (*api.Document, error) {
	return b.getDocument(ctx, id)
}

func (b *fakeBackend) ListHighlights(ctx context.Context, id string) ([]highlight.Formatted, error) {
	b.mu.Lock()
	b.listCalls++
	b.mu.Unlock()
	return b.listHighlights(ctx, id)
}

func (b *fakeBackend) CreateHighlight(ctx context.Context, id string, p highlight.Payload) (*highlight.Formatted, error) {
	b.mu.Lock()
	b.created = append(b.created, p)
	b.mu.Unlock()
	return b.create(ctx, id, p)
}

func (b *fakeBackend) calls() (list, create int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listCalls, len(b.created)
}

type fakeRenderer struct {
	mu    sync.Mutex
	err   error
	pages int
	urls  []string
}

func (r *fakeRenderer) Load(_ context.Context, url string) (*render.Layout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
	if r.err != nil {
		return nil, r.err
	}
	n := r.pages
	if n == 0 {
		n = 2
	}
	info := &pdfinfo.Info{PageCount: n}
	for i := 0; i < n; i++ {
		info.Pages = append(info.Pages, pdfinfo.PageSize{Width: 612, Height: 792})
	}
	return render.NewLayout(info), nil
}

func (r *fakeRenderer) loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.urls)
}

func box(x1, y1, x2, y2 float64) geometry.Rect {
	return geometry.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2, Width: x2 - x1, Height: y2 - y1}
}

func stored(id string, page int, text, comment string, r geometry.Rect) highlight.Formatted {
	return highlight.Formatted{
		ID:       id,
		Content:  highlight.Content{Text: text},
		Position: highlight.Position{BoundingRect: r, Rects: []geometry.Rect{}, PageNumber: page},
		Comment:  highlight.FormattedComment{Text: comment},
	}
}
