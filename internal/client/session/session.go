// Package session drives one viewer session: open a document, load its
// highlights, turn selections into drafts and save them. Every state change
// goes through the transition table in state.go.
//
// A Session is safe for concurrent use. Network calls run without the lock
// held; their results are applied only if the session still shows the
// document they were started for.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/al0nec0der/MarkPDF/internal/anchor"
	"github.com/al0nec0der/MarkPDF/internal/client/api"
	"github.com/al0nec0der/MarkPDF/internal/client/render"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
	"github.com/al0nec0der/MarkPDF/internal/logging"
)

var (
	// ErrSaveInFlight rejects a second save while one is running.
	ErrSaveInFlight = errors.New("a save is already in progress")
	// ErrNothingToRetry is returned by Retry when no save has failed.
	ErrNothingToRetry = errors.New("no failed save to retry")
	// ErrSuperseded is returned by an Open whose results were dropped
	// because another document was opened meanwhile.
	ErrSuperseded = errors.New("superseded by a newer open")
	// ErrNotReady is returned when no document is loaded.
	ErrNotReady = errors.New("no document loaded")
)

// Backend is the remote side of a session.
type Backend interface {
	GetDocument(ctx context.Context, id string) (*api.Document, error)
	ListHighlights(ctx context.Context, documentID string) ([]highlight.Formatted, error)
	CreateHighlight(ctx context.Context, documentID string, p highlight.Payload) (*highlight.Formatted, error)
}

// Renderer turns a document download link into page geometry.
type Renderer interface {
	Load(ctx context.Context, url string) (*render.Layout, error)
}

// Config is handed to New once; the session keeps no global state.
type Config struct {
	Backend  Backend
	Renderer Renderer
	Scale    float64
	Logger   logging.Logger
}

// Overlay is one highlight placed on a rendered page.
type Overlay struct {
	HighlightID string
	Page        int
	Text        string
	Rects       []anchor.ScreenRect
	Pending     bool
}

type Session struct {
	backend  Backend
	renderer Renderer
	logger   logging.Logger

	mu         sync.Mutex
	state      State
	gen        uint64
	cancelLoad context.CancelFunc
	scale      float64
	doc        *api.Document
	layout     *render.Layout
	highlights []highlight.Formatted
	pending    *highlight.Payload
	failed     *highlight.Payload
	lastErr    error
}

// New returns an Idle session. A non-positive Scale defaults to 1.
func New(cfg Config) *Session {
	scale := cfg.Scale
	if !validScale(scale) {
		scale = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Session{
		backend:    cfg.Backend,
		renderer:   cfg.Renderer,
		logger:     logger,
		scale:      scale,
		highlights: []highlight.Formatted{},
	}
}

func validScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

// fire applies ev. Callers hold mu.
func (s *Session) fire(ev Event) error {
	to, err := next(s.state, ev)
	if err != nil {
		return err
	}
	s.logger.Debug(context.Background(), "session transition", "from", s.state.String(), "event", ev.String(), "to", to.String())
	s.state = to
	return nil
}

// Open loads document id and its highlights. Opening while another load is
// running cancels it; the earlier call then returns ErrSuperseded. A
// document that cannot be fetched or rendered leaves the session in Error.
// A highlight list that cannot be fetched leaves it Ready with none.
func (s *Session) Open(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	if err := s.fire(EvOpen); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancelLoad = cancel
	s.doc, s.layout = nil, nil
	s.highlights = []highlight.Formatted{}
	s.pending, s.failed, s.lastErr = nil, nil, nil
	s.mu.Unlock()

	doc, err := s.backend.GetDocument(ctx, id)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		s.lastErr = err
		_ = s.fire(EvDocumentFailed)
		s.mu.Unlock()
		s.logger.Warn(ctx, "document load failed", "document", id, "error", err)
		return fmt.Errorf("open %s: %w", id, err)
	}
	s.doc = doc
	_ = s.fire(EvDocumentLoaded)
	s.mu.Unlock()

	var (
		layout *render.Layout
		hs     []highlight.Formatted
		hsErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		layout, err = s.renderer.Load(gctx, doc.URL)
		return err
	})
	g.Go(func() error {
		hs, hsErr = s.backend.ListHighlights(gctx, doc.ID)
		return nil
	})
	renderErr := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return ErrSuperseded
	}
	if renderErr != nil {
		s.lastErr = renderErr
		_ = s.fire(EvRenderFailed)
		s.logger.Warn(ctx, "document render failed", "document", id, "error", renderErr)
		return fmt.Errorf("render %s: %w", id, renderErr)
	}
	s.layout = layout
	if hsErr != nil {
		s.logger.Warn(ctx, "highlight load failed, showing none", "document", id, "error", hsErr)
		return s.fire(EvHighlightsFailed)
	}
	s.highlights = s.normalizeAll(ctx, hs)
	return s.fire(EvHighlightsLoaded)
}

func (s *Session) normalizeAll(ctx context.Context, hs []highlight.Formatted) []highlight.Formatted {
	out := make([]highlight.Formatted, 0, len(hs))
	for _, h := range hs {
		out = append(out, s.normalize(ctx, h))
	}
	return out
}

func (s *Session) normalize(ctx context.Context, h highlight.Formatted) highlight.Formatted {
	pos, notes := highlight.Sanitize(h.Position)
	for _, n := range notes {
		s.logger.Warn(ctx, "highlight geometry degraded", "highlight", h.ID, "field", n.Field, "reason", n.Reason)
	}
	h.Position = pos
	return h
}

// Select records a selection of raw screen boxes on page, drawn at the
// current zoom, as the pending draft. It replaces any earlier pending
// selection and forgets a failed save.
func (s *Session) Select(page int, boxes []anchor.ScreenRect, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := next(s.state, EvSelect); err != nil {
		return err
	}
	vp, err := s.layout.Viewport(page, s.scale)
	if err != nil {
		return err
	}
	pos, err := anchor.FromSelection(boxes, vp, page)
	if err != nil {
		return err
	}
	if err := s.fire(EvSelect); err != nil {
		return err
	}
	s.pending = &highlight.Payload{
		Content:    highlight.Content{Text: text},
		Position:   pos,
		PageNumber: page,
	}
	s.failed = nil
	return nil
}

// Cancel drops the pending selection.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fire(EvCancel); err != nil {
		return err
	}
	s.pending = nil
	return nil
}

// Confirm saves the pending selection with comment. On failure the session
// returns to Ready with its highlights untouched and keeps the draft for
// Retry.
func (s *Session) Confirm(ctx context.Context, comment string) (*highlight.Formatted, error) {
	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if err := s.fire(EvConfirm); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p := *s.pending
	if comment != "" {
		p.Comment = &highlight.Comment{Text: comment}
	}
	s.pending = nil
	docID := s.doc.ID
	s.mu.Unlock()

	return s.save(ctx, docID, p)
}

// Retry re-submits the draft of the last failed save, comment included.
func (s *Session) Retry(ctx context.Context) (*highlight.Formatted, error) {
	s.mu.Lock()
	if s.state == Saving {
		s.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	if s.failed == nil {
		s.mu.Unlock()
		return nil, ErrNothingToRetry
	}
	if err := s.fire(EvRetry); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	p := *s.failed
	docID := s.doc.ID
	s.mu.Unlock()

	return s.save(ctx, docID, p)
}

func (s *Session) save(ctx context.Context, docID string, p highlight.Payload) (*highlight.Formatted, error) {
	h, err := s.backend.CreateHighlight(ctx, docID, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failed = &p
		s.lastErr = err
		_ = s.fire(EvSaveFailed)
		s.logger.Warn(ctx, "highlight save failed", "document", docID, "error", err)
		return nil, err
	}

	saved := s.normalize(ctx, *h)
	hs := make([]highlight.Formatted, 0, len(s.highlights)+1)
	hs = append(hs, saved)
	s.highlights = append(hs, s.highlights...)
	s.failed, s.lastErr = nil, nil
	_ = s.fire(EvSaved)
	return &saved, nil
}

// SetScale changes the zoom. Overlays and selections use it from then on.
func (s *Session) SetScale(scale float64) error {
	if !validScale(scale) {
		return fmt.Errorf("invalid scale %v", scale)
	}
	s.mu.Lock()
	s.scale = scale
	s.mu.Unlock()
	return nil
}

// Overlays places the loaded highlights on their pages at the current zoom,
// followed by the pending selection. page 0 means every page. A highlight
// that cannot be placed is logged and left out. Nothing is returned until
// both the page geometry and the highlight list have loaded.
func (s *Session) Overlays(page int) ([]Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Ready, SelectionPending, Saving:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotReady, s.state)
	}

	ctx := context.Background()
	out := make([]Overlay, 0, len(s.highlights)+1)
	place := func(id, text string, pos highlight.Position, pending bool) {
		if page != 0 && pos.PageNumber != page {
			return
		}
		vp, err := s.layout.Viewport(pos.PageNumber, s.scale)
		if err != nil {
			s.logger.Warn(ctx, "overlay skipped", "highlight", id, "page", pos.PageNumber, "error", err)
			return
		}
		rects, err := anchor.ToScreen(pos, vp)
		if err != nil {
			s.logger.Warn(ctx, "overlay skipped", "highlight", id, "page", pos.PageNumber, "error", err)
			return
		}
		out = append(out, Overlay{HighlightID: id, Page: pos.PageNumber, Text: text, Rects: rects, Pending: pending})
	}

	for _, h := range s.highlights {
		text := h.Comment.Text
		if text == "" {
			text = h.Content.Text
		}
		place(h.ID, text, h.Position, false)
	}
	if s.pending != nil {
		place("", s.pending.Content.Text, s.pending.Position, true)
	}
	return out, nil
}

// Highlights returns the loaded highlights, newest first.
func (s *Session) Highlights() []highlight.Formatted {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]highlight.Formatted, len(s.highlights))
	copy(out, s.highlights)
	return out
}

// Draft returns the pending selection, or the draft of a failed save.
func (s *Session) Draft() (highlight.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.pending != nil:
		return *s.pending, true
	case s.failed != nil:
		return *s.failed, true
	}
	return highlight.Payload{}, false
}

// Document returns the open document, if any.
func (s *Session) Document() (api.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return api.Document{}, false
	}
	return *s.doc, true
}

// PageCount is the number of pages of the rendered document.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.PageCount()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Scale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scale
}

// LastError is the reason for the Error state or the last failed save.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
