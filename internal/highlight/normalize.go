package highlight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

// DocumentInfo is what the Normalizer needs to know about a document.
// PageCount is zero when unknown.
type DocumentInfo struct {
	Ref       string
	PageCount int
}

// DocumentLookup resolves a document reference for a user. It returns an
// error matching common.ErrorNotFound or common.ErrDocumentNotFound when the
// document does not exist for that user.
type DocumentLookup interface {
	LookupDocument(ctx context.Context, documentRef, userRef string) (DocumentInfo, error)
}

// Request is one payload to normalize. DocumentRef comes from the request
// path and takes precedence over references inside Body.
type Request struct {
	UserRef     string
	DocumentRef string
	Body        json.RawMessage
}

// Result is a successful normalization.
type Result struct {
	Draft        Draft
	Degradations []Degradation
}

// Normalizer converts payloads of any known historical shape into a Draft.
// It has no side effects besides calling its DocumentLookup.
type Normalizer struct {
	docs DocumentLookup
}

func NewNormalizer(docs DocumentLookup) *Normalizer {
	return &Normalizer{docs: docs}
}

// state is threaded through the rule chain.
type state struct {
	req    Request
	in     object
	draft  Draft
	notes  []Degradation
	errs   ValidationErrors
	hasPos bool
}

// rule fills one field of the draft. A rule returning an error aborts
// normalization; validation failures are appended to state.errs instead.
type rule struct {
	field string
	apply func(ctx context.Context, n *Normalizer, s *state) error
}

// rules run in order. The document rule runs last and is skipped when an
// earlier rule already failed, so malformed payloads never reach storage.
var rules = []rule{
	{field: "content", apply: applyText},
	{field: "position", apply: applyPosition},
	{field: "pageNumber", apply: applyPageNumber},
	{field: "documentRef", apply: applyDocument},
}

// Normalize returns the canonical draft for req. Validation failures are
// returned as ValidationErrors; a body that is not a JSON object yields an
// error matching common.ErrMalformedBody. Lookup failures other than a
// missing document are returned unchanged.
func (n *Normalizer) Normalize(ctx context.Context, req Request) (*Result, error) {
	in, err := decodeObject(req.Body)
	if err != nil {
		return nil, err
	}

	s := &state{req: req, in: in, draft: Draft{UserRef: req.UserRef}}
	for _, r := range rules {
		if err := r.apply(ctx, n, s); err != nil {
			return nil, fmt.Errorf("%s: %w", r.field, err)
		}
	}
	if len(s.errs) > 0 {
		return nil, s.errs
	}

	return &Result{Draft: s.draft, Degradations: s.notes}, nil
}

func applyText(_ context.Context, _ *Normalizer, s *state) error {
	s.draft.Content.Text, _ = firstOf(s.in,
		stringAt("content", "text"),
		stringAt("content"),
		stringAt("text"),
	)
	s.draft.Content.Image, _ = firstOf(s.in, nonEmptyStringAt("content", "image"))
	s.draft.Comment.Text, _ = firstOf(s.in,
		stringAt("comment", "text"),
		stringAt("comment"),
	)
	return nil
}

func applyPosition(_ context.Context, _ *Normalizer, s *state) error {
	_, pageKnown := firstOf(s.in, pageSources...)
	pos, notes, ok := decodePosition(s.in, pageKnown)
	if !ok {
		s.errs = append(s.errs, &ValidationError{Field: "position", Err: common.ErrMissingPosition})
		return nil
	}
	s.draft.Position = pos
	s.notes = append(s.notes, notes...)
	s.hasPos = true
	return nil
}

var pageSources = []source[int]{
	pageAt("position", "pageNumber"),
	pageAt("pageNumber"),
}

func applyPageNumber(_ context.Context, _ *Normalizer, s *state) error {
	page, ok := firstOf(s.in, pageSources...)
	if !ok {
		s.errs = append(s.errs, &ValidationError{Field: "pageNumber", Err: common.ErrMissingPageNumber})
		return nil
	}
	s.draft.PageNumber = page
	if s.hasPos {
		s.draft.Position.PageNumber = page
	}
	return nil
}

func applyDocument(ctx context.Context, n *Normalizer, s *state) error {
	if len(s.errs) > 0 {
		return nil
	}

	ref := s.req.DocumentRef
	if ref == "" {
		ref, _ = firstOf(s.in,
			nonEmptyStringAt("pdfUuid"),
			nonEmptyStringAt("documentRef"),
		)
	}
	if ref == "" {
		s.errs = append(s.errs, &ValidationError{Field: "documentRef", Err: common.ErrDocumentNotFound})
		return nil
	}

	info, err := n.docs.LookupDocument(ctx, ref, s.req.UserRef)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrDocumentNotFound) {
			s.errs = append(s.errs, &ValidationError{Field: "documentRef", Err: common.ErrDocumentNotFound})
			return nil
		}
		return err
	}

	if info.PageCount > 0 && s.draft.PageNumber > info.PageCount {
		s.errs = append(s.errs, &ValidationError{
			Field: "pageNumber",
			Err:   fmt.Errorf("%w: page %d of %d", common.ErrPageOutOfRange, s.draft.PageNumber, info.PageCount),
		})
		return nil
	}

	s.draft.DocumentRef = info.Ref
	return nil
}
