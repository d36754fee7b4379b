package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
)

// documentRef reads the document id from whichever route matched. It is
// empty on the legacy create route, where the body names the document.
func documentRef(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	return r.PathValue("pdfUuid")
}

func (s *Server) createHighlight(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, common.ErrTooLarge)
			return
		}
		writeError(w, fmt.Errorf("%w: %v", common.ErrMalformedBody, err))
		return
	}

	h, notes, err := s.highlights.Submit(r.Context(), highlight.Request{
		UserRef:     userIDFrom(r.Context()),
		DocumentRef: documentRef(r),
		Body:        body,
	})
	for _, n := range notes {
		field, _, _ := strings.Cut(n.Field, "[")
		s.metrics.GeometryDegradations.WithLabelValues(field).Inc()
	}
	if err != nil {
		var verrs highlight.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				s.metrics.ValidationFailures.WithLabelValues(common.Kind(v.Err)).Inc()
			}
		}
		writeError(w, err)
		return
	}

	s.metrics.HighlightsSaved.Inc()
	writeJSON(w, http.StatusCreated, h.Formatted())
}

func (s *Server) listHighlights(w http.ResponseWriter, r *http.Request) {
	hs, err := s.highlights.ListForDocument(r.Context(), documentRef(r), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, highlight.FormatAll(hs))
}
