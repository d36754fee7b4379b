package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

// multipartOverhead leaves room for part headers around the file itself.
const multipartOverhead = 64 << 10

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", common.ErrMalformedBody, err))
		return
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			writeError(w, fmt.Errorf("%w: missing %q file field", common.ErrMalformedBody, common.UploadFieldName))
			return
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeError(w, common.ErrTooLarge)
				return
			}
			writeError(w, fmt.Errorf("%w: %v", common.ErrMalformedBody, err))
			return
		}
		if part.FormName() != common.UploadFieldName {
			_ = part.Close()
			continue
		}

		name := filepath.Base(part.FileName())
		if name == "." || name == string(filepath.Separator) {
			name = "document.pdf"
		}

		doc, err := s.documents.Upload(r.Context(), userIDFrom(r.Context()), name, part)
		_ = part.Close()
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				err = common.ErrTooLarge
			}
			writeError(w, err)
			return
		}

		s.metrics.DocumentsUploaded.Inc()
		writeJSON(w, http.StatusCreated, doc)
		return
	}
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), userIDFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), userIDFrom(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
