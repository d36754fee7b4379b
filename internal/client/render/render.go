// Package render loads a PDF through its download link and lays out its
// pages for the viewer: page count and the viewport of each page at a
// given zoom.
package render

import (
	"context"
	"fmt"
	"net/http"

	"github.com/al0nec0der/MarkPDF/internal/anchor"
	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/netx"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes = 64 << 20

var download = netx.DownloadFromPresignedURL

// Layout is the page geometry of a loaded document.
type Layout struct {
	info *pdfinfo.Info
}

// NewLayout wraps already inspected page geometry.
func NewLayout(info *pdfinfo.Info) *Layout {
	return &Layout{info: info}
}

// PageCount is the number of pages.
func (l *Layout) PageCount() int {
	if l == nil || l.info == nil {
		return 0
	}
	return l.info.PageCount
}

// Viewport is the rendered size of a 1-based page at scale.
func (l *Layout) Viewport(page int, scale float64) (anchor.Viewport, error) {
	if l == nil || l.info == nil {
		return anchor.Viewport{}, fmt.Errorf("%w: no document", common.ErrViewportUnavailable)
	}
	size, err := l.info.Page(page)
	if err != nil {
		return anchor.Viewport{}, fmt.Errorf("%w: %v", common.ErrViewportUnavailable, err)
	}
	f := scale / anchor.ReferenceScale
	v := anchor.Viewport{Width: size.Width * f, Height: size.Height * f, Scale: scale}
	if err := v.Validate(); err != nil {
		return anchor.Viewport{}, err
	}
	return v, nil
}

// Renderer downloads documents and inspects them.
type Renderer struct {
	client   *http.Client
	maxBytes int64
}

// New returns a Renderer downloading with client. maxBytes <= 0 selects
// DefaultMaxBytes.
func New(client *http.Client, maxBytes int64) *Renderer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Renderer{client: client, maxBytes: maxBytes}
}

// Load fetches the PDF at url and returns its layout.
func (r *Renderer) Load(ctx context.Context, url string) (*Layout, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: document has no download link", common.ErrViewportUnavailable)
	}
	data, err := download(ctx, r.client, url, r.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	info, err := pdfinfo.InspectBytes(data)
	if err != nil {
		return nil, err
	}
	return NewLayout(info), nil
}
