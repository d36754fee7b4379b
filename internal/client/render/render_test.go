package render

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/al0nec0der/MarkPDF/internal/anchor"
	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo"
	"github.com/al0nec0der/MarkPDF/internal/pdfinfo/pdftest"
)

func TestLoad(t *testing.T) {
	pdf := pdftest.Letter(2)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(pdf)
	}))
	defer ts.Close()

	l, err := New(ts.Client(), 0).Load(context.Background(), ts.URL+"/doc?sig=1")
	require.NoError(t, err)
	assert.Equal(t, 2, l.PageCount())

	v, err := l.Viewport(2, 1.5)
	require.NoError(t, err)
	assert.Equal(t, anchor.Viewport{Width: 918, Height: 1188, Scale: 1.5}, v)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("no link", func(t *testing.T) {
		_, err := New(nil, 0).Load(context.Background(), "")
		require.ErrorIs(t, err, common.ErrViewportUnavailable)
	})

	t.Run("not a pdf", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>expired</html>"))
		}))
		defer ts.Close()

		_, err := New(ts.Client(), 0).Load(context.Background(), ts.URL)
		require.ErrorIs(t, err, common.ErrNotPDF)
	})

	t.Run("download fails", func(t *testing.T) {
		errBoom := errors.New("boom")
		old := download
		download = func(context.Context, *http.Client, string, int64) ([]byte, error) { return nil, errBoom }
		t.Cleanup(func() { download = old })

		_, err := New(nil, 10).Load(context.Background(), "http://x")
		require.ErrorIs(t, err, errBoom)
	})
}

func TestViewport(t *testing.T) {
	l := NewLayout(&pdfinfo.Info{PageCount: 1, Pages: []pdfinfo.PageSize{{Width: 100, Height: 200}}})

	v, err := l.Viewport(1, 2)
	require.NoError(t, err)
	assert.Equal(t, anchor.Viewport{Width: 200, Height: 400, Scale: 2}, v)

	_, err = l.Viewport(2, 1)
	require.ErrorIs(t, err, common.ErrViewportUnavailable)

	_, err = l.Viewport(1, 0)
	require.ErrorIs(t, err, common.ErrViewportUnavailable)

	var empty *Layout
	assert.Equal(t, 0, empty.PageCount())
	_, err = empty.Viewport(1, 1)
	require.ErrorIs(t, err, common.ErrViewportUnavailable)
}
