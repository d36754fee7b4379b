// Package pdfinfo inspects PDF files without rendering them: page count and
// the visible size of every page.
package pdfinfo

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// headerWindow is how far into the file the "%PDF-" marker may appear.
const headerWindow = 1024

// letter is used when a page declares no MediaBox.
var letter = PageSize{Width: 612, Height: 792}

// PageSize is the visible page size in points, with /Rotate applied.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info describes an inspected document.
type Info struct {
	PageCount int        `json:"pageCount"`
	Pages     []PageSize `json:"pages"`
}

// Page returns the size of a 1-based page.
func (i *Info) Page(n int) (PageSize, error) {
	if n < 1 || n > len(i.Pages) {
		return PageSize{}, fmt.Errorf("%w: page %d of %d", common.ErrPageOutOfRange, n, len(i.Pages))
	}
	return i.Pages[n-1], nil
}

// Inspect reads the page tree of the PDF in data. Anything that cannot be
// parsed as a PDF fails with common.ErrNotPDF.
func Inspect(data io.ReaderAt, size int64) (*Info, error) {
	head := make([]byte, min(size, headerWindow))
	if _, err := data.ReadAt(head, 0); err != nil && err != io.EOF {
		return nil, err
	}
	if !bytes.Contains(head, []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing header", common.ErrNotPDF)
	}

	r, err := pdf.NewReader(data, size, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotPDF, err)
	}
	defer r.Close()

	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, fmt.Errorf("%w: page tree: %v", common.ErrNotPDF, err)
	}

	info := &Info{PageCount: n, Pages: make([]PageSize, 0, n)}
	for i := 0; i < n; i++ {
		dict, err := pagetree.GetPage(r, i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", common.ErrNotPDF, i+1, err)
		}
		info.Pages = append(info.Pages, pageSize(r, dict))
	}
	return info, nil
}

// InspectBytes is Inspect over an in-memory file.
func InspectBytes(b []byte) (*Info, error) {
	return Inspect(bytes.NewReader(b), int64(len(b)))
}

// pageSize prefers CropBox over MediaBox and swaps the axes for pages
// rotated by a quarter turn. Unreadable boxes fall back to US Letter.
func pageSize(r pdf.Getter, dict pdf.Dict) PageSize {
	box, _ := pdf.GetRectangle(r, dict["CropBox"])
	if box == nil {
		box, _ = pdf.GetRectangle(r, dict["MediaBox"])
	}
	if box == nil {
		return letter
	}

	size := PageSize{
		Width:  math.Abs(box.URx - box.LLx),
		Height: math.Abs(box.URy - box.LLy),
	}
	if size.Width == 0 || size.Height == 0 {
		return letter
	}

	if dict["Rotate"] != nil {
		if rot, err := pdf.GetInt(r, dict["Rotate"]); err == nil {
			if q := ((int(rot) % 360) + 360) % 360; q == 90 || q == 270 {
				size.Width, size.Height = size.Height, size.Width
			}
		}
	}
	return size
}
