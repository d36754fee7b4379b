// Package pdftest writes tiny PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Build writes a classic-xref PDF whose page tree carries treeExtra and one
// page per entry of pages. Page entries hold extra dictionary keys only;
// /Type and /Parent are added.
func Build(treeExtra string, pages ...string) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.7\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d %s >>", kids, len(pages), treeExtra))
	for _, p := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R %s >>", p))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// Letter returns an n-page PDF of US Letter pages.
func Letter(n int) []byte {
	return Build("/MediaBox [0 0 612 792]", make([]string, n)...)
}
