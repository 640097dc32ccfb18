// Package testgen builds tiny file fixtures for tests.
package testgen

import (
	"bytes"
	"fmt"
)

// MinimalPDF returns a complete one-page PDF document. The cross-reference
// table is computed from the actual byte offsets, so the output always
// passes structural validation.
func MinimalPDF() []byte {
	var buf bytes.Buffer
	offsets := []int{}

	write := func(s string) { buf.WriteString(s) }
	obj := func(s string) {
		offsets = append(offsets, buf.Len())
		write(s)
	}

	write("%PDF-1.4\n")
	obj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	obj("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")
	obj("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n")

	stream := "BT /F1 12 Tf 72 720 Td (halo dunia) Tj ET"
	obj(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(stream), stream))
	obj("5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	xrefOffset := buf.Len()
	write("xref\n")
	write(fmt.Sprintf("0 %d\n", len(offsets)+1))
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write(fmt.Sprintf("trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefOffset))

	return buf.Bytes()
}
