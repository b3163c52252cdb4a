package testutil

import (
	"bytes"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// PDFWithText renders a one-page PDF with one text line per argument
func PDFWithText(t *testing.T, lines ...string) []byte {
	t.Helper()
	return PDFWithPages(t, lines)
}

// PDFWithPages renders a PDF with one page per entry, each page holding the
// entry's lines. A nil entry produces a blank page.
func PDFWithPages(t *testing.T, pages ...[]string) []byte {
	t.Helper()
	return renderPDF(t, nil, pages)
}

// ProtectedPDFWithText renders a one-page PDF encrypted with the given
// passwords. An empty user password gives a file anyone can open whose
// permissions are guarded by the owner password.
func ProtectedPDFWithText(t *testing.T, userPassword, ownerPassword string, lines ...string) []byte {
	t.Helper()
	return renderPDF(t, func(doc *fpdf.Fpdf) {
		doc.SetProtection(fpdf.CnProtectPrint, userPassword, ownerPassword)
	}, [][]string{lines})
}

func renderPDF(t *testing.T, setup func(*fpdf.Fpdf), pages [][]string) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	if setup != nil {
		setup(doc)
	}
	doc.SetFont("Helvetica", "", 12)

	for _, lines := range pages {
		doc.AddPage()
		for _, line := range lines {
			doc.Cell(0, 10, line)
			doc.Ln(10)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

// XLSXWithRows builds a single-sheet workbook from the given rows
func XLSXWithRows(t *testing.T, rows ...[]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &values))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
