package textextract_test

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sei/sei-backend/internal/docextract/textextract"
	"github.com/sei/sei-backend/pkg/testutil"
)

const sampleLine = "CURP: GOMJ800101HDFRRL09 correo: juan@mail.com"

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	// Keep sniffers from ever seeing a known signature
	b[0] = 0x00
	return b
}

func TestPDFExtractor_Extract(t *testing.T) {
	e := textextract.NewPDFExtractor(0)
	data := testutil.PDFWithText(t, sampleLine)

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, textextract.MediaTypePDF, text.Format)
	assert.Equal(t, 1, text.PageCount)
	assert.Contains(t, text.Content, "GOMJ800101HDFRRL09")
	assert.Contains(t, text.Content, "juan@mail.com")
	assert.False(t, text.Truncated)
}

func TestPDFExtractor_PageCount(t *testing.T) {
	e := textextract.NewPDFExtractor(0)
	data := testutil.PDFWithPages(t, []string{"first page"}, nil, []string{"third page"})

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 3, text.PageCount)
	assert.Contains(t, text.Content, "first page")
	assert.Contains(t, text.Content, "third page")
}

func TestPDFExtractor_NoTextLayer(t *testing.T) {
	e := textextract.NewPDFExtractor(0)
	data := testutil.PDFWithPages(t, nil)

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Empty(t, text.Content)
	assert.Equal(t, 1, text.PageCount)
}

func TestPDFExtractor_Truncates(t *testing.T) {
	e := textextract.NewPDFExtractor(8)
	data := testutil.PDFWithText(t, sampleLine)

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(text.Content), 8)
	assert.True(t, text.Truncated)
}

func TestPDFExtractor_Unparseable(t *testing.T) {
	e := textextract.NewPDFExtractor(0)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"random bytes", randomBytes(t, 4096)},
		{"plain text", []byte(sampleLine)},
		{"truncated pdf", testutil.PDFWithText(t, sampleLine)[:200]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := e.Extract(context.Background(), tt.data)
			require.Error(t, err)
			assert.Nil(t, text)

			var parseErr *textextract.ParseError
			require.True(t, errors.As(err, &parseErr), "got %T: %v", err, err)
			assert.Equal(t, "pdf", parseErr.Format)
			assert.NotEmpty(t, parseErr.Error())
		})
	}
}

func TestPDFExtractor_OwnerPasswordOnly(t *testing.T) {
	e := textextract.NewPDFExtractor(0)
	data := testutil.ProtectedPDFWithText(t, "", "owner", "CURP: GOMJ800101HDFRRL09")

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 1, text.PageCount)
	assert.Contains(t, text.Content, "GOMJ800101HDFRRL09")
}

func TestPDFExtractor_UserPasswordRequired(t *testing.T) {
	e := textextract.NewPDFExtractor(0)
	data := testutil.ProtectedPDFWithText(t, "secret", "owner", "CURP: GOMJ800101HDFRRL09")

	text, err := e.Extract(context.Background(), data)
	require.Error(t, err)
	assert.Nil(t, text)

	var parseErr *textextract.ParseError
	require.True(t, errors.As(err, &parseErr), "got %T: %v", err, err)
	assert.Equal(t, "pdf", parseErr.Format)
}

func TestPDFExtractor_EmptyIsTyped(t *testing.T) {
	_, err := textextract.NewPDFExtractor(0).Extract(context.Background(), []byte{})
	assert.ErrorIs(t, err, textextract.ErrEmptyDocument)
}

func TestPDFExtractor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := textextract.NewPDFExtractor(0).Extract(ctx, testutil.PDFWithText(t, sampleLine))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlainTextExtractor(t *testing.T) {
	e := textextract.NewPlainTextExtractor(0)

	text, err := e.Extract(context.Background(), []byte("\xEF\xBB\xBF"+sampleLine))
	require.NoError(t, err)
	assert.Equal(t, sampleLine, text.Content)
	assert.Equal(t, 1, text.PageCount)

	text, err = e.Extract(context.Background(), []byte("a\xffb"))
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFDb", text.Content)

	_, err = e.Extract(context.Background(), nil)
	assert.ErrorIs(t, err, textextract.ErrEmptyDocument)
}

func TestPlainTextExtractor_TruncatesOnRuneBoundary(t *testing.T) {
	e := textextract.NewPlainTextExtractor(3)

	// "ñ" is two bytes; cutting at 3 would split the second one
	text, err := e.Extract(context.Background(), []byte("ññ"))
	require.NoError(t, err)

	assert.Equal(t, "ñ", text.Content)
	assert.True(t, text.Truncated)
}

func TestSpreadsheetExtractor(t *testing.T) {
	e := textextract.NewSpreadsheetExtractor(0, 0)
	data := testutil.XLSXWithRows(t,
		[]string{"CURP", "GOMJ800101HDFRRL09"},
		[]string{"Tel", "5512345678"},
	)

	text, err := e.Extract(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, textextract.MediaTypeXLSX, text.Format)
	assert.Equal(t, 1, text.PageCount)
	assert.Equal(t, "CURP GOMJ800101HDFRRL09\nTel 5512345678", text.Content)
}

func TestSpreadsheetExtractor_Unparseable(t *testing.T) {
	_, err := textextract.NewSpreadsheetExtractor(0, 0).Extract(context.Background(), randomBytes(t, 512))

	var parseErr *textextract.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "xlsx", parseErr.Format)
}

func TestSpreadsheetExtractor_UnzipLimit(t *testing.T) {
	rows := make([][]string, 5000)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("name-%d", i), fmt.Sprintf("value-%d", i), fmt.Sprintf("note-%d", i)}
	}
	large := testutil.XLSXWithRows(t, rows...)
	small := testutil.XLSXWithRows(t, []string{"CURP", "GOMJ800101HDFRRL09"})

	tests := []struct {
		name    string
		limit   int64
		data    []byte
		wantErr bool
	}{
		{name: "small workbook under the limit", limit: 64 << 10, data: small},
		{name: "large workbook over the limit", limit: 64 << 10, data: large, wantErr: true},
		{name: "large workbook under a larger limit", limit: 64 << 20, data: large},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := textextract.NewSpreadsheetExtractor(0, tt.limit).Extract(context.Background(), tt.data)

			if tt.wantErr {
				var parseErr *textextract.ParseError
				require.True(t, errors.As(err, &parseErr), "got %v", err)
				assert.Equal(t, "xlsx", parseErr.Format)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, text.Content)
		})
	}
}

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"application/pdf", "application/pdf"},
		{"Application/PDF", "application/pdf"},
		{"text/plain; charset=utf-8", "text/plain"},
		{"  text/plain  ", "text/plain"},
		{"", ""},
		{"not a media type;;", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, textextract.NormalizeMediaType(tt.in))
		})
	}
}

func newRegistry() *textextract.Registry {
	return textextract.NewRegistry(
		textextract.NewPDFExtractor(0),
		textextract.NewPlainTextExtractor(0),
		textextract.NewSpreadsheetExtractor(0, 0),
	)
}

func TestRegistry_Find(t *testing.T) {
	r := newRegistry()

	assert.Equal(t, textextract.MediaTypePDF, r.Find("application/pdf").Format())
	assert.Equal(t, textextract.MediaTypeText, r.Find("text/plain; charset=utf-8").Format())
	assert.Equal(t, textextract.MediaTypeXLSX, r.Find(textextract.MediaTypeXLSX).Format())
	assert.Nil(t, r.Find("image/png"))
	assert.Nil(t, r.Find(""))
}

func TestRegistry_Resolve(t *testing.T) {
	r := newRegistry()
	pdfData := testutil.PDFWithText(t, sampleLine)

	tests := []struct {
		name     string
		declared string
		data     []byte
		want     string
	}{
		{"declared wins", "text/plain", pdfData, textextract.MediaTypeText},
		{"sniffed pdf", "application/octet-stream", pdfData, textextract.MediaTypePDF},
		{"undeclared text falls back to pdf", "", []byte(sampleLine), textextract.MediaTypePDF},
		{"printable junk falls back to pdf", "application/octet-stream", []byte("this is not a pdf, just junk"), textextract.MediaTypePDF},
		{"declared text with parameters", "text/plain; charset=utf-8", []byte(sampleLine), textextract.MediaTypeText},
		{"declared xlsx", textextract.MediaTypeXLSX, testutil.XLSXWithRows(t, []string{"a"}), textextract.MediaTypeXLSX},
		{"unknown falls back to pdf", "application/octet-stream", randomBytes(t, 256), textextract.MediaTypePDF},
		{"empty falls back to pdf", "", nil, textextract.MediaTypePDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.declared, tt.data).Format())
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	formats := newRegistry().Formats()

	assert.Equal(t, textextract.MediaTypePDF, formats[0])
	assert.Len(t, formats, 3)
	assert.True(t, strings.HasPrefix(formats[1], "text/"))
}
