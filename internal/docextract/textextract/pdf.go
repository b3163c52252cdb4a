package textextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under $HOME
	api.DisableConfigDir()
}

// PDFExtractor reads the text layer of PDF documents.
//
// The structure is read with pdfcpu first, which rejects badly damaged files
// with a useful diagnostic. Documents encrypted with only an owner password
// open with the empty user password and are decrypted with pdfcpu; documents
// that need a user password are rejected. Text is then pulled page by page
// with ledongthuc/pdf.
type PDFExtractor struct {
	maxTextBytes int
}

// NewPDFExtractor creates a PDF extractor. Text beyond maxTextBytes is
// dropped; zero means unlimited.
func NewPDFExtractor(maxTextBytes int) *PDFExtractor {
	return &PDFExtractor{maxTextBytes: maxTextBytes}
}

func (e *PDFExtractor) Format() string {
	return MediaTypePDF
}

func (e *PDFExtractor) CanExtract(mediaType string) bool {
	return mediaType == MediaTypePDF || mediaType == "application/x-pdf"
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text *Text, err error) {
	defer recoverParse("pdf", &err)

	if len(data) == 0 {
		return nil, newParseError("pdf", ErrEmptyDocument)
	}

	pageCount, plain, err := e.inspect(data)
	if err != nil {
		return nil, err
	}
	if plain != nil {
		// The decrypted copy gets the same treatment as the upload
		defer clear(plain)
		data = plain
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, newParseError("pdf", fmt.Errorf("open document: %w", err))
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, newParseError("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)

		if e.maxTextBytes > 0 && sb.Len() > e.maxTextBytes {
			break
		}
	}

	content, truncated := truncate(sb.String(), e.maxTextBytes)
	return &Text{
		Content:   content,
		PageCount: pageCount,
		Format:    MediaTypePDF,
		Truncated: truncated,
	}, nil
}

// inspect validates the document structure and returns its page count. For
// encrypted files it also returns a decrypted copy of the document.
func (e *PDFExtractor) inspect(data []byte) (int, []byte, error) {
	pctx, err := api.ReadContext(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		if isPasswordError(err) {
			return 0, nil, newParseError("pdf", errors.New("password protected documents are not supported"))
		}
		return 0, nil, newParseError("pdf", fmt.Errorf("read structure: %w", err))
	}

	if err := pctx.EnsurePageCount(); err != nil {
		return 0, nil, newParseError("pdf", fmt.Errorf("count pages: %w", err))
	}

	if pctx.Encrypt == nil {
		return pctx.PageCount, nil, nil
	}

	var plain bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &plain, relaxedConfig()); err != nil {
		if isPasswordError(err) {
			return 0, nil, newParseError("pdf", errors.New("password protected documents are not supported"))
		}
		return 0, nil, newParseError("pdf", fmt.Errorf("decrypt: %w", err))
	}

	return pctx.PageCount, plain.Bytes(), nil
}

// relaxedConfig returns a fresh pdfcpu configuration with the empty user
// password. pdfcpu mutates the configuration it is given.
func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func isPasswordError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
