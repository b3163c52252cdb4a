// Package textextract turns uploaded document bytes into plain text.
//
// Each supported format has an Extractor. The Registry picks one from the
// declared media type or, failing that, from the content itself.
package textextract

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"
)

// Media types handled by the built-in extractors
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeText = "text/plain"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrEmptyDocument is returned for zero-length input
var ErrEmptyDocument = errors.New("document is empty")

// Text is the text layer of a document. Content is empty, not an error, for
// documents that have no text layer.
type Text struct {
	Content   string
	PageCount int
	Format    string
	Truncated bool
}

// Extractor reads the text layer of one document format.
// Implementations must not retain data after Extract returns.
type Extractor interface {
	// Format returns the canonical media type this extractor produces text for
	Format() string

	// CanExtract reports whether the extractor handles the normalized media type
	CanExtract(mediaType string) bool

	Extract(ctx context.Context, data []byte) (*Text, error)
}

// ParseError reports bytes that could not be interpreted in a format.
// Its message is meant for the caller; Panic is kept for logs only.
type ParseError struct {
	Format string
	Err    error
	Panic  any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(format string, err error) *ParseError {
	return &ParseError{Format: format, Err: err}
}

// recoverParse converts a parser panic into a ParseError on *errp
func recoverParse(format string, errp *error) {
	if r := recover(); r != nil {
		*errp = &ParseError{
			Format: format,
			Err:    errors.New("malformed document structure"),
			Panic:  r,
		}
	}
}

// NormalizeMediaType lower-cases a media type and strips its parameters.
// Unparseable input yields "".
func NormalizeMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return mt
}

// truncate cuts s to at most limit bytes without splitting a rune
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
