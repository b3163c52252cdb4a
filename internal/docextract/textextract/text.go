package textextract

import (
	"context"
	"strings"
)

// PlainTextExtractor passes text/plain uploads through as UTF-8
type PlainTextExtractor struct {
	maxTextBytes int
}

func NewPlainTextExtractor(maxTextBytes int) *PlainTextExtractor {
	return &PlainTextExtractor{maxTextBytes: maxTextBytes}
}

func (e *PlainTextExtractor) Format() string {
	return MediaTypeText
}

func (e *PlainTextExtractor) CanExtract(mediaType string) bool {
	return mediaType == MediaTypeText
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte) (*Text, error) {
	if len(data) == 0 {
		return nil, newParseError("text", ErrEmptyDocument)
	}

	// Invalid sequences are replaced rather than rejected
	content := strings.ToValidUTF8(string(data), "\uFFFD")
	content = strings.TrimPrefix(content, "\uFEFF")

	content, truncated := truncate(content, e.maxTextBytes)
	return &Text{
		Content:   content,
		PageCount: 1,
		Format:    MediaTypeText,
		Truncated: truncated,
	}, nil
}
