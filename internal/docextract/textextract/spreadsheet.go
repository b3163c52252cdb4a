package textextract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetExtractor flattens XLSX workbooks into text: one line per row,
// cells separated by spaces, sheets in workbook order.
type SpreadsheetExtractor struct {
	maxTextBytes  int
	maxUnzipBytes int64
}

// NewSpreadsheetExtractor creates an extractor that rejects workbooks whose
// parts decompress to more than maxUnzipBytes. Zero keeps the library limit.
func NewSpreadsheetExtractor(maxTextBytes int, maxUnzipBytes int64) *SpreadsheetExtractor {
	return &SpreadsheetExtractor{maxTextBytes: maxTextBytes, maxUnzipBytes: maxUnzipBytes}
}

// options keeps every worksheet in memory: the XML limit matches the total
// limit, so no part is ever spilled to a temp file.
func (e *SpreadsheetExtractor) options() []excelize.Options {
	if e.maxUnzipBytes <= 0 {
		return nil
	}
	return []excelize.Options{{
		UnzipSizeLimit:    e.maxUnzipBytes,
		UnzipXMLSizeLimit: e.maxUnzipBytes,
	}}
}

func (e *SpreadsheetExtractor) Format() string {
	return MediaTypeXLSX
}

func (e *SpreadsheetExtractor) CanExtract(mediaType string) bool {
	return mediaType == MediaTypeXLSX
}

func (e *SpreadsheetExtractor) Extract(ctx context.Context, data []byte) (text *Text, err error) {
	defer recoverParse("xlsx", &err)

	if len(data) == 0 {
		return nil, newParseError("xlsx", ErrEmptyDocument)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), e.options()...)
	if err != nil {
		return nil, newParseError("xlsx", fmt.Errorf("open workbook: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()

	var sb strings.Builder
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, newParseError("xlsx", fmt.Errorf("sheet %q: %w", sheet, err))
		}

		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, " "))
			if line == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
		}

		if e.maxTextBytes > 0 && sb.Len() > e.maxTextBytes {
			break
		}
	}

	content, truncated := truncate(sb.String(), e.maxTextBytes)
	return &Text{
		Content:   content,
		PageCount: len(sheets),
		Format:    MediaTypeXLSX,
		Truncated: truncated,
	}, nil
}
