package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"docproc/internal/domain"
)

// Content types of the supported export formats.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// File is a rendered export ready to be sent as an attachment.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseFormat resolves a format name, defaulting to CSV when empty.
func ParseFormat(s string) (domain.ExportFormat, error) {
	switch domain.ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", domain.ExportFormatCSV:
		return domain.ExportFormatCSV, nil
	case domain.ExportFormatXLSX:
		return domain.ExportFormatXLSX, nil
	}
	return "", unsupportedFormat("export.ParseFormat", s)
}

func unsupportedFormat(op, format string) error {
	e := domain.NewError(domain.ErrInvalidInput, op, domain.ErrUnsupportedExportFormat)
	e.Detail = fmt.Sprintf("format %q; allowed: csv, xlsx", format)
	return e
}

// Render encodes the items of doc in the requested format.
func Render(doc *domain.Document, items []domain.LineItem, format domain.ExportFormat) (*File, error) {
	switch format {
	case domain.ExportFormatCSV:
		var buf bytes.Buffer
		buf.Write(BOM)
		w := NewWriter(&buf)
		if err := w.WriteHeader(); err != nil {
			return nil, fmt.Errorf("export.Render: %w", err)
		}
		if err := w.WriteItems(items); err != nil {
			return nil, fmt.Errorf("export.Render: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("export.Render: %w", err)
		}
		return &File{Filename: BuildFilename(doc.Filename, "csv"), ContentType: ContentTypeCSV, Data: buf.Bytes()}, nil

	case domain.ExportFormatXLSX:
		data, err := WriteXLSX(items)
		if err != nil {
			return nil, fmt.Errorf("export.Render: %w", err)
		}
		return &File{Filename: BuildFilename(doc.Filename, "xlsx"), ContentType: ContentTypeXLSX, Data: data}, nil
	}
	return nil, unsupportedFormat("export.Render", string(format))
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}
	return s
}

// BuildFilename returns {sanitized_document_name}_line_items.{ext}. The source
// extension is dropped before sanitizing.
func BuildFilename(documentName, ext string) string {
	base := strings.TrimSuffix(documentName, filepath.Ext(documentName))
	return fmt.Sprintf("%s_line_items.%s", SanitizeFilename(base), ext)
}
