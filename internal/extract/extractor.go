// Package extract provides text extraction from various document formats.
package extract

import (
	"path/filepath"
	"strings"
)

// Format tags for supported document types.
const (
	FormatPDF         = "pdf"
	FormatText        = "text"
	FormatWord        = "docx"
	FormatSlides      = "pptx"
	FormatSpreadsheet = "xlsx"
	FormatCSV         = "csv"
)

// formatByExt maps lowercase file extensions to format tags.
var formatByExt = map[string]string{
	".pdf":  FormatPDF,
	".txt":  FormatText,
	".md":   FormatText,
	".docx": FormatWord,
	".pptx": FormatSlides,
	".xlsx": FormatSpreadsheet,
	".csv":  FormatCSV,
}

// DetectFormat returns the format tag for filename based on its extension.
// Returns ErrUnsupportedFormat for extensions outside the supported set.
func DetectFormat(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := formatByExt[ext]
	if !ok {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return format, nil
}

// SupportedExtensions returns the file extensions the extractor understands,
// each with a leading dot.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".md", ".docx", ".pptx", ".xlsx", ".csv"}
}

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of content interpreted as the given
// format tag. Extraction is all-or-nothing: on failure no partial text is
// returned. Returns an UnsupportedFormatError for unknown tags and an
// ExtractionError when content cannot be parsed as the tagged format.
func (e *Extractor) Extract(content []byte, format string) (string, error) {
	switch format {
	case FormatPDF:
		return extractPDF(content)
	case FormatWord:
		return extractDOCX(content)
	case FormatSlides:
		return extractPPTX(content)
	case FormatSpreadsheet:
		return extractExcel(content)
	case FormatCSV:
		return extractCSV(content)
	case FormatText:
		return extractPlain(content)
	default:
		return "", &UnsupportedFormatError{Ext: format}
	}
}
