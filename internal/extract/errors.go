package extract

import "fmt"

// UnsupportedFormatError indicates a file extension or format tag outside the
// supported set. It is returned before any extraction is attempted.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported format: file has no extension"
	}
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

// ExtractionError indicates content that could not be parsed as its tagged
// format (e.g. a corrupt archive for office formats).
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
