package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"report.pdf", FormatPDF, false},
		{"notes.TXT", FormatText, false},
		{"readme.md", FormatText, false},
		{"doc.docx", FormatWord, false},
		{"deck.pptx", FormatSlides, false},
		{"sheet.xlsx", FormatSpreadsheet, false},
		{"data.csv", FormatCSV, false},
		{"image.png", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DetectFormat(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %q, want %q", tt.filename, got, tt.want)
			}
			if tt.wantErr {
				var ufe *UnsupportedFormatError
				if !errors.As(err, &ufe) {
					t.Errorf("error should be UnsupportedFormatError, got %T", err)
				}
			}
		})
	}
}

func TestExtract_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.Extract([]byte("Hello world\nLine 2"), FormatText)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.Extract([]byte("hello\x80world"), FormatText)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_csv(t *testing.T) {
	e := NewExtractor()
	got, err := e.Extract([]byte("name,age\nalice,30\nbob,25\n"), FormatCSV)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "name\tage\nalice\t30\nbob\t25" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_csvRaggedRows(t *testing.T) {
	e := NewExtractor()
	got, err := e.Extract([]byte("a,b,c\nd\n"), FormatCSV)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "a\tb\tc\nd" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.Extract(buf.Bytes(), FormatSpreadsheet)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

// buildDocx creates a minimal valid .docx archive with the given body XML.
func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtract_docx(t *testing.T) {
	content := buildDocx(t, `<w:document><w:body><w:p w:rsidR="00A"><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">docx world</w:t></w:r></w:p></w:body></w:document>`)
	e := NewExtractor()
	got, err := e.Extract(content, FormatWord)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Hello docx world" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_docxCorrupt(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract([]byte("not a zip archive"), FormatWord)
	if err == nil {
		t.Fatal("expected error for corrupt docx")
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Errorf("error should be ExtractionError, got %T", err)
	}
	if ee.Format != FormatWord {
		t.Errorf("Format = %q, want %q", ee.Format, FormatWord)
	}
}

func TestExtract_pptx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(`<p:sld><a:t>Slide one</a:t><a:t>bullet</a:t></p:sld>`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(buf.Bytes(), FormatSlides)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Slide one bullet" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_unknownFormatTag(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract([]byte("raw"), "wav")
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Errorf("expected UnsupportedFormatError, got %v", err)
	}
}

func TestExtract_pdfCorrupt(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract([]byte("%PDF-garbage"), FormatPDF)
	if err == nil {
		t.Fatal("expected error for corrupt pdf")
	}
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Errorf("error should be ExtractionError, got %T", err)
	}
}
