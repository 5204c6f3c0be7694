package importer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/go-pdf/fpdf"
)

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Hello </w:t></w:r><w:r><w:rPr><w:i/></w:rPr><w:t>world</w:t></w:r></w:p>
<w:p><w:hyperlink><w:r><w:t>Linked</w:t></w:r></w:hyperlink><w:r><w:tab/><w:t>text</w:t></w:r></w:p>
</w:body>
</w:document>`

func slideXML(paras ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, p := range paras {
		b.WriteString(`<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func TestImportText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"plain", []byte("a\r\nb\rc"), "a\nb\nc"},
		{"bom", append([]byte{0xEF, 0xBB, 0xBF}, "Müller"...), "Müller"},
		{"cp1252", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"utf16", utf16LE("hi"), "hi"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract("notes.TXT", tt.data)
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestImportDOCX(t *testing.T) {
	data := zipOf(t, map[string]string{"word/document.xml": docxBody})

	doc, err := Import("paper.docx", data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if want := "Hello world\nLinked\ttext"; doc.Text != want {
		t.Errorf("Text = %q, want %q", doc.Text, want)
	}
	if doc.Format != "docx" || doc.Name != "paper.docx" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestImportPPTX(t *testing.T) {
	data := zipOf(t, map[string]string{
		"ppt/slides/slide10.xml":           slideXML("Ten"),
		"ppt/slides/slide2.xml":            slideXML("Two", "Second line"),
		"ppt/slides/slide1.xml":            slideXML("One"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
	})

	got, err := Extract("deck.pptx", data)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if want := "One\n\nTwo\nSecond line\n\nTen"; got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

func TestImportPDF(t *testing.T) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetCompression(false)
	p.SetFont("Helvetica", "", 12)
	p.AddPage()
	p.Cell(40, 10, "Imported doi:10.1038/nature14539")
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		t.Fatal(err)
	}

	doc, err := Import("scan.pdf", buf.Bytes())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !strings.Contains(doc.Text, "Imported") {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.DOI != "10.1038/nature14539" {
		t.Errorf("DOI = %q", doc.DOI)
	}
}

func TestImportPDFPageCap(t *testing.T) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetCompression(false)
	p.SetFont("Helvetica", "", 12)
	for i := 1; i <= MaxPDFPages+1; i++ {
		p.AddPage()
		p.Cell(40, 10, fmt.Sprintf("Page%d", i))
	}
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		t.Fatal(err)
	}

	doc, err := Import("long.pdf", buf.Bytes())
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !strings.Contains(doc.Text, fmt.Sprintf("Page%d", MaxPDFPages)) {
		t.Errorf("last allowed page missing")
	}
	if strings.Contains(doc.Text, fmt.Sprintf("Page%d", MaxPDFPages+1)) {
		t.Errorf("page beyond MaxPDFPages was imported")
	}
}

func TestImportDOC(t *testing.T) {
	t.Run("docx payload", func(t *testing.T) {
		data := zipOf(t, map[string]string{"word/document.xml": docxBody})
		got, err := Extract("old.doc", data)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if !strings.HasPrefix(got, "Hello world") {
			t.Errorf("Extract() = %q", got)
		}
	})

	t.Run("binary", func(t *testing.T) {
		data := append([]byte{}, oleMagic...)
		data = append(data, make([]byte, 24)...)
		data = append(data, utf16LE("Root Entry")[2:]...)
		data = append(data, 0, 0)
		data = append(data, utf16LE("The quick brown fox jumps over the lazy dog.")[2:]...)
		data = append(data, 0, 0, 1, 2)

		got, err := Extract("old.doc", data)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if got != "The quick brown fox jumps over the lazy dog." {
			t.Errorf("Extract() = %q", got)
		}
	})

	t.Run("not word", func(t *testing.T) {
		_, err := Extract("old.doc", []byte("plain bytes"))
		if !errors.Is(err, ErrParse) {
			t.Errorf("error = %v, want ErrParse", err)
		}
	})
}

func TestImportUnsupported(t *testing.T) {
	_, err := Import("figure.xyz", []byte("anything"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
	if !strings.Contains(err.Error(), ".xyz") {
		t.Errorf("error %q does not name the extension", err)
	}

	_, err = Import("README", nil)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("no extension: error = %v", err)
	}
}

func TestImportParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"broken.docx", []byte("not a zip")},
		{"nodoc.docx", zipOf(t, map[string]string{"other.xml": "<x/>"})},
		{"empty.docx", zipOf(t, map[string]string{"word/document.xml": `<w:document xmlns:w="w"><w:body/></w:document>`})},
		{"noslides.pptx", zipOf(t, map[string]string{"ppt/presentation.xml": "<p/>"})},
		{"bad.pdf", []byte("%PDF-garbage")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(tt.name, tt.data)
			if !errors.Is(err, ErrParse) {
				t.Errorf("error = %v, want ErrParse", err)
			}
		})
	}
}

func TestSupportedExtensions(t *testing.T) {
	got := strings.Join(SupportedExtensions(), ",")
	if got != ".doc,.docx,.pdf,.pptx,.txt" {
		t.Errorf("SupportedExtensions() = %s", got)
	}
}
