// Package importer converts uploaded documents into plain editor text.
package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matsen/quill/internal/pdf"
)

var (
	// ErrUnsupportedType is returned for file extensions with no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrParse is returned when a file of a supported type cannot be read.
	ErrParse = errors.New("could not parse file")
)

// Document is the result of an import.
type Document struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Text   string `json:"text"`
	DOI    string `json:"doi,omitempty"`
}

// MaxPDFPages caps how many pages of a PDF are imported.
const MaxPDFPages = 300

type extractor func(data []byte) (string, error)

var extractors = map[string]extractor{
	".txt":  extractPlainText,
	".docx": extractDOCX,
	".pptx": extractPPTX,
	".pdf":  extractPDF,
	".doc":  extractDOC,
}

func extractPDF(data []byte) (string, error) {
	return pdf.ExtractPages(data, MaxPDFPages)
}

// SupportedExtensions returns the recognized extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Import extracts plain text from data, dispatching on the extension of
// name. An unsupported extension fails before data is inspected.
func Import(name string, data []byte) (Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	extract, ok := extractors[ext]
	if !ok {
		if ext == "" {
			return Document{}, fmt.Errorf("%w: %q has no extension (supported: %s)",
				ErrUnsupportedType, filepath.Base(name), strings.Join(SupportedExtensions(), ", "))
		}
		return Document{}, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedType, ext, strings.Join(SupportedExtensions(), ", "))
	}

	text, err := extract(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrParse, filepath.Base(name), err)
	}
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" && ext != ".txt" {
		return Document{}, fmt.Errorf("%w: %s: no text found", ErrParse, filepath.Base(name))
	}

	doc := Document{
		Name:   filepath.Base(name),
		Format: strings.TrimPrefix(ext, "."),
		Text:   text,
	}
	if ext == ".pdf" {
		doc.DOI = pdf.FindDOI(text)
	}
	return doc, nil
}

// Extract is Import reduced to the extracted text.
func Extract(name string, data []byte) (string, error) {
	doc, err := Import(name, data)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
