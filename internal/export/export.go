// Package export renders the document and its bibliography to downloadable
// formats.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/style"
)

// Format names an export target.
type Format string

// Supported export formats.
const (
	DOCX     Format = "docx"
	PPTX     Format = "pptx"
	PDF      Format = "pdf"
	Markdown Format = "md"
	BibTeX   Format = "bib"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Formats returns every supported format.
func Formats() []Format {
	return []Format{DOCX, PPTX, PDF, Markdown, BibTeX}
}

// ParseFormat resolves a format name, accepting a leading dot.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")))
	if f == "markdown" {
		f = Markdown
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}

// Document is what every renderer consumes. Text is editor text; entry
// texts use asterisk italics.
type Document struct {
	Title   string
	Text    string
	Entries []bibliography.Entry
	Style   style.Style
}

// Renderer writes one export format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, doc Document) error

// Render calls f(w, doc).
func (f RendererFunc) Render(w io.Writer, doc Document) error {
	return f(w, doc)
}

// ForFormat returns the renderer for f.
func ForFormat(f Format) (Renderer, error) {
	switch f {
	case DOCX:
		return RendererFunc(renderDOCX), nil
	case PPTX:
		return RendererFunc(renderPPTX), nil
	case PDF:
		return NewPDFRenderer(), nil
	case Markdown:
		return RendererFunc(renderMarkdown), nil
	case BibTeX:
		return RendererFunc(renderBibTeX), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// Write renders doc in format f to w. A renderer panic is returned as an
// error.
func Write(w io.Writer, f Format, doc Document) error {
	r, err := ForFormat(f)
	if err != nil {
		return err
	}
	return render(w, string(f), r, doc)
}

func render(w io.Writer, name string, r Renderer, doc Document) (err error) {
	if !doc.Style.Valid() {
		doc.Style = style.Default
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rendering %s: %v", name, p)
		}
	}()

	bw := bufio.NewWriter(w)
	if err := r.Render(bw, doc); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	return bw.Flush()
}
