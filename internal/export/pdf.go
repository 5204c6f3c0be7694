package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/fogleman/gg"
	"github.com/go-pdf/fpdf"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/matsen/quill/internal/markup"
)

const (
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
	mmPerInch  = 25.4
)

// PDFRenderer renders the document to page images and wraps them in a PDF,
// so the output matches the on-screen layout rather than reflowed text.
type PDFRenderer struct {
	DPI         float64
	FontSize    float64
	HeadingSize float64
}

// NewPDFRenderer returns a renderer with A4 pages at 110 DPI.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{DPI: 110, FontSize: 11, HeadingSize: 16}
}

// Render writes doc as a PDF built from its page snapshot.
func (r *PDFRenderer) Render(w io.Writer, doc Document) error {
	pages, err := r.Snapshot(doc)
	if err != nil {
		return err
	}
	return WriteSnapshotPDF(w, doc.Title, pages)
}

// Snapshot lays out doc on A4 page images.
func (r *PDFRenderer) Snapshot(doc Document) ([]image.Image, error) {
	regular, err := loadFontFace(goregular.TTF, r.FontSize, r.DPI)
	if err != nil {
		return nil, err
	}
	italic, err := loadFontFace(goitalic.TTF, r.FontSize, r.DPI)
	if err != nil {
		return nil, err
	}
	heading, err := loadFontFace(gobold.TTF, r.HeadingSize, r.DPI)
	if err != nil {
		return nil, err
	}

	p := &painter{
		width:   int(a4WidthMM / mmPerInch * r.DPI),
		height:  int(a4HeightMM / mmPerInch * r.DPI),
		dpi:     r.DPI,
		margin:  r.DPI * 0.9,
		regular: regular,
		italic:  italic,
	}
	p.newPage()

	if doc.Title != "" {
		p.heading(doc.Title, heading, r.HeadingSize)
	}
	for _, para := range paragraphs(doc.Text) {
		p.paragraph(para, r.FontSize)
	}
	if refs := references(doc); len(refs) > 0 {
		p.y += p.lineHeight(r.FontSize)
		p.heading(doc.Style.Heading(), heading, r.HeadingSize)
		for _, ref := range refs {
			p.paragraph(ref, r.FontSize)
		}
	}
	return p.finish(), nil
}

// WriteSnapshotPDF writes one full-bleed A4 page per image.
func WriteSnapshotPDF(w io.Writer, title string, pages []image.Image) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("quill", true)
	if title != "" {
		pdf.SetTitle(title, true)
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, img := range pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, a4WidthMM, a4HeightMM, false, opts, 0, "")
	}
	return pdf.Output(w)
}

func loadFontFace(ttf []byte, size, dpi float64) (font.Face, error) {
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingNone,
	}), nil
}

// painter flows text onto successive page images.
type painter struct {
	width, height int
	dpi           float64
	margin        float64
	regular       font.Face
	italic        font.Face

	dc    *gg.Context
	y     float64
	pages []image.Image
}

func (p *painter) newPage() {
	if p.dc != nil {
		p.pages = append(p.pages, p.dc.Image())
	}
	p.dc = gg.NewContext(p.width, p.height)
	p.dc.SetRGB(1, 1, 1)
	p.dc.Clear()
	p.dc.SetRGB(0, 0, 0)
	p.y = p.margin
}

func (p *painter) finish() []image.Image {
	p.pages = append(p.pages, p.dc.Image())
	p.dc = nil
	return p.pages
}

// lineHeight converts a font size in points to a line height in pixels.
func (p *painter) lineHeight(size float64) float64 {
	return size / 72 * p.dpi * 1.5
}

func (p *painter) ensureLine(lineH float64) {
	if p.y+lineH > float64(p.height)-p.margin {
		p.newPage()
	}
}

func (p *painter) heading(text string, face font.Face, size float64) {
	lineH := p.lineHeight(size)
	p.ensureLine(lineH)
	p.dc.SetFontFace(face)
	p.dc.DrawString(text, p.margin, p.y+lineH*0.7)
	p.y += lineH * 1.3
}

type piece struct {
	text string
	face font.Face
}

func (p *painter) paragraph(segs []markup.Segment, size float64) {
	lineH := p.lineHeight(size)
	right := float64(p.width) - p.margin
	maxW := right - p.margin

	var pieces []piece
	for _, s := range segs {
		face := p.regular
		if s.Italic {
			face = p.italic
		}
		for _, word := range strings.SplitAfter(s.Text, " ") {
			if word != "" {
				pieces = append(pieces, piece{word, face})
			}
		}
	}

	p.ensureLine(lineH)
	x := p.margin
	for _, pc := range pieces {
		p.dc.SetFontFace(pc.face)
		for _, chunk := range p.fit(pc.text, maxW) {
			w, _ := p.dc.MeasureString(strings.TrimRight(chunk, " "))
			if x+w > right && x > p.margin {
				p.y += lineH
				p.ensureLine(lineH)
				x = p.margin
				chunk = strings.TrimLeft(chunk, " ")
			}
			p.dc.DrawString(chunk, x, p.y+lineH*0.7)
			adv, _ := p.dc.MeasureString(chunk)
			x += adv
		}
	}
	p.y += lineH * 1.4
}

// fit splits a word wider than maxW into pieces that each fit.
func (p *painter) fit(word string, maxW float64) []string {
	if w, _ := p.dc.MeasureString(word); w <= maxW {
		return []string{word}
	}
	var out []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if w, _ := p.dc.MeasureString(string(next)); w > maxW && len(cur) > 0 {
			out = append(out, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
