package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matsen/quill/internal/markup"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const coreProps = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>%s</dc:title></cp:coreProperties>`

// renderDOCX writes a WordprocessingML package: an optional title, the
// document paragraphs, then the bibliography under the style's heading.
func renderDOCX(w io.Writer, doc Document) error {
	var body strings.Builder
	if doc.Title != "" {
		writeDOCXHeading(&body, doc.Title, 36)
	}
	for _, p := range paragraphs(doc.Text) {
		writeDOCXParagraph(&body, p)
	}
	if refs := references(doc); len(refs) > 0 {
		writeDOCXHeading(&body, doc.Style.Heading(), 28)
		for _, r := range refs {
			writeDOCXParagraph(&body, r)
		}
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr></w:body></w:document>`

	return writeZip(w, []zipPart{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"docProps/core.xml", fmt.Sprintf(coreProps, escapeXML(doc.Title))},
		{"word/document.xml", document},
	})
}

func writeDOCXHeading(b *strings.Builder, text string, halfPoints int) {
	b.WriteString(`<w:p><w:r><w:rPr><w:b/><w:sz w:val="`)
	b.WriteString(strconv.Itoa(halfPoints))
	b.WriteString(`"/></w:rPr><w:t xml:space="preserve">`)
	b.WriteString(escapeXML(text))
	b.WriteString(`</w:t></w:r></w:p>`)
}

func writeDOCXParagraph(b *strings.Builder, segs []markup.Segment) {
	b.WriteString("<w:p>")
	for _, s := range segs {
		b.WriteString("<w:r>")
		if s.Italic {
			b.WriteString("<w:rPr><w:i/></w:rPr>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(escapeXML(s.Text))
		b.WriteString("</w:t></w:r>")
	}
	b.WriteString("</w:p>")
}

type zipPart struct {
	name    string
	content string
}

func writeZip(w io.Writer, parts []zipPart) error {
	zw := zip.NewWriter(w)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, p.content); err != nil {
			return err
		}
	}
	return zw.Close()
}

func escapeXML(s string) string {
	var b strings.Builder
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
