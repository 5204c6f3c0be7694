package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/quill/internal/markup"
)

// linesPerSlide bounds the body paragraphs placed on one slide.
const linesPerSlide = 10

const (
	nsA = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`
	nsR = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	nsP = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	relsNS    = `xmlns="http://schemas.openxmlformats.org/package/2006/relationships"`
	relBase   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"

	emptyTree = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`
)

const pptxMaster = xmlHeader + `<p:sldMaster ` + nsA + ` ` + nsR + ` ` + nsP + `><p:cSld><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const pptxLayout = xmlHeader + `<p:sldLayout ` + nsA + ` ` + nsR + ` ` + nsP + ` type="blank" preserve="1"><p:cSld name="Blank"><p:spTree>` + emptyTree + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const pptxTheme = xmlHeader + `<a:theme ` + nsA + ` name="Quill"><a:themeElements>` +
	`<a:clrScheme name="Quill">` +
	`<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F2937"/></a:dk2><a:lt2><a:srgbClr val="F3F4F6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="2563EB"/></a:accent1><a:accent2><a:srgbClr val="7C3AED"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="059669"/></a:accent3><a:accent4><a:srgbClr val="D97706"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="DC2626"/></a:accent5><a:accent6><a:srgbClr val="0891B2"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="2563EB"/></a:hlink><a:folHlink><a:srgbClr val="7C3AED"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Quill"><a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme>` +
	`<a:fmtScheme name="Quill">` +
	`<a:fillStyleLst>` + solidFill + solidFill + solidFill + `</a:fillStyleLst>` +
	`<a:lnStyleLst>` + line + line + line + `</a:lnStyleLst>` +
	`<a:effectStyleLst>` + effect + effect + effect + `</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` + solidFill + solidFill + solidFill + `</a:bgFillStyleLst>` +
	`</a:fmtScheme></a:themeElements></a:theme>`

const (
	solidFill = `<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>`
	line      = `<a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>`
	effect    = `<a:effectStyle><a:effectLst/></a:effectStyle>`
)

type slide struct {
	title string
	body  [][]markup.Segment
}

// renderPPTX writes a PresentationML package with the document paragraphs
// spread over titled slides, followed by bibliography slides.
func renderPPTX(w io.Writer, doc Document) error {
	title := doc.Title
	if title == "" {
		title = "Document"
	}

	var body [][]markup.Segment
	for _, p := range paragraphs(doc.Text) {
		if strings.TrimSpace(markup.RenderPlain(p)) != "" {
			body = append(body, p)
		}
	}

	slides := paginate(title, body)
	if refs := references(doc); len(refs) > 0 {
		slides = append(slides, paginate(doc.Style.Heading(), refs)...)
	}
	if len(slides) == 0 {
		slides = []slide{{title: title}}
	}

	parts := []zipPart{
		{"[Content_Types].xml", pptxContentTypes(len(slides))},
		{"_rels/.rels", xmlHeader + `<Relationships ` + relsNS + `><Relationship Id="rId1" Type="` + relBase + `officeDocument" Target="ppt/presentation.xml"/></Relationships>`},
		{"ppt/presentation.xml", pptxPresentation(len(slides))},
		{"ppt/_rels/presentation.xml.rels", pptxPresentationRels(len(slides))},
		{"ppt/slideMasters/slideMaster1.xml", pptxMaster},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", xmlHeader + `<Relationships ` + relsNS + `>` +
			`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
			`<Relationship Id="rId2" Type="` + relBase + `theme" Target="../theme/theme1.xml"/></Relationships>`},
		{"ppt/slideLayouts/slideLayout1.xml", pptxLayout},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", xmlHeader + `<Relationships ` + relsNS + `>` +
			`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`},
		{"ppt/theme/theme1.xml", pptxTheme},
	}
	for i, s := range slides {
		parts = append(parts,
			zipPart{fmt.Sprintf("ppt/slides/slide%d.xml", i+1), pptxSlide(s)},
			zipPart{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), xmlHeader + `<Relationships ` + relsNS + `>` +
				`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/></Relationships>`},
		)
	}
	return writeZip(w, parts)
}

func paginate(title string, lines [][]markup.Segment) []slide {
	var out []slide
	for start := 0; start < len(lines); start += linesPerSlide {
		end := min(start+linesPerSlide, len(lines))
		out = append(out, slide{title: title, body: lines[start:end]})
	}
	return out
}

func pptxContentTypes(n int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

func pptxPresentation(n int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation ` + nsA + ` ` + nsR + ` ` + nsP + `>`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
	}
	b.WriteString(`</p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`)
	return b.String()
}

func pptxPresentationRels(n int) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships ` + relsNS + `>`)
	b.WriteString(`<Relationship Id="rId1" Type="` + relBase + `slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="` + relBase + `theme" Target="theme/theme1.xml"/>`)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="%sslide" Target="slides/slide%d.xml"/>`, i+3, relBase, i+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func pptxSlide(s slide) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld ` + nsA + ` ` + nsR + ` ` + nsP + `><p:cSld><p:spTree>` + emptyTree)

	writeTextBox(&b, 2, "Title", 457200, 274638, 11277600, 914400, func(b *strings.Builder) {
		b.WriteString(`<a:p><a:r><a:rPr lang="en-US" sz="3200" b="1" dirty="0"/><a:t>`)
		b.WriteString(escapeXML(s.title))
		b.WriteString(`</a:t></a:r></a:p>`)
	})
	if len(s.body) > 0 {
		writeTextBox(&b, 3, "Body", 457200, 1371600, 11277600, 5029200, func(b *strings.Builder) {
			for _, segs := range s.body {
				b.WriteString(`<a:p>`)
				for _, seg := range segs {
					b.WriteString(`<a:r><a:rPr lang="en-US" sz="1600"`)
					if seg.Italic {
						b.WriteString(` i="1"`)
					}
					b.WriteString(` dirty="0"/><a:t>`)
					b.WriteString(escapeXML(seg.Text))
					b.WriteString(`</a:t></a:r>`)
				}
				b.WriteString(`</a:p>`)
			}
		})
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

func writeTextBox(b *strings.Builder, id int, name string, x, y, cx, cy int, paras func(*strings.Builder)) {
	fmt.Fprintf(b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name)
	fmt.Fprintf(b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, x, y, cx, cy)
	b.WriteString(`<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>`)
	paras(b)
	b.WriteString(`</p:txBody></p:sp>`)
}
