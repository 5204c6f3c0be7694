package markup

import "strings"

// RenderPlain joins segments without any emphasis markers.
func RenderPlain(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// RenderAsterisk joins segments, wrapping italic runs in single asterisks.
func RenderAsterisk(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Italic {
			b.WriteString("*")
			b.WriteString(s.Text)
			b.WriteString("*")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// RenderMarkdown renders segments as Markdown. Italic runs use underscores so
// that literal asterisks in plain runs can be escaped unambiguously.
func RenderMarkdown(segs []Segment) string {
	escaper := strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`)
	var b strings.Builder
	for _, s := range segs {
		if s.Italic {
			b.WriteString("_")
			b.WriteString(escaper.Replace(s.Text))
			b.WriteString("_")
			continue
		}
		b.WriteString(escaper.Replace(s.Text))
	}
	return b.String()
}

// RenderEditor renders segments for the editable document. The only emphasis
// carried inline is the math-italic et al. token; other italics become plain.
func RenderEditor(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Italic && s.Text == "et al." {
			b.WriteString(EtAlToken)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
