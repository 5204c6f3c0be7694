package export

import (
	"strings"

	"github.com/matsen/quill/internal/markup"
)

// paragraphs splits editor text into lines of segments. The math-italic
// et al. token becomes an italic run, as does any asterisk emphasis.
func paragraphs(text string) [][]markup.Segment {
	text = strings.TrimRight(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([][]markup.Segment, len(lines))
	for i, line := range lines {
		out[i] = markup.Parse(line)
	}
	return out
}

// references renders each entry with the style's list label.
func references(doc Document) [][]markup.Segment {
	out := make([][]markup.Segment, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		segs := markup.Parse(e.Text)
		if label := doc.Style.Label(i); label != "" {
			segs = append([]markup.Segment{{Text: label}}, segs...)
		}
		out = append(out, segs)
	}
	return out
}
