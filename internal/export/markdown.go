package export

import (
	"io"
	"strings"

	"github.com/matsen/quill/internal/markup"
)

// renderMarkdown writes paragraphs separated by blank lines, then the
// bibliography under a second-level heading.
func renderMarkdown(w io.Writer, doc Document) error {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString("# ")
		b.WriteString(doc.Title)
		b.WriteString("\n\n")
	}
	for _, p := range paragraphs(doc.Text) {
		line := markup.RenderMarkdown(p)
		if strings.TrimSpace(line) == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if refs := references(doc); len(refs) > 0 {
		b.WriteString("## ")
		b.WriteString(doc.Style.Heading())
		b.WriteString("\n\n")
		for _, r := range refs {
			b.WriteString(markup.RenderMarkdown(r))
			b.WriteString("\n\n")
		}
	}
	_, err := io.WriteString(w, strings.TrimRight(b.String(), "\n")+"\n")
	return err
}
