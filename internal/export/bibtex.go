package export

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/reference"
)

// renderBibTeX writes one BibTeX entry per bibliography entry.
func renderBibTeX(w io.Writer, doc Document) error {
	_, err := io.WriteString(w, ToBibTeXList(doc.Entries))
	return err
}

// ToBibTeXList converts bibliography entries to BibTeX, giving each a unique
// citation key.
func ToBibTeXList(entries []bibliography.Entry) string {
	used := make(map[string]int)
	var out []string
	for _, e := range entries {
		key := citeKey(e.Source)
		used[key]++
		if n := used[key]; n > 1 {
			key += string(rune('a' + n - 2))
		}
		out = append(out, ToBibTeX(key, e))
	}
	return strings.Join(out, "\n")
}

// ToBibTeX converts one entry. Entries whose source lacks a title fall back
// to @misc with the formatted text as a note.
func ToBibTeX(key string, e bibliography.Entry) string {
	src := e.Source.Trimmed()
	var b strings.Builder

	if src.Title == "" {
		fmt.Fprintf(&b, "@misc{%s,\n", key)
		fmt.Fprintf(&b, "  note = {%s},\n", escapeLatex(markup.ToPlain(e.Text)))
		b.WriteString("}\n")
		return b.String()
	}

	entryType := determineEntryType(src)
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, key)

	// Authors
	if src.Author != "" {
		fmt.Fprintf(&b, "  author = {%s},\n", formatAuthors(src.Author))
	}

	// Title
	fmt.Fprintf(&b, "  title = {%s},\n", escapeLatex(src.Title))

	// Venue
	if src.Publication != "" {
		fieldName := "journal"
		switch entryType {
		case "inproceedings":
			fieldName = "booktitle"
		case "misc":
			fieldName = "howpublished"
		}
		fmt.Fprintf(&b, "  %s = {%s},\n", fieldName, escapeLatex(src.Publication))
	}

	if src.Year != "" {
		fmt.Fprintf(&b, "  year = {%s},\n", escapeLatex(src.Year))
	}
	if src.DOI != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", src.DOI)
	}
	if src.URL != "" {
		fmt.Fprintf(&b, "  url = {%s},\n", src.URL)
	}

	b.WriteString("}\n")
	return b.String()
}

// determineEntryType returns the BibTeX entry type for a source.
func determineEntryType(src reference.Source) string {
	venue := strings.ToLower(src.Publication)

	// Preprints
	if strings.Contains(venue, "arxiv") ||
		strings.Contains(venue, "biorxiv") ||
		strings.Contains(venue, "medrxiv") {
		return "article"
	}

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	// Web pages without a venue
	if venue == "" && src.URL != "" && src.DOI == "" {
		return "misc"
	}

	return "article"
}

// formatAuthors joins the names of a free-form author string with "and".
func formatAuthors(author string) string {
	names := reference.AuthorNames(author)
	if len(names) == 0 {
		return escapeLatex(author)
	}
	for i, n := range names {
		names[i] = escapeLatex(n)
	}
	return strings.Join(names, " and ")
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// citeKey builds surname+year+first title word, ASCII only, e.g. "muller2020deep".
func citeKey(src reference.Source) string {
	surname := "anon"
	if names := reference.AuthorNames(src.Author); len(names) > 0 {
		surname = reference.Surname(names[0])
	}
	var word string
	for _, w := range strings.Fields(src.Title) {
		if w = keyPart(w); len(w) > 3 {
			word = w
			break
		}
	}
	key := keyPart(surname) + keyPart(src.Year) + word
	if key == "" {
		return "ref"
	}
	return key
}

func keyPart(s string) string {
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
