package citation

import (
	"strings"

	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/reference"
)

const (
	anonymousAuthor = "Anonymous"
	noDate          = "n.d."
)

// Fallback builds a deterministic minimal citation from the source fields
// alone. It is used when the formatting collaborator fails.
//
//	inText:       (Smith, 2023) | (Smith & Doe, 2023) | (Smith 𝑒𝑡 𝑎𝑙., 2023)
//	bibliography: Smith, J. (2023) *Title*. Publication. Available at: URL
func Fallback(src reference.Source) Result {
	src = src.Trimmed()

	year := src.Year
	if year == "" {
		year = noDate
	}

	return Result{
		InText:       "(" + inTextAuthors(src.Author) + ", " + year + ")",
		Bibliography: fallbackBibliography(src, year),
	}
}

// inTextAuthors renders the author part of an in-text marker.
func inTextAuthors(author string) string {
	names := reference.AuthorNames(author)
	switch len(names) {
	case 0:
		return anonymousAuthor
	case 1:
		return reference.Surname(names[0])
	case 2:
		return reference.Surname(names[0]) + " & " + reference.Surname(names[1])
	default:
		return reference.Surname(names[0]) + " " + markup.EtAlToken
	}
}

func fallbackBibliography(src reference.Source, year string) string {
	author := src.Author
	if author == "" {
		author = anonymousAuthor
	}

	var b strings.Builder
	b.WriteString(author)
	b.WriteString(" (")
	b.WriteString(year)
	b.WriteString(")")
	if src.Title != "" {
		b.WriteString(" *")
		b.WriteString(strings.TrimRight(src.Title, "."))
		b.WriteString("*.")
	} else {
		b.WriteString(".")
	}
	if src.Publication != "" {
		b.WriteString(" ")
		b.WriteString(strings.TrimRight(src.Publication, "."))
		b.WriteString(".")
	}
	if src.URL != "" {
		b.WriteString(" Available at: ")
		b.WriteString(src.URL)
	}
	return b.String()
}
