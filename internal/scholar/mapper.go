package scholar

import (
	"strconv"
	"strings"

	"github.com/matsen/quill/internal/reference"
)

// ToSource converts a Paper to a fresh Source.
func ToSource(p Paper) reference.Source {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			names = append(names, n)
		}
	}

	src := reference.Source{
		Title:       p.Title,
		Author:      strings.Join(names, ", "),
		Publication: p.Venue,
		Snippet:     p.Abstract,
		URL:         p.URL,
		DOI:         p.ExternalIDs.DOI,
	}
	if p.Year > 0 {
		src.Year = strconv.Itoa(p.Year)
	}
	if src.URL == "" && src.DOI != "" {
		src.URL = "https://doi.org/" + src.DOI
	}
	return src.Trimmed()
}

// ToResults splits papers into the suggested top hits and the related rest.
func ToResults(papers []Paper, suggested int) reference.Results {
	res := reference.Results{
		Suggested: []reference.Source{},
		Related:   []reference.Source{},
	}
	for _, p := range papers {
		src := ToSource(p)
		if src.Title == "" {
			continue
		}
		if len(res.Suggested) < suggested {
			res.Suggested = append(res.Suggested, src)
		} else {
			res.Related = append(res.Related, src)
		}
	}
	return res
}
