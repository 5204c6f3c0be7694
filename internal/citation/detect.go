// Package citation detects in-text citation markers, splices formatted
// citations into document text, and builds fallback citations when the
// formatting collaborator is unavailable.
package citation

import "regexp"

// markerPattern matches a parenthesized author-year marker: an uppercase
// letter, then letters, whitespace, '.', '&' or '-', an optional " et al.",
// then ", " and exactly four digits.
//
// Letters are Unicode letters so that names with diacritics and the
// math-italic et al. token are recognized.
var markerPattern = regexp.MustCompile(`\(\p{Lu}[\p{L}\s.&-]+(?: et al\.)?, \d{4}\)`)

// Marker is one detected citation. Offsets are byte offsets into the text;
// End is exclusive.
type Marker struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// FindCitations returns every citation marker in text, left to right.
// Matches never overlap. The text is not modified.
func FindCitations(text string) []Marker {
	locs := markerPattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	markers := make([]Marker, len(locs))
	for i, loc := range locs {
		markers[i] = Marker{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]}
	}
	return markers
}
