// Package style enumerates the citation styles a user can select.
// The formatting collaborator receives the style name verbatim and is solely
// responsible for style-specific rendering rules.
package style

import (
	"fmt"
	"strings"
	"unicode"
)

// Style is a citation style name.
type Style string

// Supported styles.
const (
	Harvard   Style = "Harvard"
	APA7      Style = "APA 7th"
	MLA9      Style = "MLA 9th"
	Chicago   Style = "Chicago"
	Vancouver Style = "Vancouver"
	IEEE      Style = "IEEE"
)

// Default is used when no style is configured.
const Default = Harvard

// All returns every supported style in presentation order.
func All() []Style {
	return []Style{Harvard, APA7, MLA9, Chicago, Vancouver, IEEE}
}

// aliases maps folded names to styles.
var aliases = map[string]Style{
	"harvard":   Harvard,
	"apa":       APA7,
	"apa7":      APA7,
	"apa7th":    APA7,
	"mla":       MLA9,
	"mla9":      MLA9,
	"mla9th":    MLA9,
	"chicago":   Chicago,
	"vancouver": Vancouver,
	"ieee":      IEEE,
}

// Parse resolves a user-supplied style name. Matching ignores case, spaces and
// punctuation, so "APA 7th", "apa7" and "apa" all resolve to APA7.
func Parse(name string) (Style, error) {
	if s, ok := aliases[fold(name)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown citation style %q (valid: %s)", name, strings.Join(Names(), ", "))
}

// Names returns the display names of every supported style.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = string(s)
	}
	return names
}

// Valid reports whether s is one of the supported styles.
func (s Style) Valid() bool {
	for _, v := range All() {
		if s == v {
			return true
		}
	}
	return false
}

// Numeric reports whether the style labels references by number.
func (s Style) Numeric() bool {
	return s == Vancouver || s == IEEE
}

// Heading returns the title of the reference list.
func (s Style) Heading() string {
	switch s {
	case MLA9:
		return "Works Cited"
	case Chicago:
		return "Bibliography"
	default:
		return "References"
	}
}

// Label returns the list label for the reference at zero-based index i.
// Author-date styles are unlabelled.
func (s Style) Label(i int) string {
	switch s {
	case IEEE:
		return fmt.Sprintf("[%d] ", i+1)
	case Vancouver:
		return fmt.Sprintf("%d. ", i+1)
	default:
		return ""
	}
}

// String returns the style's display name.
func (s Style) String() string {
	return string(s)
}

func fold(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
