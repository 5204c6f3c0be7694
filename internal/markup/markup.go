// Package markup converts between the textual emphasis encodings used across
// the editor: plain text, asterisk-delimited italics, and the Unicode
// math-italic "et al." token carried by in-text citations.
//
// The internal representation is a sequence of Segments; each destination
// (clipboard, editor, export) renders it with its own renderer.
package markup

import (
	"regexp"
	"strings"
)

// EtAlToken is the math-italic rendering of "et al." embedded in document prose
// so the citation marker stays visually distinct without rich-text spans.
const EtAlToken = "\U0001D452\U0001D461 \U0001D44E\U0001D459."

// EtAlAsterisk is the asterisk-delimited form of "et al." used by the
// bibliography model and export paths.
const EtAlAsterisk = "*et al.*"

// emphasisPattern matches a single asterisk-delimited run with a non-empty,
// asterisk-free interior.
var emphasisPattern = regexp.MustCompile(`\*[^*]+\*`)

// Segment is one run of text with uniform emphasis.
type Segment struct {
	Text   string `json:"text"`
	Italic bool   `json:"italic"`
}

// SplitEmphasis parses asterisk-delimited italics into segments.
// Stray or unmatched asterisks are kept as literal text.
func SplitEmphasis(text string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range emphasisPattern.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = appendPlain(segs, text[last:loc[0]])
		}
		segs = append(segs, Segment{Text: text[loc[0]+1 : loc[1]-1], Italic: true})
		last = loc[1]
	}
	if last < len(text) {
		segs = appendPlain(segs, text[last:])
	}
	return segs
}

// Parse normalizes the et al. token and splits the result into segments.
// It accepts text from any source: document prose, bibliography entries, or
// collaborator output.
func Parse(text string) []Segment {
	return SplitEmphasis(NormalizeEtAl(text))
}

// ToPlain strips every asterisk from text.
func ToPlain(text string) string {
	return strings.ReplaceAll(text, "*", "")
}

// NormalizeEtAl replaces every math-italic et al. token with its asterisk form.
func NormalizeEtAl(text string) string {
	return strings.ReplaceAll(text, EtAlToken, EtAlAsterisk)
}

// DenormalizeEtAl replaces every asterisk et al. with the math-italic token,
// for injecting citations into plain prose.
func DenormalizeEtAl(text string) string {
	return strings.ReplaceAll(text, EtAlAsterisk, EtAlToken)
}

// appendPlain appends a plain run, merging it into a preceding plain run.
func appendPlain(segs []Segment, text string) []Segment {
	if n := len(segs); n > 0 && !segs[n-1].Italic {
		segs[n-1].Text += text
		return segs
	}
	return append(segs, Segment{Text: text})
}
