package session

import "unicode/utf8"

// ContextRadius is how many bytes of document text on each side of the
// selection are sent to the search collaborator.
const ContextRadius = 500

// ContextWindow returns the selection plus up to ContextRadius bytes on
// either side, trimmed inward to character boundaries.
func ContextWindow(text string, start, end int) string {
	lo := max(0, start-ContextRadius)
	for lo < start && !utf8.RuneStart(text[lo]) {
		lo++
	}
	hi := min(len(text), end+ContextRadius)
	for hi > end && hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi--
	}
	return text[lo:hi]
}
