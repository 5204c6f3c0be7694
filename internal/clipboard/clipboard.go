// Package clipboard copies document text to the system clipboard.
package clipboard

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/markup"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// IsAvailable checks if clipboard functionality is available on this system.
func IsAvailable() bool {
	return !clipboard.Unsupported
}

// Copy copies the given text to the system clipboard.
// Returns ErrClipboardUnavailable if clipboard access is not available.
func Copy(text string) error {
	if !IsAvailable() {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(text)
}

// PlainText renders the document and its bibliography with all markup
// removed: every asterisk is dropped and the math-italic et al. token
// becomes plain "et al.".
func PlainText(text string, entries []bibliography.Entry, heading string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(toPlain(text), "\n"))
	if len(entries) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(heading)
		b.WriteString("\n")
		for _, e := range entries {
			b.WriteString("\n")
			b.WriteString(toPlain(e.Text))
		}
	}
	return b.String()
}

func toPlain(text string) string {
	return markup.ToPlain(markup.NormalizeEtAl(text))
}
