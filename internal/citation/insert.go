package citation

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/matsen/quill/internal/bibliography"
	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/reference"
)

// ErrOffsetOutOfRange is returned when the insertion point does not fall on a
// character boundary inside the document.
var ErrOffsetOutOfRange = errors.New("insertion point out of range")

// Result is a formatted citation pair: the marker spliced into prose and the
// reference-list rendering. It is produced once per citation action.
type Result struct {
	InText       string `json:"inText"`
	Bibliography string `json:"bibliography"`
}

// Normalized returns the result with each half in its destination encoding:
// the in-text marker carries the math-italic et al. token, the bibliography
// string carries asterisk italics.
func (r Result) Normalized() Result {
	return Result{
		InText:       markup.DenormalizeEtAl(r.InText),
		Bibliography: markup.NormalizeEtAl(r.Bibliography),
	}
}

// Insertion is the outcome of inserting a citation.
type Insertion struct {
	Text     string             `json:"text"`
	Entry    bibliography.Entry `json:"entry"`
	Inserted bool               `json:"inserted"`
}

// Splice inserts inText into doc at byte offset at. A single space separates
// the preceding text from the citation unless that text already ends in
// whitespace; whatever followed the insertion point is kept as is.
func Splice(doc string, at int, inText string) (string, error) {
	if at < 0 || at > len(doc) || (at < len(doc) && !utf8.RuneStart(doc[at])) {
		return "", fmt.Errorf("%w: offset %d in text of length %d", ErrOffsetOutOfRange, at, len(doc))
	}

	before, after := doc[:at], doc[at:]
	sep := " "
	if r, _ := utf8.DecodeLastRuneInString(before); r != utf8.RuneError && unicode.IsSpace(r) {
		sep = ""
	}
	return before + sep + inText + after, nil
}

// Insert splices the citation into doc after the selection end and adds the
// bibliography half to store unless an entry with identical text exists.
// The store is only modified when the splice succeeds.
func Insert(doc string, selectionEnd int, res Result, src reference.Source, store *bibliography.Store) (Insertion, error) {
	res = res.Normalized()

	text, err := Splice(doc, selectionEnd, res.InText)
	if err != nil {
		return Insertion{}, err
	}

	entry := bibliography.NewEntry(res.Bibliography, src)
	inserted := store.InsertIfAbsent(entry)
	if !inserted {
		for _, e := range store.Entries() {
			if e.Text == entry.Text {
				entry = e
				break
			}
		}
	}

	return Insertion{Text: text, Entry: entry, Inserted: inserted}, nil
}
