// Package history keeps a linear undo/redo log over snapshots of the
// document text and bibliography, coalescing rapid edits into one step.
package history

import "github.com/matsen/quill/internal/bibliography"

// Snapshot is a copy of the editing state at one point in time.
type Snapshot struct {
	Text         string               `json:"text"`
	Bibliography []bibliography.Entry `json:"bibliography"`
}

// NewSnapshot copies text and entries into a snapshot, so later mutation of
// live state never alters history.
func NewSnapshot(text string, entries []bibliography.Entry) Snapshot {
	return Snapshot{Text: text, Bibliography: bibliography.Copy(entries)}
}

// Clone returns an independent copy of s.
func (s Snapshot) Clone() Snapshot {
	return NewSnapshot(s.Text, s.Bibliography)
}

// Equal reports whether two snapshots have the same text and bibliography content.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Text == o.Text && bibliography.Equal(s.Bibliography, o.Bibliography)
}
