// Package bibliography maintains the document's reference list: a
// deduplicated collection of entries kept in locale-aware order of their
// rendered text.
package bibliography

import (
	"sort"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/matsen/quill/internal/reference"
)

// Entry is one rendered reference-list item. Text is markup-normalized
// (asterisk italics) and is the deduplication key.
type Entry struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Source reference.Source `json:"source"`
}

// NewEntry builds an entry with a fresh ID.
func NewEntry(text string, src reference.Source) Entry {
	return Entry{ID: uuid.NewString(), Text: text, Source: src}
}

// Store is the bibliography of one editing session.
//
// No two entries share the same Text, and entries are always sorted by Text.
// Deduplication is purely textual: two entries citing the same work coexist
// when their rendered text differs.
type Store struct {
	entries  []Entry
	collator *collate.Collator
}

// NewStore creates an empty store ordering entries by the given locale.
func NewStore(tag language.Tag) *Store {
	return &Store{collator: collate.New(tag)}
}

// InsertIfAbsent adds e unless an entry with identical Text exists.
// Entries without an ID are assigned one. Reports whether e was inserted.
func (s *Store) InsertIfAbsent(e Entry) bool {
	if s.Contains(e.Text) {
		return false
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.entries = append(s.entries, e)
	s.sort()
	return true
}

// Contains reports whether an entry with exactly this text exists.
func (s *Store) Contains(text string) bool {
	for _, e := range s.entries {
		if e.Text == text {
			return true
		}
	}
	return false
}

// Get returns the entry with the given ID.
func (s *Store) Get(id string) (Entry, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Remove deletes the entry with the given ID. Reports whether it existed.
func (s *Store) Remove(id string) bool {
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.entries = nil
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the entries in order.
func (s *Store) Entries() []Entry {
	return Copy(s.entries)
}

// Replace swaps the store contents for a copy of entries, e.g. when
// restoring a history snapshot. Duplicate texts are dropped.
func (s *Store) Replace(entries []Entry) {
	s.entries = nil
	for _, e := range entries {
		if !s.Contains(e.Text) {
			s.entries = append(s.entries, e)
		}
	}
	s.sort()
}

// Compare orders two entry texts the way the store does.
func (s *Store) Compare(a, b string) int {
	return s.collator.CompareString(a, b)
}

// sort recomputes the full order; it is never patched incrementally.
func (s *Store) sort() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.collator.CompareString(s.entries[i].Text, s.entries[j].Text) < 0
	})
}

// Copy returns a copy of entries. Entry holds only values, so the copy shares
// nothing with the original.
func Copy(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Equal reports whether two entry sequences have the same content in the
// same order. IDs are ignored.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Text != b[i].Text || a[i].Source != b[i].Source {
			return false
		}
	}
	return true
}
