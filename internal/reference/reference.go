// Package reference defines the core domain types for citable sources.
package reference

import (
	"strings"
	"time"
)

// Source is a candidate or saved reference.
//
// Author is free-form and preserved verbatim; Year is not validated as numeric.
// ID and DateAdded are only assigned when a source is saved to the library, so a
// source returned fresh from a search never carries them.
type Source struct {
	// Identity (assigned on library insertion)
	ID        string    `json:"id,omitempty"`
	DateAdded time.Time `json:"date_added,omitzero"`

	// Metadata
	Title       string `json:"title"`
	Author      string `json:"author"`
	Year        string `json:"year"`
	Publication string `json:"publication"`
	Snippet     string `json:"snippet,omitempty"`

	// Locators
	URL string `json:"url"`
	DOI string `json:"doi,omitempty"`
}

// Results is the response of a source search: sources suggested for the
// selected text and sources related to the surrounding context.
type Results struct {
	Suggested []Source `json:"suggested"`
	Related   []Source `json:"related"`
}

// Len returns the total number of sources in both groups.
func (r Results) Len() int {
	return len(r.Suggested) + len(r.Related)
}

// At returns the i-th source counting suggested sources first.
func (r Results) At(i int) (Source, bool) {
	if i < 0 || i >= r.Len() {
		return Source{}, false
	}
	if i < len(r.Suggested) {
		return r.Suggested[i], true
	}
	return r.Related[i-len(r.Suggested)], true
}

// Fresh returns a copy of the source with library-assigned identity cleared.
func (s Source) Fresh() Source {
	s.ID = ""
	s.DateAdded = time.Time{}
	return s
}

// Saved reports whether the source carries library-assigned identity.
func (s Source) Saved() bool {
	return s.ID != "" && !s.DateAdded.IsZero()
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s Source) Trimmed() Source {
	s.Title = strings.TrimSpace(s.Title)
	s.Author = strings.TrimSpace(s.Author)
	s.Year = strings.TrimSpace(s.Year)
	s.Publication = strings.TrimSpace(s.Publication)
	s.Snippet = strings.TrimSpace(s.Snippet)
	s.URL = strings.TrimSpace(s.URL)
	s.DOI = strings.TrimSpace(s.DOI)
	return s
}
