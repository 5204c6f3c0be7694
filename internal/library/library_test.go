package library

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matsen/quill/internal/reference"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	n := 0
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lib, err := Open(
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("src-%d", n) }),
	)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestAddAssignsIdentity(t *testing.T) {
	lib := openTestLibrary(t)

	src := reference.Source{Title: "Paper", Author: "Doe, J.", URL: "https://example.org/p"}
	if src.Saved() {
		t.Fatal("fresh source should not be saved")
	}

	saved, err := lib.Add(src)
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if !saved.Saved() || saved.ID != "src-1" {
		t.Errorf("Add() = %+v, want ID and DateAdded set", saved)
	}

	got, ok, err := lib.Get("src-1")
	if err != nil || !ok {
		t.Fatalf("Get() = %v, %v", ok, err)
	}
	if got.ID != saved.ID || got.Title != saved.Title || got.URL != saved.URL || !got.DateAdded.Equal(saved.DateAdded) {
		t.Errorf("Get() = %+v, want %+v", got, saved)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name string
		src  reference.Source
	}{
		{"same url", reference.Source{Title: "Other title", URL: "https://example.org/p"}},
		{"same title", reference.Source{Title: "Paper", URL: "https://example.org/other"}},
		{"same title no url", reference.Source{Title: "Paper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := openTestLibrary(t)
			if _, err := lib.Add(reference.Source{Title: "Paper", URL: "https://example.org/p"}); err != nil {
				t.Fatalf("Add() error: %v", err)
			}

			_, err := lib.Add(tt.src)
			if !errors.Is(err, ErrDuplicate) {
				t.Errorf("Add() error = %v, want ErrDuplicate", err)
			}
			if n, _ := lib.Len(); n != 1 {
				t.Errorf("rejected add must not mutate, Len() = %d", n)
			}
		})
	}
}

func TestAddEmptyURLsDoNotConflict(t *testing.T) {
	lib := openTestLibrary(t)

	if _, err := lib.Add(reference.Source{Title: "One"}); err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if _, err := lib.Add(reference.Source{Title: "Two"}); err != nil {
		t.Errorf("sources without URLs should not conflict: %v", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	lib := openTestLibrary(t)
	for _, title := range []string{"Zeta", "Alpha", "Mu"} {
		if _, err := lib.Add(reference.Source{Title: title}); err != nil {
			t.Fatalf("Add(%q) error: %v", title, err)
		}
	}

	list, err := lib.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	var titles []string
	for _, s := range list {
		titles = append(titles, s.Title)
	}
	if fmt.Sprint(titles) != "[Zeta Alpha Mu]" {
		t.Errorf("List() titles = %v, want insertion order", titles)
	}
}

func TestRemove(t *testing.T) {
	lib := openTestLibrary(t)
	saved, _ := lib.Add(reference.Source{Title: "Paper", URL: "u"})

	removed, err := lib.Remove(saved.ID)
	if err != nil || !removed {
		t.Fatalf("Remove() = %v, %v", removed, err)
	}
	removed, err = lib.Remove(saved.ID)
	if err != nil || removed {
		t.Errorf("Remove() of absent ID = %v, %v; want no-op", removed, err)
	}

	// The same source can be saved again once removed.
	if _, err := lib.Add(reference.Source{Title: "Paper", URL: "u"}); err != nil {
		t.Errorf("Add() after Remove() error: %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	lib := openTestLibrary(t)
	_, ok, err := lib.Get("nope")
	if err != nil || ok {
		t.Errorf("Get() = %v, %v; want not found", ok, err)
	}
}
