package citation

import (
	"testing"

	"github.com/matsen/quill/internal/markup"
	"github.com/matsen/quill/internal/reference"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		name   string
		src    reference.Source
		inText string
		bib    string
	}{
		{
			name:   "single author",
			src:    reference.Source{Author: "Smith, J.", Year: "2023", Title: "A Study", Publication: "Nature", URL: "https://example.org/a"},
			inText: "(Smith, 2023)",
			bib:    "Smith, J. (2023) *A Study*. Nature. Available at: https://example.org/a",
		},
		{
			name:   "two authors",
			src:    reference.Source{Author: "Jane Lee and Min Park", Year: "2020", Title: "Pairs."},
			inText: "(Lee & Park, 2020)",
			bib:    "Jane Lee and Min Park (2020) *Pairs*.",
		},
		{
			name:   "three authors",
			src:    reference.Source{Author: "Jones, K.; Brown, L.; White, M.", Year: "2019", Title: "Trio"},
			inText: "(Jones " + markup.EtAlToken + ", 2019)",
			bib:    "Jones, K.; Brown, L.; White, M. (2019) *Trio*.",
		},
		{
			name:   "surname first",
			src:    reference.Source{Author: "Smith, John", Year: "2023"},
			inText: "(Smith, 2023)",
			bib:    "Smith, John (2023).",
		},
		{
			name:   "surname first pair",
			src:    reference.Source{Author: "Doe, Jane and Roe, Richard", Year: "2023"},
			inText: "(Doe & Roe, 2023)",
			bib:    "Doe, Jane and Roe, Richard (2023).",
		},
		{
			name:   "missing fields",
			src:    reference.Source{},
			inText: "(Anonymous, n.d.)",
			bib:    "Anonymous (n.d.).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fallback(tt.src)
			if got.InText != tt.inText {
				t.Errorf("InText = %q, want %q", got.InText, tt.inText)
			}
			if got.Bibliography != tt.bib {
				t.Errorf("Bibliography = %q, want %q", got.Bibliography, tt.bib)
			}
		})
	}
}

func TestFallbackIsDeterministic(t *testing.T) {
	src := reference.Source{Author: "Doe, J.", Year: "2024", Title: "Title"}
	if Fallback(src) != Fallback(src) {
		t.Error("Fallback() should be deterministic")
	}
}

func TestFallbackInTextIsDetected(t *testing.T) {
	res := Fallback(reference.Source{Author: "Doe, J.", Year: "2024"})
	if len(FindCitations(res.InText)) != 1 {
		t.Errorf("fallback marker %q should be detected", res.InText)
	}
}
