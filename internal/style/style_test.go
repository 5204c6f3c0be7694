package style

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Style
	}{
		{"Harvard", Harvard},
		{"harvard", Harvard},
		{"APA 7th", APA7},
		{"apa", APA7},
		{"apa-7", APA7},
		{"MLA 9th", MLA9},
		{"mla", MLA9},
		{"Chicago", Chicago},
		{"VANCOUVER", Vancouver},
		{"ieee", IEEE},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseUnknown(t *testing.T) {
	if _, err := Parse("Turabian"); err == nil {
		t.Error("Parse(Turabian) should fail")
	}
}

func TestAllValid(t *testing.T) {
	if len(All()) != 6 {
		t.Fatalf("All() returned %d styles, want 6", len(All()))
	}
	for _, s := range All() {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
		parsed, err := Parse(s.String())
		if err != nil || parsed != s {
			t.Errorf("Parse(%q) = %q, %v", s, parsed, err)
		}
	}
	if Style("Turabian").Valid() {
		t.Error("Turabian should not be valid")
	}
}

func TestLabels(t *testing.T) {
	if got := IEEE.Label(0); got != "[1] " {
		t.Errorf("IEEE.Label(0) = %q", got)
	}
	if got := Vancouver.Label(2); got != "3. " {
		t.Errorf("Vancouver.Label(2) = %q", got)
	}
	if got := Harvard.Label(4); got != "" {
		t.Errorf("Harvard.Label(4) = %q", got)
	}
	if MLA9.Heading() != "Works Cited" {
		t.Errorf("MLA9.Heading() = %q", MLA9.Heading())
	}
}
