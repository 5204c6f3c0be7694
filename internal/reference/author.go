package reference

import (
	"strings"
	"unicode"
)

// AuthorNames splits a free-form author string into individual names.
// Semicolons, "&" and " and " always separate authors. Within each group a
// comma separates authors only when every part reads as a full "Given
// Surname" name; otherwise parts pair up as "Surname, Given", so
// "Smith, J., Doe, A." yields "Smith, J." and "Doe, A.".
func AuthorNames(author string) []string {
	normalized := strings.NewReplacer(" and ", ";", "&", ";").Replace(author)

	var names []string
	for _, group := range strings.Split(normalized, ";") {
		names = append(names, splitCommaGroup(group)...)
	}
	return names
}

func splitCommaGroup(group string) []string {
	var parts []string
	for _, p := range strings.Split(group, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return parts
	}

	fullNames := true
	for _, p := range parts {
		if !isInitials(p) && len(strings.Fields(p)) < 2 {
			fullNames = false
			break
		}
	}
	if fullNames {
		var names []string
		for _, p := range parts {
			if !isInitials(p) {
				names = append(names, p)
			}
		}
		if len(names) > 0 {
			return names
		}
	}

	names := make([]string, 0, (len(parts)+1)/2)
	for i := 0; i < len(parts); i += 2 {
		if i+1 < len(parts) {
			names = append(names, parts[i]+", "+parts[i+1])
		} else {
			names = append(names, parts[i])
		}
	}
	return names
}

// Surname returns the family name of a single author name: the part before
// the comma of "Surname, Given", otherwise the last word, with trailing
// punctuation removed.
func Surname(name string) string {
	if family, _, ok := strings.Cut(name, ","); ok {
		if family = strings.TrimSpace(family); family != "" {
			return strings.TrimRight(family, ".;")
		}
	}
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	return strings.TrimRight(words[len(words)-1], ".,;")
}

// isInitials reports whether every word in s is an initial such as "J." or "J.R.".
func isInitials(s string) bool {
	for _, w := range strings.Fields(s) {
		letters := 0
		for _, r := range w {
			switch {
			case unicode.IsLetter(r):
				letters++
			case r == '.' || r == '-':
			default:
				return false
			}
		}
		if letters == 0 || letters > 2 || !strings.HasSuffix(w, ".") {
			return false
		}
	}
	return true
}
