package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/reference"
)

// Output formatting limits.
const (
	SnippetMaxLen = 160 // Used in search result listings
	TitleMaxLen   = 70  // Used in library listings
)

var (
	markerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

// writeJSON writes a value as formatted JSON to w.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// highlightMarkers styles each citation marker in text.
func highlightMarkers(text string, markers []citation.Marker) string {
	var b strings.Builder
	last := 0
	for _, m := range markers {
		b.WriteString(text[last:m.Start])
		b.WriteString(markerStyle.Render(text[m.Start:m.End]))
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String()
}

// formatSourceLine renders a source as "Author (Year) Title".
func formatSourceLine(src reference.Source) string {
	var parts []string
	if src.Author != "" {
		parts = append(parts, src.Author)
	}
	if src.Year != "" {
		parts = append(parts, "("+src.Year+")")
	}
	parts = append(parts, truncateString(src.Title, TitleMaxLen))
	return strings.Join(parts, " ")
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
