package history

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line kinds in a text diff.
const (
	LineContext = "context"
	LineAdded   = "added"
	LineRemoved = "removed"
)

// DiffLine is one line of a line-oriented diff.
type DiffLine struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextDiff computes a line diff from before to after.
func TextDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if len(chunk) > 0 && chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, line := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: LineContext, Text: line})
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: LineRemoved, Text: line})
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: LineAdded, Text: line})
			}
		}
	}
	return lines
}

// Diff returns the document text diff from the previous snapshot to the
// current one. It is empty when there is nothing to undo.
func (c *Controller) Diff() []DiffLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == 0 {
		return nil
	}
	return TextDiff(c.log[c.index-1].Text, c.log[c.index].Text)
}

// FormatDiff renders diff lines with "+", "-" and " " prefixes.
func FormatDiff(lines []DiffLine) string {
	var b strings.Builder
	for _, l := range lines {
		switch l.Type {
		case LineAdded:
			b.WriteString("+ ")
		case LineRemoved:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
	}
	return b.String()
}
