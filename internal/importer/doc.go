package importer

import (
	"bytes"
	"errors"
	"strings"
	"unicode"
	"unicode/utf16"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// minRun is the shortest run of printable characters kept from a binary
// Word file.
const minRun = 8

// Compound-file stream names that show up as printable UTF-16 runs.
var oleNoise = []string{
	"Root Entry", "WordDocument", "SummaryInformation", "DocumentSummaryInformation",
	"CompObj", "1Table", "0Table", "Microsoft Word", "Normal.dot", "MSWordDoc", "Word.Document",
}

// extractDOC reads a legacy .doc upload. Files that are really DOCX
// archives are read as such; binary Word files get a best-effort scan for
// printable text runs, preferring the UTF-16 reading when it finds more.
func extractDOC(data []byte) (string, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return extractDOCX(data)
	}
	if !bytes.HasPrefix(data, oleMagic) {
		return "", errors.New("not a Word document")
	}

	narrow := printableRuns(latin1(data))
	wide := printableRuns(utf16Runes(data))
	runs := narrow
	if totalLen(wide) > totalLen(narrow) {
		runs = wide
	}

	var kept []string
	for _, r := range runs {
		if !isNoise(r) {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return "", errors.New("no text found in Word document")
	}
	return strings.Join(kept, "\n"), nil
}

func latin1(data []byte) []rune {
	out := make([]rune, len(data))
	for i, b := range data {
		out[i] = rune(b)
	}
	return out
}

func utf16Runes(data []byte) []rune {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return utf16.Decode(units)
}

// printableRuns splits rs at unprintable characters and keeps the runs of
// at least minRun characters that contain a letter.
func printableRuns(rs []rune) []string {
	var (
		runs []string
		cur  []rune
	)
	flush := func() {
		s := strings.TrimSpace(string(cur))
		if len([]rune(s)) >= minRun && strings.IndexFunc(s, unicode.IsLetter) >= 0 {
			runs = append(runs, s)
		}
		cur = cur[:0]
	}
	for _, r := range rs {
		if r == '\r' || r == '\n' || r == '\v' {
			flush()
			continue
		}
		if unicode.IsPrint(r) || r == '\t' {
			cur = append(cur, r)
			continue
		}
		flush()
	}
	flush()
	return runs
}

func totalLen(runs []string) int {
	n := 0
	for _, r := range runs {
		n += len(r)
	}
	return n
}

func isNoise(run string) bool {
	for _, n := range oleNoise {
		if strings.Contains(run, n) {
			return true
		}
	}
	return false
}
