package importer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractDOCX reads the paragraphs of word/document.xml.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}
	content, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	return paragraphText(content)
}

// extractPPTX reads slide text in slide order, one blank line between slides.
func extractPPTX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}

	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if m := slidePattern.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slide{n, f.Name})
		}
	}
	if len(slides) == 0 {
		return "", errors.New("no slides in presentation")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var parts []string
	for _, s := range slides {
		content, err := readZipFile(zr, s.name)
		if err != nil {
			return "", err
		}
		text, err := paragraphText(content)
		if err != nil {
			return "", fmt.Errorf("%s: %w", s.name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// paragraphText walks an Office Open XML part and collects the character
// data of text elements, breaking lines at paragraph ends. Matching is on
// local names, so it serves both WordprocessingML (w:t, w:p) and
// DrawingML (a:t, a:p).
func paragraphText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var (
		para   strings.Builder
		paras  []string
		inText bool
		inRun  int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "r":
				inRun++
			case "tab":
				// w:tab also appears as a tab-stop definition outside runs.
				if inRun > 0 {
					para.WriteString("\t")
				}
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				inRun--
			case "p":
				paras = append(paras, para.String())
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		paras = append(paras, para.String())
	}
	return strings.TrimSpace(strings.Join(paras, "\n")), nil
}
