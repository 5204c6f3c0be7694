package assistant

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/matsen/quill/internal/reference"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// flexString accepts a JSON string or number. Models return years both ways.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = flexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexString(n.String())
	return nil
}

// sourcePayload is a source as the model returns it.
type sourcePayload struct {
	Title       string     `json:"title"`
	Author      flexAuthor `json:"author"`
	Year        flexString `json:"year"`
	Publication string     `json:"publication"`
	Snippet     string     `json:"snippet"`
	URL         string     `json:"url"`
	DOI         string     `json:"doi"`
}

// flexAuthor accepts a single author string or a list of names.
type flexAuthor string

func (f *flexAuthor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*f = flexAuthor(strings.Join(names, ", "))
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexAuthor(s)
	return nil
}

func (p sourcePayload) toSource() reference.Source {
	return reference.Source{
		Title:       p.Title,
		Author:      string(p.Author),
		Year:        string(p.Year),
		Publication: p.Publication,
		Snippet:     p.Snippet,
		URL:         p.URL,
		DOI:         p.DOI,
	}.Trimmed()
}

type searchPayload struct {
	Suggested []sourcePayload `json:"suggested"`
	Related   []sourcePayload `json:"related"`
}

type formatPayload struct {
	InText       *string `json:"inText"`
	Bibliography *string `json:"bibliography"`
}

// stripFences removes a surrounding markdown code fence, which chat models
// tend to add around JSON even when asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
