package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/matsen/quill/internal/reference"
)

const searchPrompt = `You find academic sources that support a passage of writing.
Reply with a JSON object of the form
{"suggested": [SOURCE...], "related": [SOURCE...]}
where SOURCE is {"title": "", "author": "", "year": "", "publication": "", "snippet": "", "url": "", "doi": ""}.
"suggested" holds up to 5 sources that directly support the selected text.
"related" holds up to 5 sources relevant to the surrounding context.
Only list real, verifiable publications.`

// Search asks the assistant for sources supporting selected, given the
// surrounding document text. Transport and HTTP failures are returned as
// errors; a reply that cannot be parsed yields zero results.
func (c *Client) Search(ctx context.Context, selected, surrounding string) (reference.Results, error) {
	user := fmt.Sprintf("Selected text:\n%s\n\nSurrounding context:\n%s", selected, surrounding)
	content, err := c.complete(ctx, searchPrompt, user)
	if err != nil {
		return reference.Results{}, err
	}
	return c.parseSearch(content), nil
}

func (c *Client) parseSearch(content string) reference.Results {
	var payload searchPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		c.logger.Warn("discarding malformed search reply", zap.Error(err))
		return reference.Results{}
	}
	return reference.Results{
		Suggested: toSources(payload.Suggested),
		Related:   toSources(payload.Related),
	}
}

// toSources converts payloads, dropping entries with no title.
func toSources(in []sourcePayload) []reference.Source {
	out := make([]reference.Source, 0, len(in))
	for _, p := range in {
		src := p.toSource()
		if src.Title == "" {
			continue
		}
		out = append(out, src)
	}
	return out
}
