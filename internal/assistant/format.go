package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/matsen/quill/internal/citation"
	"github.com/matsen/quill/internal/reference"
)

const formatPrompt = `You format citations.
Reply with a JSON object {"inText": "", "bibliography": ""} for the given source in the given citation style.
"inText" is the parenthetical or numeric in-text marker.
"bibliography" is the reference list entry; mark italics with *asterisks*.
For three or more authors write "et al." in the in-text marker.`

// Format asks the assistant to render src in the named citation style.
// The style name is passed through verbatim.
func (c *Client) Format(ctx context.Context, src reference.Source, styleName string) (citation.Result, error) {
	fields, err := json.Marshal(src.Fresh())
	if err != nil {
		return citation.Result{}, fmt.Errorf("marshaling source: %w", err)
	}
	user := fmt.Sprintf("Style: %s\nSource: %s", styleName, fields)

	content, err := c.complete(ctx, formatPrompt, user)
	if err != nil {
		return citation.Result{}, err
	}
	return parseFormat(content)
}

func parseFormat(content string) (citation.Result, error) {
	var payload formatPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return citation.Result{}, fmt.Errorf("%w: parsing citation: %v", ErrInvalidResponse, err)
	}
	if payload.InText == nil || *payload.InText == "" || payload.Bibliography == nil || *payload.Bibliography == "" {
		return citation.Result{}, fmt.Errorf("%w: citation is missing inText or bibliography", ErrInvalidResponse)
	}
	return citation.Result{InText: *payload.InText, Bibliography: *payload.Bibliography}, nil
}
