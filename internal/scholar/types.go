package scholar

// Paper represents a paper from the Semantic Scholar API.
type Paper struct {
	PaperID     string      `json:"paperId"`
	ExternalIDs ExternalIDs `json:"externalIds,omitempty"`
	Title       string      `json:"title"`
	Abstract    string      `json:"abstract,omitempty"`
	Authors     []Author    `json:"authors,omitempty"`
	Year        int         `json:"year,omitempty"`
	Venue       string      `json:"venue,omitempty"`
	URL         string      `json:"url,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	DOI   string `json:"DOI,omitempty"`
	ArXiv string `json:"ArXiv,omitempty"`
}

// Author represents an author from the Semantic Scholar API.
type Author struct {
	AuthorID string `json:"authorId,omitempty"`
	Name     string `json:"name"`
}

// SearchResponse is the body of a paper keyword search.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Data   []Paper `json:"data"`
}
