// Package scholar provides a source search collaborator backed by the
// Semantic Scholar Academic Graph API.
package scholar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/matsen/quill/internal/reference"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// RateLimit is 1 request per second for keyed access.
	RateLimit = 1.0

	// SearchFields are the paper fields requested from search.
	SearchFields = "title,abstract,authors,year,venue,url,externalIds"

	// DefaultLimit is the number of papers fetched per search.
	DefaultLimit = 10

	// DefaultSuggested is the number of top hits reported as suggested.
	DefaultSuggested = 5

	// maxQueryRunes bounds the query; the API rejects very long queries.
	maxQueryRunes = 300
)

// Common errors returned by the scholar client.
var (
	ErrAuthError    = errors.New("Semantic Scholar authentication error")
	ErrRateLimited  = errors.New("Semantic Scholar rate limit exceeded")
	ErrNetworkError = errors.New("network error communicating with Semantic Scholar")
	ErrAPIError     = errors.New("Semantic Scholar API error")
)

// Client is a rate-limited HTTP client for paper search.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	limit      int
	suggested  int
	logger     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRateLimit overrides the request rate (requests per second).
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient creates a new Semantic Scholar search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		limit:      DefaultLimit,
		suggested:  DefaultSuggested,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs a keyword search for the selected text. The surrounding context
// is not sent; keyword search degrades with long queries.
func (c *Client) Search(ctx context.Context, selected, _ string) (reference.Results, error) {
	query := truncateRunes(strings.Join(strings.Fields(selected), " "), maxQueryRunes)
	if query == "" {
		return reference.Results{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return reference.Results{}, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("fields", SearchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return reference.Results{}, fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return reference.Results{}, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return reference.Results{}, fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return reference.Results{}, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return reference.Results{}, fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("discarding malformed search response", zap.Error(err))
		return reference.Results{}, nil
	}
	c.logger.Debug("scholar search", zap.String("query", query), zap.Int("total", body.Total), zap.Int("returned", len(body.Data)))
	return ToResults(body.Data, c.suggested), nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
