// internal/catalog/catalog.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"recordstorebot/internal/logger"
)

const (
	defaultBaseURL = "https://api.discogs.com"
	userAgent      = "RecordStoreBot/1.0"

	// PageSize is fixed by the flows: a full page signals that a next page
	// may exist. Discogs caps per_page at 100, so 50 is safe.
	PageSize = 50

	requestTimeout = time.Second * 15
)

const (
	defaultField  = "N/A"
	defaultFormat = "Unknown Format"
)

// Candidate is one release match from the catalog, with every descriptive
// field already resolved to a plain string. Missing or malformed metadata
// collapses to defaults during parsing; callers never see partial data blow
// up mid-flow.
type Candidate struct {
	ReleaseID int64
	Title     string
	Genres    string
	Styles    string
	Labels    string
	Formats   string
}

// PriceSuggestion is the catalog's market price for one condition grade.
type PriceSuggestion struct {
	Value decimal.Decimal
}

// Client talks to the Discogs REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewClientWithBaseURL exists for tests against a local server.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// rawResult mirrors one entry of the Discogs /database/search response. The
// API is loose about these fields, so everything descriptive is optional.
type rawResult struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Genre  []string `json:"genre"`
	Style  []string `json:"style"`
	Label  []string `json:"label"`
	Format []string `json:"format"`
}

type searchResponse struct {
	Results []rawResult `json:"results"`
}

type rawSuggestion struct {
	Value float64 `json:"value"`
}

// =============================================================================
// API CALLS
// =============================================================================

// Search queries the catalog for releases matching free text and returns at
// most PageSize candidates for the given page (1-based).
func (c *Client) Search(ctx context.Context, query string, page int) ([]Candidate, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "release")
	params.Set("per_page", fmt.Sprintf("%d", PageSize))
	params.Set("page", fmt.Sprintf("%d", page))

	endpoint := fmt.Sprintf("%s/database/search?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode catalog search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(response.Results))
	for _, raw := range response.Results {
		candidates = append(candidates, parseCandidate(raw))
	}
	return candidates, nil
}

// PriceSuggestions returns the catalog's market prices keyed by condition
// display label (e.g. "Near Mint (NM or M-)"). Any failure degrades to an
// empty map; price suggestions are advisory and must never abort a flow.
func (c *Client) PriceSuggestions(ctx context.Context, releaseID int64) map[string]PriceSuggestion {
	endpoint := fmt.Sprintf("%s/marketplace/price_suggestions/%d", c.baseURL, releaseID)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		logger.LogWarn("Price suggestion lookup failed for release %d: %v", releaseID, err)
		return map[string]PriceSuggestion{}
	}

	var raw map[string]rawSuggestion
	if err := json.Unmarshal(body, &raw); err != nil {
		logger.LogWarn("Failed to decode price suggestions for release %d: %v", releaseID, err)
		return map[string]PriceSuggestion{}
	}

	suggestions := make(map[string]PriceSuggestion, len(raw))
	for label, s := range raw {
		suggestions[label] = PriceSuggestion{
			Value: decimal.NewFromFloat(s.Value).Round(2),
		}
	}
	return suggestions
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Discogs token="+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// =============================================================================
// DEFENSIVE PARSING
// =============================================================================

// parseCandidate is the single place raw catalog data becomes a Candidate.
// Defaults are resolved here, not scattered through call sites.
func parseCandidate(raw rawResult) Candidate {
	return Candidate{
		ReleaseID: raw.ID,
		Title:     firstNonEmpty(strings.TrimSpace(raw.Title), defaultField),
		Genres:    joinOrDefault(raw.Genre, defaultField),
		Styles:    joinOrDefault(raw.Style, defaultField),
		Labels:    joinOrDefault(raw.Label, defaultField),
		Formats:   joinOrDefault(raw.Format, defaultFormat),
	}
}

func joinOrDefault(values []string, fallback string) string {
	var kept []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}

func firstNonEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
