package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholarClient adapts the Semantic Scholar paper-search API,
// grounded on original_source's SemanticScholarClient.search_papers.
type SemanticScholarClient struct {
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewSemanticScholarClient(apiKey string, timeout time.Duration) *SemanticScholarClient {
	return &SemanticScholarClient{
		apiKey: apiKey,
		http:   newHTTPClient(timeout),
		// Semantic Scholar's unauthenticated tier is limited to
		// roughly 1 req/s; an API key relaxes this but the client
		// stays conservative regardless.
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

func (c *SemanticScholarClient) Name() string          { return "semantic_scholar" }
func (c *SemanticScholarClient) SourceType() SourceKind { return SourceAcademic }

type semanticScholarResponse struct {
	Data []struct {
		PaperID string `json:"paperId"`
		Title   string `json:"title"`
		URL     string `json:"url"`
		Abstract string `json:"abstract"`
		Venue   string `json:"venue"`
		Year    int    `json:"year"`
		CitationCount int `json:"citationCount"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	} `json:"data"`
}

// Search is unauthenticated-friendly: unlike Google/NewsAPI, the original
// does not gate this call behind an API key check, so an empty apiKey
// simply omits the x-api-key header.
func (c *SemanticScholarClient) Search(ctx context.Context, query string, limit int) ([]RawItem, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("fields", "paperId,title,abstract,url,authors,venue,year,citationCount")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarBaseURL+"/paper/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar: status %d", resp.StatusCode)
	}

	var parsed semanticScholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("semantic scholar: decode response: %w", err)
	}

	items := make([]RawItem, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
		}
		items = append(items, RawItem{
			CanonicalID: p.PaperID,
			Title:       p.Title,
			URL:         p.URL,
			Description: p.Abstract,
			Metadata: map[string]interface{}{
				"authors":        authors,
				"abstract":       p.Abstract,
				"venue":          p.Venue,
				"year":           p.Year,
				"citation_count": p.CitationCount,
			},
		})
	}
	return items, nil
}
