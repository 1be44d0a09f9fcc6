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

const googleSearchBaseURL = "https://www.googleapis.com/customsearch/v1"

// GoogleSearchClient adapts the Google Custom Search API into an
// ExternalClient, grounded on original_source's GoogleSearchClient.search.
type GoogleSearchClient struct {
	apiKey  string
	engine  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewGoogleSearchClient builds a client. An empty apiKey/engine yields a
// client whose Search calls always fail with errNotConfigured, matching
// the original's "log a warning" path but surfaced as an error the
// Coordinator can charge to the breaker without misreporting "zero
// results" as success.
func NewGoogleSearchClient(apiKey, engine string, timeout time.Duration) *GoogleSearchClient {
	return &GoogleSearchClient{
		apiKey: apiKey,
		engine: engine,
		http:   newHTTPClient(timeout),
		// 10 req/s sustained, burst of 2 — Google Custom Search's
		// documented default quota is more generous, but the
		// original already self-throttles with a 100ms sleep
		// between pages.
		limiter: rate.NewLimiter(rate.Limit(10), 2),
	}
}

func (c *GoogleSearchClient) Name() string           { return "google_search" }
func (c *GoogleSearchClient) SourceType() SourceKind  { return SourceWeb }

type googleSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Snippet     string `json:"snippet"`
		DisplayLink string `json:"displayLink"`
	} `json:"items"`
	Queries struct {
		NextPage []struct{} `json:"nextPage"`
	} `json:"queries"`
}

// Search paginates through the Custom Search API 10 results at a time, up
// to the documented 100-result ceiling, mirroring the original's
// start_index loop.
func (c *GoogleSearchClient) Search(ctx context.Context, query string, limit int) ([]RawItem, error) {
	if c.apiKey == "" || c.engine == "" {
		return nil, &errNotConfigured{client: c.Name()}
	}
	if limit <= 0 {
		limit = 10
	}

	var items []RawItem
	startIndex := 1
	for len(items) < limit && startIndex <= 91 {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		num := limit - len(items)
		if num > 10 {
			num = 10
		}

		q := url.Values{}
		q.Set("key", c.apiKey)
		q.Set("cx", c.engine)
		q.Set("q", query)
		q.Set("start", strconv.Itoa(startIndex))
		q.Set("num", strconv.Itoa(num))

		page, hasNext, err := c.fetchPage(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
		if !hasNext {
			break
		}
		startIndex += 10
	}

	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (c *GoogleSearchClient) fetchPage(ctx context.Context, q url.Values) ([]RawItem, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleSearchBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("google custom search: status %d", resp.StatusCode)
	}

	var parsed googleSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("google custom search: decode response: %w", err)
	}

	items := make([]RawItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		items = append(items, RawItem{
			CanonicalID: it.Link,
			Title:       it.Title,
			URL:         it.Link,
			Description: it.Snippet,
			Metadata: map[string]interface{}{
				"snippet":      it.Snippet,
				"display_url":  it.DisplayLink,
				"search_engine": "google",
			},
		})
	}
	return items, len(parsed.Queries.NextPage) > 0, nil
}
