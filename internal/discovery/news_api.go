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

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPIClient adapts NewsAPI's /everything endpoint, grounded on
// original_source's NewsAPIClient.search_articles — including its
// 30-day lookback window.
type NewsAPIClient struct {
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewNewsAPIClient(apiKey string, timeout time.Duration) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:  apiKey,
		http:    newHTTPClient(timeout),
		limiter: rate.NewLimiter(rate.Limit(5), 2),
		now:     time.Now,
	}
}

func (c *NewsAPIClient) Name() string          { return "news_api" }
func (c *NewsAPIClient) SourceType() SourceKind { return SourceNews }

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Author      string `json:"author"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *NewsAPIClient) Search(ctx context.Context, query string, limit int) ([]RawItem, error) {
	if c.apiKey == "" {
		return nil, &errNotConfigured{client: c.Name()}
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := c.now()
	q := url.Values{}
	q.Set("q", query)
	q.Set("from", now.Add(-30*24*time.Hour).Format("2006-01-02"))
	q.Set("to", now.Format("2006-01-02"))
	q.Set("sortBy", "relevancy")
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIBaseURL+"/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news api: status %d", resp.StatusCode)
	}

	var parsed newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("news api: decode response: %w", err)
	}

	items := make([]RawItem, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		items = append(items, RawItem{
			CanonicalID: a.URL,
			Title:       a.Title,
			URL:         a.URL,
			Description: a.Description,
			Metadata: map[string]interface{}{
				"description":  a.Description,
				"source":       a.Source.Name,
				"published_at": a.PublishedAt,
				"author":       a.Author,
			},
		})
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}
