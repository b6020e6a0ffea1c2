package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// DefaultBaseURL is the public Firebase endpoint of the HN API.
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	batchSize      = 10
)

// Client reads top stories from the Hacker News API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.TrendingSource = (*Client)(nil)

// NewClient wires an HTTP client; empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

type item struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Score int    `json:"score"`
}

// TopStories returns up to limit stories in ranking order. Items that fail
// to load or are not stories are dropped.
func (c *Client) TopStories(ctx context.Context, limit int) ([]domain.Story, error) {
	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	stories := make([]domain.Story, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		stories = append(stories, c.fetchBatch(ctx, ids[start:end])...)
	}
	return stories, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []int64) []domain.Story {
	results := make([]*domain.Story, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			var it item
			if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &it); err != nil {
				c.debug("drop item", "id", id, "error", err)
				return
			}
			if it.Type != "story" {
				return
			}
			results[i] = &domain.Story{ID: it.ID, Title: it.Title, URL: it.URL, Score: it.Score}
		}(i, id)
	}
	wg.Wait()

	out := make([]domain.Story, 0, len(ids))
	for _, s := range results {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hacker news returned %s", resp.Status)
	}

	// A deleted item decodes as JSON null and leaves dst untouched.
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
