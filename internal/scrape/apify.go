package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const defaultApifyURL = "https://api.apify.com/v2"

// Actors maps a platform to the Apify actor that scrapes its profiles.
var Actors = map[string]string{
	"instagram": "apify/instagram-post-scraper",
	"tiktok":    "clockworks/tiktok-scraper",
	"twitter":   "apify/twitter-scraper",
	"pinterest": "alexey/pinterest-crawler",
}

// Item is one raw dataset item returned by an actor run.
type Item map[string]any

// ApifyClient runs actors synchronously and returns their dataset items.
type ApifyClient struct {
	Token   string
	BaseURL string

	client  *http.Client
	limiter *rate.Limiter
}

// NewApifyClient creates a client that starts at most rps actor runs per second.
func NewApifyClient(token string, rps float64) *ApifyClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &ApifyClient{
		Token:   token,
		BaseURL: defaultApifyURL,
		client:  &http.Client{Timeout: 150 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// IsConfigured reports whether a token is set.
func (c *ApifyClient) IsConfigured() bool {
	return c != nil && c.Token != ""
}

// RunActor runs actor with input and waits for its dataset items.
func (c *ApifyClient) RunActor(ctx context.Context, actor string, input any) ([]Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshaling actor input: %w", err)
	}

	// Actor IDs use "~" in place of "/" inside URL paths.
	endpoint := fmt.Sprintf("%s/acts/%s/run-sync-get-dataset-items?timeout=120&token=%s",
		strings.TrimRight(c.BaseURL, "/"),
		strings.ReplaceAll(actor, "/", "~"),
		url.QueryEscape(c.Token),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("apify returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding dataset items: %w", err)
	}
	return items, nil
}

func (it Item) str(key string) string {
	switch v := it[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	}
	return ""
}

func (it Item) num(key string) int64 {
	switch v := it[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}

func (it Item) strs(key string) []string {
	raw, ok := it[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (it Item) obj(key string) Item {
	if m, ok := it[key].(map[string]any); ok {
		return Item(m)
	}
	return Item{}
}
