package hackernews

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"HNDigest/internal/domain"
	"HNDigest/internal/htmltext"
	"HNDigest/internal/scanner"
)

const (
	defaultAPIURL  = "https://hacker-news.firebaseio.com"
	defaultSiteURL = "https://news.ycombinator.com"
	userAgent      = "news-digest-bot/1.0"

	// ListOption selects the ranked list a source scans; it defaults to "top".
	ListOption = "list"
)

var storyLists = map[string]string{
	"top":  "topstories",
	"best": "beststories",
	"new":  "newstories",
	"ask":  "askstories",
	"show": "showstories",
	"job":  "jobstories",
}

// Options configures the Firebase API client.
type Options struct {
	APIURL            string
	SiteURL           string
	RequestsPerSecond float64
}

// Client scans the Hacker News top stories through the public Firebase API.
type Client struct {
	client  *http.Client
	apiURL  string
	siteURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ scanner.Scanner = (*Client)(nil)

type apiItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Score       int    `json:"score"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Descendants *int   `json:"descendants"`
	Time        *int64 `json:"time"`
}

// NewClient wires an HTTP client; a nil client gets a 20s timeout.
func NewClient(client *http.Client, opts Options, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.SiteURL == "" {
		opts.SiteURL = defaultSiteURL
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client:  client,
		apiURL:  strings.TrimRight(opts.APIURL, "/"),
		siteURL: strings.TrimRight(opts.SiteURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Name identifies the strategy inside the registry.
func (c *Client) Name() string {
	return "hackernews"
}

// DiscussionURL is the public thread page of an item.
func (c *Client) DiscussionURL(id int) string {
	return fmt.Sprintf("%s/item?id=%d", c.siteURL, id)
}

// Window returns the first req.WindowSize ids of the list named by the
// "list" option.
func (c *Client) Window(ctx context.Context, req scanner.Request) ([]int, error) {
	list, err := storyList(req.Options)
	if err != nil {
		return nil, err
	}

	var ids []int
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v0/%s.json", c.apiURL, list), &ids); err != nil {
		return nil, fmt.Errorf("%s: %w", list, err)
	}
	if req.WindowSize > 0 && len(ids) > req.WindowSize {
		ids = ids[:req.WindowSize]
	}
	c.logger.Info("fetched stories to scan", "list", list, "count", len(ids))
	return ids, nil
}

func storyList(options map[string]string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(options[ListOption]))
	if name == "" {
		name = "top"
	}
	list, ok := storyLists[name]
	if !ok {
		return "", fmt.Errorf("unknown story list %q", name)
	}
	return list, nil
}

// Item fetches one item. Deleted or unknown items come back as nil.
func (c *Client) Item(ctx context.Context, _ scanner.Request, id int) (*domain.Item, error) {
	var raw *apiItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v0/item/%d.json", c.apiURL, id), &raw); err != nil {
		return nil, fmt.Errorf("item %d: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}
	return c.toDomain(id, *raw), nil
}

func (c *Client) toDomain(id int, raw apiItem) *domain.Item {
	item := &domain.Item{
		ID:              id,
		Type:            raw.Type,
		Score:           raw.Score,
		Title:           raw.Title,
		ArticleURL:      raw.URL,
		DiscussionURL:   c.DiscussionURL(id),
		DiscussionCount: raw.Descendants,
	}
	if raw.Time != nil {
		created := time.Unix(*raw.Time, 0).UTC()
		item.CreatedAt = &created
	}
	if raw.Text != "" {
		text, err := htmltext.Strip(raw.Text)
		if err != nil {
			c.logger.Warn("strip item text failed", "item_id", id, "error", err)
			text = raw.Text
		}
		item.BodyText = text
	}
	return item
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hacker news returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
