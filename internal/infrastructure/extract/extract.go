// Package extract fetches web pages and reduces them to readable text.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"HNDigest/internal/htmltext"
	"HNDigest/internal/ports"
)

const (
	userAgent = "news-digest-bot/1.0"

	// DefaultArticleLimit caps the article text handed to the summarizer.
	DefaultArticleLimit = 30_000
	// DefaultThreadLimit caps the thread text handed to the summarizer.
	DefaultThreadLimit = 400_000

	maxBodyBytes = 8 << 20
)

// Extractor implements both article and thread extraction over HTTP.
type Extractor struct {
	client       *http.Client
	articleLimit int
	threadLimit  int
}

var (
	_ ports.ArticleExtractor = (*Extractor)(nil)
	_ ports.ThreadExtractor  = (*Extractor)(nil)
)

// New builds an extractor; a nil client gets a 25s timeout and zero limits
// fall back to the defaults.
func New(client *http.Client, articleLimit, threadLimit int) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 25 * time.Second}
	}
	if articleLimit <= 0 {
		articleLimit = DefaultArticleLimit
	}
	if threadLimit <= 0 {
		threadLimit = DefaultThreadLimit
	}
	return &Extractor{client: client, articleLimit: articleLimit, threadLimit: threadLimit}
}

// ExtractArticle downloads pageURL and returns its main content as text.
func (e *Extractor) ExtractArticle(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	body, err := e.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return "", fmt.Errorf("extract content from %s: %w", pageURL, err)
	}

	text, err := htmltext.Strip(article.Content)
	if err != nil || text == "" {
		text = strings.Join(strings.Fields(article.TextContent), " ")
	}
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", pageURL)
	}
	return htmltext.Truncate(text, e.articleLimit), nil
}

// ExtractThread downloads a discussion page and returns its visible text.
func (e *Extractor) ExtractThread(ctx context.Context, threadURL string) (string, error) {
	body, err := e.fetch(ctx, threadURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	text, err := htmltext.FromReader(body)
	if err != nil {
		return "", fmt.Errorf("read thread %s: %w", threadURL, err)
	}
	return htmltext.Truncate(text, e.threadLimit), nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxBodyBytes), resp.Body}, nil
}
