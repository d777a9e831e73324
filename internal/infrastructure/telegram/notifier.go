package telegram

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

const (
	defaultAPIURL = "https://api.telegram.org"
	// Telegram rejects messages longer than 4096 characters.
	maxMessageRunes = 4000
)

// Notifier announces newly published digest entries in a Telegram chat.
type Notifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiURL:   defaultAPIURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishEntries posts one HTML message listing entries. Nothing is sent for an empty batch.
func (n *Notifier) PublishEntries(ctx context.Context, source string, entries []domain.DigestEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(n.apiURL, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatMessage(source, entries))
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatMessage(source string, entries []domain.DigestEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>: %d new\n", html.EscapeString(source), len(entries))

	for i, e := range entries {
		var line strings.Builder
		line.WriteString("\n• ")
		link := e.ArticleURL
		if link == "" {
			link = e.DiscussionURL
		}
		if link != "" {
			fmt.Fprintf(&line, `<a href="%s">%s</a>`, html.EscapeString(link), html.EscapeString(e.Title))
		} else {
			line.WriteString(html.EscapeString(e.Title))
		}
		if e.Score != nil {
			fmt.Fprintf(&line, " (%d points)", *e.Score)
		}
		if e.DiscussionURL != "" && e.DiscussionURL != link {
			fmt.Fprintf(&line, ` <a href="%s">discussion</a>`, html.EscapeString(e.DiscussionURL))
		}

		if len([]rune(b.String()))+len([]rune(line.String())) > maxMessageRunes {
			fmt.Fprintf(&b, "\n… and %d more", len(entries)-i)
			break
		}
		b.WriteString(line.String())
	}

	return b.String()
}
