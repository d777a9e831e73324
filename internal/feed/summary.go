package feed

import (
	"html"
	"strconv"
	"strings"

	"HNDigest/internal/domain"
)

// BulletItems returns the dash-prefixed lines of text with the marker and
// surrounding whitespace removed. Other lines are ignored.
func BulletItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// RenderSummary builds the HTML fragment carried by an entry's summary.
func RenderSummary(e domain.DigestEntry, threadLabel string) string {
	var b strings.Builder

	b.WriteString("<p><strong>Points:</strong> ")
	b.WriteString(html.EscapeString(optionalInt(e.Score)))
	b.WriteString("</p>")

	b.WriteString("<p><strong>Total comments:</strong> ")
	b.WriteString(html.EscapeString(optionalInt(e.DiscussionCount)))
	b.WriteString("</p>")

	if e.ArticleURL != "" {
		esc := html.EscapeString(e.ArticleURL)
		b.WriteString(`<p><strong>Link:</strong> <a href="` + esc + `">` + esc + "</a></p>")
	} else {
		b.WriteString("<p><strong>Link:</strong> (none)</p>")
	}

	b.WriteString("<p><strong>Article summary:</strong> ")
	b.WriteString(html.EscapeString(e.ArticleSummary.String()))
	b.WriteString("</p>")

	discussion := e.DiscussionSummary.String()
	if items := BulletItems(discussion); len(items) > 0 {
		b.WriteString("<p><strong>Comments summary:</strong></p><ul>")
		for _, item := range items {
			b.WriteString("<li>" + html.EscapeString(item) + "</li>")
		}
		b.WriteString("</ul>")
	} else {
		b.WriteString("<p><strong>Comments summary:</strong> ")
		b.WriteString(html.EscapeString(discussion))
		b.WriteString("</p>")
	}

	if e.DiscussionURL != "" {
		esc := html.EscapeString(e.DiscussionURL)
		b.WriteString("<p><strong>" + html.EscapeString(threadLabel) + `:</strong> <a href="` + esc + `">` + esc + "</a></p>")
	}

	return b.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}
