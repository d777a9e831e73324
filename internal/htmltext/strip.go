// Package htmltext converts HTML fragments and pages to plain text.
package htmltext

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FromReader parses an HTML document, drops script, style and noscript
// elements and returns the remaining text with whitespace collapsed.
func FromReader(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	for _, n := range doc.Nodes {
		parts = appendText(parts, n)
	}
	return collapse(strings.Join(parts, " ")), nil
}

// appendText collects text nodes in document order so that adjacent blocks
// stay separated by whitespace.
func appendText(parts []string, n *html.Node) []string {
	if n.Type == html.TextNode {
		return append(parts, n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = appendText(parts, c)
	}
	return parts
}

// Strip is FromReader for an in-memory fragment.
func Strip(fragment string) (string, error) {
	return FromReader(strings.NewReader(fragment))
}

// Truncate cuts text to at most limit runes; a limit below one disables it.
func Truncate(text string, limit int) string {
	if limit < 1 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
