package domain

import (
	"strconv"
	"time"
)

// DigestEntry is one published summary of a crossing item.
type DigestEntry struct {
	ID                int
	Title             string
	Score             *int
	ArticleURL        string
	DiscussionURL     string
	DiscussionCount   *int
	ArticleSummary    Summary
	DiscussionSummary Summary
	PublishedAt       *time.Time
}

// Key is the deduplication identity of the entry.
func (e DigestEntry) Key() string {
	return IdentityKey(e.ID, e.DiscussionURL, e.ArticleURL, e.Title)
}

// UntitledKey identifies entries that carry no id, link or title. All such
// entries share it.
const UntitledKey = "untitled"

// IdentityKey picks the first non-empty of id, discussion link, article link and title.
// An id of zero counts as absent.
func IdentityKey(id int, discussionURL, articleURL, title string) string {
	if id != 0 {
		return strconv.Itoa(id)
	}
	for _, v := range []string{discussionURL, articleURL, title} {
		if v != "" {
			return v
		}
	}
	return UntitledKey
}

// IntPtr is a small helper for optional integer fields.
func IntPtr(v int) *int {
	return &v
}
