package storage

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"HNDigest/internal/domain"
)

// ErrCorruptState is returned together with the empty state when the stored
// document cannot be decoded.
var ErrCorruptState = domain.ErrCorruptState

// document is the on-disk JSON layout shared by every store.
type document struct {
	LastScores  map[string]int `json:"last_scores"`
	FeedEntries []entryRecord  `json:"feed_entries"`
}

type entryRecord struct {
	ID              *int   `json:"id"`
	Title           string `json:"title"`
	Score           *int   `json:"score"`
	Comments        string `json:"comments,omitempty"`
	Link            string `json:"link,omitempty"`
	CommentsCount   *int   `json:"comments_count"`
	ArticleSummary  string `json:"article_summary"`
	CommentsSummary string `json:"comments_summary"`
	PublishedAt     string `json:"published_at,omitempty"`
}

func encodeState(state domain.State) document {
	doc := document{
		LastScores:  make(map[string]int, len(state.Ledger)),
		FeedEntries: make([]entryRecord, 0, len(state.History)),
	}
	for id, score := range state.Ledger {
		doc.LastScores[strconv.Itoa(id)] = score
	}
	for _, e := range state.History {
		doc.FeedEntries = append(doc.FeedEntries, encodeEntry(e))
	}
	return doc
}

func decodeState(doc document) (domain.State, error) {
	state := domain.State{
		Ledger:  make(domain.Ledger, len(doc.LastScores)),
		History: make([]domain.DigestEntry, 0, len(doc.FeedEntries)),
	}
	for key, score := range doc.LastScores {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return domain.EmptyState(), fmt.Errorf("%w: ledger key %q is not an item id", ErrCorruptState, key)
		}
		state.Ledger[id] = score
	}
	for _, rec := range doc.FeedEntries {
		state.History = append(state.History, decodeEntry(rec))
	}
	return state, nil
}

func encodeEntry(e domain.DigestEntry) entryRecord {
	rec := entryRecord{
		Title:           e.Title,
		Score:           e.Score,
		Comments:        e.DiscussionURL,
		Link:            e.ArticleURL,
		CommentsCount:   e.DiscussionCount,
		ArticleSummary:  e.ArticleSummary.String(),
		CommentsSummary: e.DiscussionSummary.String(),
	}
	if e.ID != 0 {
		rec.ID = domain.IntPtr(e.ID)
	}
	if e.PublishedAt != nil {
		rec.PublishedAt = e.PublishedAt.Format(time.RFC3339Nano)
	}
	return rec
}

func decodeEntry(rec entryRecord) domain.DigestEntry {
	e := domain.DigestEntry{
		Title:             rec.Title,
		Score:             rec.Score,
		ArticleURL:        rec.Link,
		DiscussionURL:     rec.Comments,
		DiscussionCount:   rec.CommentsCount,
		ArticleSummary:    domain.TextSummary(rec.ArticleSummary),
		DiscussionSummary: domain.TextSummary(rec.CommentsSummary),
		PublishedAt:       parseTimestamp(rec.PublishedAt),
	}
	if rec.ID != nil {
		e.ID = *rec.ID
	}
	return e
}

// parseTimestamp accepts RFC 3339 first and any common layout after that.
// The stored offset is kept; naive values are read as UTC. Unparseable values
// are treated as absent.
func parseTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func sortedIDs(ledger domain.Ledger) []int {
	ids := make([]int, 0, len(ledger))
	for id := range ledger {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
