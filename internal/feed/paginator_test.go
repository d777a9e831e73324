package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HNDigest/internal/domain"
	"HNDigest/internal/logging"
)

var generatedAt = time.Date(2025, time.June, 2, 8, 30, 0, 0, time.UTC)

func makeEntries(n int) []domain.DigestEntry {
	entries := make([]domain.DigestEntry, 0, n)
	for i := 0; i < n; i++ {
		ts := generatedAt.Add(-time.Duration(i) * time.Hour)
		id := 1000 + i
		entries = append(entries, domain.DigestEntry{
			ID:                id,
			Title:             fmt.Sprintf("Story %d", id),
			Score:             domain.IntPtr(150),
			ArticleURL:        fmt.Sprintf("https://example.com/%d", id),
			DiscussionURL:     fmt.Sprintf("https://news.ycombinator.com/item?id=%d", id),
			DiscussionCount:   domain.IntPtr(12),
			ArticleSummary:    domain.TextSummary("article"),
			DiscussionSummary: domain.TextSummary("- one\n- two"),
			PublishedAt:       &ts,
		})
	}
	return entries
}

func newTestPaginator(dir string, pageSize int) *Paginator {
	return NewPaginator(Config{
		Dir:      dir,
		PageSize: pageSize,
		Title:    "News digest bot (Hacker News 100+ points)",
		SiteURL:  "https://news.ycombinator.com/",
	}, nil)
}

func TestPagesChainConsistency(t *testing.T) {
	t.Parallel()

	p := newTestPaginator(t.TempDir(), 2)
	pages := p.Pages(makeEntries(7), generatedAt, "https://feeds.example.org/hn/")
	require.Len(t, pages, 4)

	selfOf := func(i int) string {
		href, ok := pages[i].feed.link(relSelf)
		require.True(t, ok)
		return href
	}

	assert.Equal(t, "https://feeds.example.org/hn/feed.xml", selfOf(0))
	assert.Equal(t, "https://feeds.example.org/hn/feed-3.xml", selfOf(3))

	for i, page := range pages {
		current, ok := page.feed.link(relCurrent)
		require.True(t, ok)
		assert.Equal(t, selfOf(0), current)

		alt, ok := page.feed.link(relAlternate)
		require.True(t, ok)
		assert.Equal(t, "https://news.ycombinator.com/", alt)

		if i > 0 {
			for _, rel := range []string{relPrev, relPrevArchive} {
				prev, ok := page.feed.link(rel)
				require.True(t, ok, "page %d missing %s", i, rel)
				assert.Equal(t, selfOf(i-1), prev)
			}
		} else {
			_, ok := page.feed.link(relPrev)
			assert.False(t, ok)
		}

		if i < len(pages)-1 {
			for _, rel := range []string{relNext, relNextArchive} {
				next, ok := page.feed.link(rel)
				require.True(t, ok, "page %d missing %s", i, rel)
				assert.Equal(t, selfOf(i+1), next)
			}
		} else {
			_, ok := page.feed.link(relNext)
			assert.False(t, ok, "last page must not link forward")
			_, ok = page.feed.link(relNextArchive)
			assert.False(t, ok)
		}
	}

	assert.Equal(t, 2, pages[0].Entries)
	assert.Equal(t, 1, pages[3].Entries)
}

func TestPagesWithoutBaseURLUseBareFilenames(t *testing.T) {
	t.Parallel()

	pages := newTestPaginator(t.TempDir(), 1).Pages(makeEntries(2), generatedAt, "")
	require.Len(t, pages, 2)

	self, _ := pages[1].feed.link(relSelf)
	prev, _ := pages[1].feed.link(relPrev)
	next, _ := pages[0].feed.link(relNext)
	assert.Equal(t, "feed-1.xml", self)
	assert.Equal(t, "feed.xml", prev)
	assert.Equal(t, "feed-1.xml", next)
	assert.Equal(t, "feed.xml", pages[0].feed.ID)
}

func TestPagesEmptyHistoryProducesOnePage(t *testing.T) {
	t.Parallel()

	pages := newTestPaginator(t.TempDir(), 10).Pages(nil, generatedAt, "")
	require.Len(t, pages, 1)
	assert.Empty(t, pages[0].feed.Entries)
	_, ok := pages[0].feed.link(relNext)
	assert.False(t, ok)
}

func TestEntryFields(t *testing.T) {
	t.Parallel()

	entries := makeEntries(1)
	entries = append(entries, domain.DigestEntry{
		DiscussionURL:     "https://news.ycombinator.com/item?id=5",
		Title:             "Ask HN: anything",
		ArticleSummary:    domain.TextSummary("self post"),
		DiscussionSummary: domain.TextSummary("quiet thread"),
	})

	pages := newTestPaginator(t.TempDir(), 10).Pages(entries, generatedAt, "")
	got := pages[0].feed.Entries
	require.Len(t, got, 2)

	assert.Equal(t, "urn:news-digest:1000", got[0].ID)
	assert.Equal(t, "2025-06-02T08:30:00Z", got[0].Published)
	assert.Equal(t, got[0].Published, got[0].Updated)
	require.Len(t, got[0].Links, 2)
	assert.Equal(t, atomLink{Rel: relAlternate, Href: "https://example.com/1000"}, got[0].Links[0])
	assert.Equal(t, relRelated, got[0].Links[1].Rel)
	assert.Equal(t, "HN comments", got[0].Links[1].Title)
	assert.Equal(t, "html", got[0].Summary.Type)

	assert.Equal(t, "urn:news-digest:https://news.ycombinator.com/item?id=5", got[1].ID)
	assert.Equal(t, timestamp(generatedAt), got[1].Published, "missing timestamp falls back to generation time")
	require.Len(t, got[1].Links, 1)
	assert.Equal(t, relRelated, got[1].Links[0].Rel)
}

func TestWriteProducesWellFormedAtom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	paths, err := newTestPaginator(dir, 2).Write(makeEntries(3), generatedAt, "")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "feed.xml"), filepath.Join(dir, "feed-1.xml")}, paths)

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "<?xml"))
	assert.Contains(t, string(raw), `xmlns="http://www.w3.org/2005/Atom"`)

	var parsed atomFeed
	require.NoError(t, xml.Unmarshal(raw, &parsed))
	assert.Equal(t, "News digest bot (Hacker News 100+ points)", parsed.Title)
	require.Len(t, parsed.Entries, 2)
	assert.Contains(t, parsed.Entries[0].Summary.Body, "<li>one</li>")
}

func TestWriteRemovesStalePages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := newTestPaginator(dir, 2)

	_, err := p.Write(makeEntries(6), generatedAt, "")
	require.NoError(t, err)
	for _, name := range []string{"feed.xml", "feed-1.xml", "feed-2.xml"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	unrelated := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	later := generatedAt.Add(time.Hour)
	paths, err := p.Write(makeEntries(1), later, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "feed.xml")}, paths)

	assert.NoFileExists(t, filepath.Join(dir, "feed-1.xml"))
	assert.NoFileExists(t, filepath.Join(dir, "feed-2.xml"))
	assert.FileExists(t, unrelated)

	raw, err := os.ReadFile(filepath.Join(dir, "feed.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), timestamp(later))
}

func TestWriteKeepsGoingWhenStalePageCannotBeRemoved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stuck := filepath.Join(dir, "feed-9.xml")
	require.NoError(t, os.MkdirAll(filepath.Join(stuck, "inner"), 0o755))

	var logs bytes.Buffer
	p := NewPaginator(Config{
		Dir:      dir,
		PageSize: 2,
		Title:    "News digest bot (Hacker News 100+ points)",
		SiteURL:  "https://news.ycombinator.com/",
	}, logging.NewWithWriter(&logs, "info"))

	paths, err := p.Write(makeEntries(3), generatedAt, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "feed.xml"), filepath.Join(dir, "feed-1.xml")}, paths)
	assert.DirExists(t, stuck)

	out := logs.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="failed to remove stale feed page"`)
	assert.Contains(t, out, "feed-9.xml")
}

func TestEntryWithoutIdentityGetsStableID(t *testing.T) {
	t.Parallel()

	p := newTestPaginator(t.TempDir(), 10)
	pages := p.Pages([]domain.DigestEntry{{}}, generatedAt, "")
	require.Len(t, pages, 1)
	require.Len(t, pages[0].feed.Entries, 1)
	assert.Equal(t, "urn:news-digest:untitled", pages[0].feed.Entries[0].ID)
}

func TestPageFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "feed.xml", PageFilename(0))
	assert.Equal(t, "feed-12.xml", PageFilename(12))
}
