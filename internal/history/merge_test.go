package history

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HNDigest/internal/domain"
)

var base = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func entry(id int, minutes int, score int) domain.DigestEntry {
	ts := base.Add(time.Duration(minutes) * time.Minute)
	return domain.DigestEntry{
		ID:          id,
		Title:       fmt.Sprintf("story %d", id),
		Score:       domain.IntPtr(score),
		PublishedAt: &ts,
	}
}

func ids(entries []domain.DigestEntry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestMergeSortsNewestFirst(t *testing.T) {
	t.Parallel()

	existing := []domain.DigestEntry{entry(1, 0, 100), entry(2, 10, 100)}
	fresh := []domain.DigestEntry{entry(3, 5, 100)}

	got := Merge(existing, fresh, 10)
	assert.Equal(t, []int{2, 3, 1}, ids(got))
}

func TestMergeLastWriteWins(t *testing.T) {
	t.Parallel()

	old := entry(1, 30, 100)
	old.ArticleSummary = domain.TextSummary("old")
	replacement := entry(1, 0, 180)
	replacement.ArticleSummary = domain.TextSummary("new")

	got := Merge([]domain.DigestEntry{old, entry(2, 10, 100)}, []domain.DigestEntry{replacement}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, []int{2, 1}, ids(got))
	assert.Equal(t, "new", got[1].ArticleSummary.String())
	assert.Equal(t, replacement.PublishedAt, got[1].PublishedAt)
}

func TestMergeTieBreaksOnScore(t *testing.T) {
	t.Parallel()

	got := Merge(nil, []domain.DigestEntry{entry(1, 0, 120), entry(2, 0, 300), entry(3, 0, 200)}, 10)
	assert.Equal(t, []int{2, 3, 1}, ids(got))
}

func TestMergeAbsentValuesSortLast(t *testing.T) {
	t.Parallel()

	bare := domain.DigestEntry{Title: "no timestamp"}
	got := Merge([]domain.DigestEntry{bare}, []domain.DigestEntry{entry(1, 0, 100)}, 10)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, "no timestamp", got[1].Title)
}

func TestMergeKeepsTopByOrder(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	var existing, fresh []domain.DigestEntry
	for id := 1; id <= 60; id++ {
		e := entry(id, rng.Intn(500), rng.Intn(400))
		if id%3 == 0 {
			fresh = append(fresh, e)
		} else {
			existing = append(existing, e)
		}
	}

	const limit = 25
	got := Merge(existing, fresh, limit)
	require.Len(t, got, limit)

	all := append(append([]domain.DigestEntry{}, existing...), fresh...)
	sort.SliceStable(all, func(a, b int) bool { return Less(all[b], all[a]) })
	for i := range got {
		assert.Equal(t, publishedAt(all[i]), publishedAt(got[i]))
		assert.Equal(t, score(all[i]), score(got[i]))
	}
}

func TestMergeNeverDuplicatesKeys(t *testing.T) {
	t.Parallel()

	existing := []domain.DigestEntry{
		entry(1, 0, 100),
		{DiscussionURL: "https://news.ycombinator.com/item?id=77", Title: "a"},
		{ArticleURL: "https://example.com/x", Title: "b"},
	}
	fresh := []domain.DigestEntry{
		entry(1, 3, 150),
		{DiscussionURL: "https://news.ycombinator.com/item?id=77", Title: "a2"},
		{ArticleURL: "https://example.com/x", Title: "b2"},
		entry(2, 1, 100),
	}

	got := Merge(existing, fresh, 0)
	seen := map[string]bool{}
	for _, e := range got {
		assert.False(t, seen[e.Key()], "duplicate key %q", e.Key())
		seen[e.Key()] = true
	}
	assert.Len(t, got, 4)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	t.Parallel()

	existing := []domain.DigestEntry{entry(1, 0, 100), entry(2, 5, 100)}
	_ = Merge(existing, []domain.DigestEntry{entry(3, 10, 100)}, 1)
	assert.Equal(t, []int{1, 2}, ids(existing))
}

func TestKeys(t *testing.T) {
	t.Parallel()

	keys := Keys([]domain.DigestEntry{entry(4, 0, 1), {Title: "t"}})
	assert.Contains(t, keys, "4")
	assert.Contains(t, keys, "t")
}
