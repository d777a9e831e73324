package feed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"HNDigest/internal/domain"
)

func TestBulletItems(t *testing.T) {
	t.Parallel()

	items := BulletItems("- likes X\n- dislikes Y\nSome trailing sentence.")
	assert.Equal(t, []string{"likes X", "dislikes Y"}, items)

	assert.Equal(t, []string{"indented", "tight"}, BulletItems("  -   indented  \n-tight\n-\n"))
	assert.Empty(t, BulletItems("Just a paragraph."))
}

func TestRenderSummaryBullets(t *testing.T) {
	t.Parallel()

	e := domain.DigestEntry{
		Score:             domain.IntPtr(150),
		DiscussionCount:   domain.IntPtr(42),
		ArticleURL:        "https://example.com/a?x=1&y=2",
		DiscussionURL:     "https://news.ycombinator.com/item?id=1",
		ArticleSummary:    domain.TextSummary("Short <b>summary</b>"),
		DiscussionSummary: domain.TextSummary("- likes X\n- dislikes Y\nSome trailing sentence."),
	}

	out := RenderSummary(e, "HN thread")

	assert.Contains(t, out, "<p><strong>Points:</strong> 150</p>")
	assert.Contains(t, out, "<p><strong>Total comments:</strong> 42</p>")
	assert.Contains(t, out, `<a href="https://example.com/a?x=1&amp;y=2">`)
	assert.Contains(t, out, "Short &lt;b&gt;summary&lt;/b&gt;")
	assert.Contains(t, out, "<ul><li>likes X</li><li>dislikes Y</li></ul>")
	assert.Equal(t, 2, strings.Count(out, "<li>"))
	assert.NotContains(t, out, "Some trailing sentence.")
	assert.Contains(t, out, "<strong>HN thread:</strong>")
}

func TestRenderSummaryParagraphAndPlaceholders(t *testing.T) {
	t.Parallel()

	e := domain.DigestEntry{
		ArticleSummary:    domain.FailedSummary("fetch/summarize article", errors.New("status 403")),
		DiscussionSummary: domain.TextSummary(`People argue "a" > "b".`),
	}

	out := RenderSummary(e, "HN thread")

	assert.Contains(t, out, "<p><strong>Points:</strong> n/a</p>")
	assert.Contains(t, out, "<p><strong>Total comments:</strong> n/a</p>")
	assert.Contains(t, out, "<p><strong>Link:</strong> (none)</p>")
	assert.Contains(t, out, "(failed to fetch/summarize article: status 403)")
	assert.Contains(t, out, "<p><strong>Comments summary:</strong> People argue &#34;a&#34; &gt; &#34;b&#34;.</p>")
	assert.NotContains(t, out, "HN thread")
}
