// Package enrich turns crossing candidates into digest entries by calling the
// extraction and summarization collaborators. Failures never drop an entry.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

var errNoSummarizer = errors.New("summarizer is not configured")

// Deps wires the external collaborators.
type Deps struct {
	Articles   ports.ArticleExtractor
	Threads    ports.ThreadExtractor
	Summarizer ports.Summarizer
}

// Enricher builds DigestEntry values; each call is attempted once.
type Enricher struct {
	articles   ports.ArticleExtractor
	threads    ports.ThreadExtractor
	summarizer ports.Summarizer
	workers    int
	logger     *slog.Logger
}

// New constructs the adapter. Workers below one means sequential enrichment.
func New(deps Deps, workers int, logger *slog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		articles:   deps.Articles,
		threads:    deps.Threads,
		summarizer: deps.Summarizer,
		workers:    workers,
		logger:     logger,
	}
}

// Enrich returns one entry per candidate, in candidate order.
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.Candidate, now time.Time) []domain.DigestEntry {
	entries := make([]domain.DigestEntry, len(candidates))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, c := range candidates {
		g.Go(func() error {
			entries[i] = e.entry(ctx, c, now)
			return nil
		})
	}
	_ = g.Wait()

	return entries
}

// threadCache fetches a discussion thread at most once per candidate.
type threadCache struct {
	fetch func() (string, error)
	done  bool
	text  string
	err   error
}

func (t *threadCache) get() (string, error) {
	if !t.done {
		t.text, t.err = t.fetch()
		t.done = true
	}
	return t.text, t.err
}

func (e *Enricher) entry(ctx context.Context, c domain.Candidate, now time.Time) domain.DigestEntry {
	item := c.Item
	log := e.logger.With("item_id", item.ID)
	log.Info("preparing digest entry", "score", c.Score)

	thread := &threadCache{fetch: func() (string, error) {
		if e.threads == nil {
			return "", errors.New("thread extractor is not configured")
		}
		return e.threads.ExtractThread(ctx, item.DiscussionURL)
	}}

	published := now
	if item.CreatedAt != nil {
		published = *item.CreatedAt
	}

	entry := domain.DigestEntry{
		ID:              item.ID,
		Title:           item.Title,
		Score:           domain.IntPtr(c.Score),
		ArticleURL:      item.ArticleURL,
		DiscussionURL:   item.DiscussionURL,
		DiscussionCount: item.DiscussionCount,
		PublishedAt:     &published,
	}
	if entry.Title == "" {
		entry.Title = "(no title)"
	}

	entry.ArticleSummary = e.articleSummary(ctx, item, entry.Title, thread)
	if entry.ArticleSummary.Failed() {
		log.Warn("article summary failed", "reason", entry.ArticleSummary.Reason)
	}

	entry.DiscussionSummary = e.commentsSummary(ctx, item, entry.Title, thread)
	if entry.DiscussionSummary.Failed() {
		log.Warn("comments summary failed", "reason", entry.DiscussionSummary.Reason)
	}

	return entry
}

func (e *Enricher) articleSummary(ctx context.Context, item domain.Item, title string, thread *threadCache) domain.Summary {
	if item.ArticleURL != "" {
		if e.articles == nil {
			return domain.FailedSummary(stepArticle, errors.New("article extractor is not configured"))
		}
		text, err := e.articles.ExtractArticle(ctx, item.ArticleURL)
		if err != nil {
			return domain.FailedSummary(stepArticle, err)
		}
		user := fmt.Sprintf("Title: %s\nURL: %s\n\nArticle text:\n%s", title, item.ArticleURL, text)
		return e.summarize(ctx, stepArticle, articlePrompt, user)
	}

	text := item.BodyText
	if text == "" {
		var err error
		if text, err = thread.get(); err != nil {
			return domain.FailedSummary(stepSelfPost, err)
		}
	}
	user := fmt.Sprintf("Title: %s\nHN thread: %s\n\nThread text:\n%s", title, item.DiscussionURL, text)
	return e.summarize(ctx, stepSelfPost, selfPostPrompt, user)
}

func (e *Enricher) commentsSummary(ctx context.Context, item domain.Item, title string, thread *threadCache) domain.Summary {
	text, err := thread.get()
	if err != nil {
		return domain.FailedSummary(stepComments, err)
	}
	user := fmt.Sprintf("HN thread: %s\nTitle: %s\n\nThread text:\n%s", item.DiscussionURL, title, text)
	return e.summarize(ctx, stepComments, commentsPrompt, user)
}

func (e *Enricher) summarize(ctx context.Context, step, system, user string) domain.Summary {
	if e.summarizer == nil {
		return domain.FailedSummary(step, errNoSummarizer)
	}
	text, err := e.summarizer.Summarize(ctx, system, user)
	if err != nil {
		return domain.FailedSummary(step, err)
	}
	return domain.TextSummary(text)
}
