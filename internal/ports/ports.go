package ports

import (
	"context"
	"time"

	"HNDigest/internal/domain"
)

// ItemFetcher returns current metadata of a single item. A nil item means
// the upstream has no such item.
type ItemFetcher interface {
	FetchItem(ctx context.Context, id int) (*domain.Item, error)
}

// ItemSource exposes the fixed-size ranked window and per-item metadata.
type ItemSource interface {
	ItemFetcher
	ListWindow(ctx context.Context) ([]int, error)
}

// ArticleExtractor turns an arbitrary web page into readable text.
type ArticleExtractor interface {
	ExtractArticle(ctx context.Context, url string) (string, error)
}

// ThreadExtractor returns the text of a discussion thread page.
type ThreadExtractor interface {
	ExtractThread(ctx context.Context, url string) (string, error)
}

// Summarizer produces natural-language summaries.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// StateStore loads and saves the durable run-to-run document as a whole.
type StateStore interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}

// FeedWriter renders history into feed pages and returns the written paths.
type FeedWriter interface {
	Write(entries []domain.DigestEntry, generatedAt time.Time, baseURL string) ([]string, error)
}

// Notifier announces entries published by a run to Telegram or other channels.
type Notifier interface {
	PublishEntries(ctx context.Context, source string, entries []domain.DigestEntry) error
}

// RunRecorder collects per-run figures.
type RunRecorder interface {
	ObserveRun(report domain.RunReport)
	Flush() error
}

// Scheduler controls when batches execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
