// Package feed renders entry history into archive-paginated Atom documents.
package feed

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

const (
	currentFilename = "feed.xml"
	pagePattern     = "feed*.xml"
	defaultIDPrefix = "urn:news-digest"
)

// Config describes the output location and the fixed feed metadata.
type Config struct {
	Dir          string
	PageSize     int
	Title        string
	SiteURL      string
	IDPrefix     string
	ThreadLabel  string
	RelatedTitle string
}

// Page is one rendered feed document.
type Page struct {
	Index    int
	Filename string
	Entries  int
	feed     atomFeed
}

// Paginator writes history as a chain of Atom pages anchored at feed.xml.
type Paginator struct {
	cfg    Config
	logger *slog.Logger
}

var _ ports.FeedWriter = (*Paginator)(nil)

// NewPaginator fills defaults for unset labels and sizes.
func NewPaginator(cfg Config, logger *slog.Logger) *Paginator {
	if cfg.PageSize < 1 {
		cfg.PageSize = 200
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = defaultIDPrefix
	}
	if cfg.ThreadLabel == "" {
		cfg.ThreadLabel = "HN thread"
	}
	if cfg.RelatedTitle == "" {
		cfg.RelatedTitle = "HN comments"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Paginator{cfg: cfg, logger: logger}
}

// PageFilename is feed.xml for the current page and feed-<n>.xml for archives.
func PageFilename(idx int) string {
	if idx == 0 {
		return currentFilename
	}
	return fmt.Sprintf("feed-%d.xml", idx)
}

func pageHref(baseURL string, idx int) string {
	name := PageFilename(idx)
	if baseURL == "" {
		return name
	}
	return baseURL + "/" + name
}

// Pages splits entries into documents. There is always at least one page.
func (p *Paginator) Pages(entries []domain.DigestEntry, generatedAt time.Time, baseURL string) []Page {
	baseURL = strings.TrimRight(baseURL, "/")
	total := (len(entries) + p.cfg.PageSize - 1) / p.cfg.PageSize
	if total < 1 {
		total = 1
	}

	pages := make([]Page, 0, total)
	for idx := 0; idx < total; idx++ {
		start := idx * p.cfg.PageSize
		end := min(start+p.cfg.PageSize, len(entries))
		chunk := entries[start:end]

		self := pageHref(baseURL, idx)
		id := self
		if id == "" {
			id = p.cfg.IDPrefix
		}

		f := atomFeed{
			Title:   p.cfg.Title,
			ID:      id,
			Updated: timestamp(generatedAt),
			Links: []atomLink{
				{Rel: relSelf, Href: self, Type: atomMediaType},
				{Rel: relCurrent, Href: pageHref(baseURL, 0), Type: atomMediaType},
				{Rel: relAlternate, Href: p.cfg.SiteURL},
			},
		}
		if idx > 0 {
			prev := pageHref(baseURL, idx-1)
			f.Links = append(f.Links,
				atomLink{Rel: relPrevArchive, Href: prev},
				atomLink{Rel: relPrev, Href: prev},
			)
		}
		if idx < total-1 {
			next := pageHref(baseURL, idx+1)
			f.Links = append(f.Links,
				atomLink{Rel: relNextArchive, Href: next},
				atomLink{Rel: relNext, Href: next},
			)
		}

		for _, e := range chunk {
			f.Entries = append(f.Entries, p.entry(e, generatedAt))
		}

		pages = append(pages, Page{Index: idx, Filename: PageFilename(idx), Entries: len(chunk), feed: f})
	}

	return pages
}

func (p *Paginator) entry(e domain.DigestEntry, generatedAt time.Time) atomEntry {
	published := generatedAt
	if e.PublishedAt != nil {
		published = *e.PublishedAt
	}

	out := atomEntry{
		Title:     e.Title,
		ID:        p.cfg.IDPrefix + ":" + e.Key(),
		Updated:   timestamp(published),
		Published: timestamp(published),
		Summary:   atomText{Type: "html", Body: RenderSummary(e, p.cfg.ThreadLabel)},
	}
	if e.ArticleURL != "" {
		out.Links = append(out.Links, atomLink{Rel: relAlternate, Href: e.ArticleURL})
	}
	if e.DiscussionURL != "" {
		out.Links = append(out.Links, atomLink{Rel: relRelated, Href: e.DiscussionURL, Title: p.cfg.RelatedTitle})
	}
	return out
}

// Write renders and stores every page, then removes pages left over from
// earlier runs. It returns the paths written, current page first.
func (p *Paginator) Write(entries []domain.DigestEntry, generatedAt time.Time, baseURL string) ([]string, error) {
	if err := os.MkdirAll(p.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create feed dir: %w", err)
	}

	pages := p.Pages(entries, generatedAt, baseURL)
	written := make(map[string]struct{}, len(pages))
	paths := make([]string, 0, len(pages))

	for _, page := range pages {
		body, err := xml.MarshalIndent(page.feed, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("marshal page %d: %w", page.Index, err)
		}
		path := filepath.Join(p.cfg.Dir, page.Filename)
		if err := writeFileAtomic(path, append([]byte(xml.Header), body...)); err != nil {
			return paths, fmt.Errorf("write page %d: %w", page.Index, err)
		}
		written[page.Filename] = struct{}{}
		paths = append(paths, path)
		p.logger.Info("wrote feed page", "path", path, "entries", page.Entries)
	}

	p.removeStale(written)
	return paths, nil
}

func (p *Paginator) removeStale(written map[string]struct{}) {
	existing, err := filepath.Glob(filepath.Join(p.cfg.Dir, pagePattern))
	if err != nil {
		p.logger.Warn("list feed pages failed", "dir", p.cfg.Dir, "error", err)
		return
	}
	for _, path := range existing {
		if _, ok := written[filepath.Base(path)]; ok {
			continue
		}
		if err := os.Remove(path); err != nil {
			p.logger.Warn("failed to remove stale feed page", "path", path, "error", err)
			continue
		}
		p.logger.Info("removed stale feed page", "path", path)
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-page-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
