package usecase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Publisher mirrors each source's generated pages into a public directory
// served under <base URL>/<slug>.
type Publisher struct {
	publicDir string
}

// NewPublisher returns nil when publicDir is empty, which disables publishing.
func NewPublisher(publicDir string) *Publisher {
	if publicDir == "" {
		return nil
	}
	return &Publisher{publicDir: publicDir}
}

// Publish replaces <publicDir>/<slug> with the .xml files found in srcDir.
func (p *Publisher) Publish(slug, srcDir string) ([]string, error) {
	if p == nil {
		return nil, nil
	}

	dest := filepath.Join(p.publicDir, slug)
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("clear %s: %w", dest, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}

	pages, err := filepath.Glob(filepath.Join(srcDir, "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("list pages in %s: %w", srcDir, err)
	}

	copied := make([]string, 0, len(pages))
	for _, src := range pages {
		target := filepath.Join(dest, filepath.Base(src))
		if err := copyFile(src, target); err != nil {
			return copied, err
		}
		copied = append(copied, target)
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
