package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

// JSONStore keeps the state document in a single JSON file.
type JSONStore struct {
	path string
}

var _ ports.StateStore = (*JSONStore)(nil)

// NewJSONStore binds the store to path; the file is created on first save.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the state. A missing file yields the empty state. A file that
// cannot be decoded yields the empty state together with ErrCorruptState.
func (s *JSONStore) Load(ctx context.Context) (domain.State, error) {
	if err := ctx.Err(); err != nil {
		return domain.State{}, err
	}

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EmptyState(), nil
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("read state %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.EmptyState(), fmt.Errorf("%w: %s is empty", ErrCorruptState, s.path)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.EmptyState(), fmt.Errorf("%w: decode %s: %v", ErrCorruptState, s.path, err)
	}

	state, err := decodeState(doc)
	if err != nil {
		return domain.EmptyState(), fmt.Errorf("decode %s: %w", s.path, err)
	}
	return state, nil
}

// Save replaces the file atomically so readers never see a partial document.
func (s *JSONStore) Save(ctx context.Context, state domain.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(encodeState(state)); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state %s: %w", s.path, err)
	}
	return nil
}
