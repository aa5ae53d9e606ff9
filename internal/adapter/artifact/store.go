// Package artifact persists the job's single JSON output record.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidewatch/currentpoint/internal/domain"
)

// Store reads and writes the artifact file. It implements pipeline.Store.
type Store struct {
	path string
}

// NewStore creates a store for the given artifact path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the previously persisted artifact. The boolean reports whether
// one exists; a missing file is not an error.
func (s *Store) Load() (domain.Artifact, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Artifact{}, false, nil
	}
	if err != nil {
		return domain.Artifact{}, false, fmt.Errorf("read artifact %s: %w", s.path, err)
	}

	var a domain.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return domain.Artifact{}, false, fmt.Errorf("decode artifact %s: %w", s.path, err)
	}
	return a, true, nil
}

// Save writes the artifact in full, creating the parent directory if needed.
// The write goes to a temp file in the same directory followed by a rename,
// so readers never observe a partially written artifact.
func (s *Store) Save(a domain.Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact %s: %w", s.path, err)
	}
	return nil
}
