package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore persists the ledger as a JSON object in a single file
//
// Writes go to a temporary file in the same directory which is synced and
// then renamed over the target, so readers never see a partial document.
type FileStore struct {
	mu   sync.Mutex // Serialises writers within this process
	path string
}

// NewFileStore returns a store backed by the JSON file at path
// The parent directory is created if missing; the file itself is created on first Save
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{path: clean}, nil
}

// Path returns the backing file path
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the ledger file
// A missing file is an empty ledger; a file that is not a JSON object is an error
func (f *FileStore) Load(ctx context.Context) (Ledger, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(Ledger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(Ledger), nil
	}

	ledger := make(Ledger)
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", f.path, err)
	}
	return ledger, nil
}

// Save atomically replaces the ledger file
func (f *FileStore) Save(ctx context.Context, ledger Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	committed = true
	return nil
}
