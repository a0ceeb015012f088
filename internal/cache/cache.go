// Package cache persists the latest good snapshot to a JSON file so the bar
// has data to show immediately after a restart, before the first poll lands.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pskel/usagebar/internal/usage"
)

// File is a whole-snapshot overwrite cache at a fixed path.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

// Load reads the cached snapshot. A missing file is not an error; it returns
// an empty snapshot and ok=false.
func (f *File) Load() (usage.Snapshot, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return usage.Snapshot{}, false, nil
	}
	if err != nil {
		return usage.Snapshot{}, false, err
	}
	var snap usage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return usage.Snapshot{}, false, fmt.Errorf("parse cache: %w", err)
	}
	return snap, true, nil
}

// Save overwrites the cache with snap.
func (f *File) Save(snap usage.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}
