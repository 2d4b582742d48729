package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir removes the directory and all contents, then recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes completion entries saved more than maxAge ago. Entries
// whose SavedAt cannot be read fall back to the file modification time.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		saved := time.Time{}
		if b, err := os.ReadFile(path); err == nil {
			var c Completion
			if json.Unmarshal(b, &c) == nil {
				saved = c.SavedAt
			}
		}
		if saved.IsZero() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			saved = info.ModTime()
		}
		if now.Sub(saved.UTC()) <= maxAge {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}
