package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Completion is a stored model answer.
type Completion struct {
	Model   string    `json:"model"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"saved_at"`
}

// Completions stores chat completions on disk keyed by a digest of the model
// and prompt. With temperature pinned to zero a cached answer is as good as a
// fresh one, and re-running the structurer costs nothing.
type Completions struct {
	Dir string
	// StrictPerms enforces 0700 on the directory and 0600 on entries.
	StrictPerms bool
}

// Key builds a cache key from the model and both prompt messages.
func Key(model, system, user string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + system + "\n\n" + user))
	return hex.EncodeToString(h[:])
}

func (c *Completions) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *Completions) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached completion for key. A missing or unreadable entry is
// a miss, not an error.
func (c *Completions) Get(_ context.Context, key string) (Completion, bool, error) {
	if err := c.ensureDir(); err != nil {
		return Completion{}, false, err
	}
	b, err := os.ReadFile(c.pathFor(key))
	if err != nil {
		return Completion{}, false, nil
	}
	var out Completion
	if err := json.Unmarshal(b, &out); err != nil {
		return Completion{}, false, nil
	}
	return out, true, nil
}

// Save writes a completion under key.
func (c *Completions) Save(_ context.Context, key string, entry Completion) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	if entry.SavedAt.IsZero() {
		entry.SavedAt = time.Now().UTC()
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	tmp := c.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, b, mode); err != nil {
		return err
	}
	return os.Rename(tmp, c.pathFor(key))
}
