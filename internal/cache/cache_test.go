package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCompletions_SaveGet(t *testing.T) {
	c := &Completions{Dir: t.TempDir()}
	key := Key("gpt-4o", "system", "user")
	if err := c.Save(context.Background(), key, Completion{Model: "gpt-4o", Content: `{"title":"x"}`}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if got.Content != `{"title":"x"}` || got.SavedAt.IsZero() {
		t.Fatalf("unexpected entry %+v", got)
	}
	if _, ok, _ := c.Get(context.Background(), Key("gpt-4o", "system", "other")); ok {
		t.Fatalf("expected miss for a different prompt")
	}
}

func TestCompletions_StrictPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "llm")
	c := &Completions{Dir: dir, StrictPerms: true}
	key := Key("m", "s", "u")
	if err := c.Save(context.Background(), key, Completion{Content: "{}"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	c := &Completions{Dir: dir}
	old := Key("m", "s", "old")
	fresh := Key("m", "s", "fresh")
	_ = c.Save(context.Background(), old, Completion{Content: "1", SavedAt: time.Now().Add(-48 * time.Hour)})
	_ = c.Save(context.Background(), fresh, Completion{Content: "2"})

	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := c.Get(context.Background(), old); ok {
		t.Fatalf("expected old entry purged")
	}
	if _, ok, _ := c.Get(context.Background(), fresh); !ok {
		t.Fatalf("expected fresh entry kept")
	}
}

func TestPurgeByAge_MissingDir(t *testing.T) {
	if _, err := PurgeByAge(filepath.Join(t.TempDir(), "nope"), time.Hour); err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
}

func TestMemo_ExpiresAfterTTL(t *testing.T) {
	m := NewMemo[int](time.Minute)
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}

	v, hit, err := m.Get(context.Background(), load)
	if err != nil || hit || v != 1 {
		t.Fatalf("first get: v=%d hit=%v err=%v", v, hit, err)
	}
	now = now.Add(59 * time.Second)
	if v, hit, _ = m.Get(context.Background(), load); !hit || v != 1 {
		t.Fatalf("expected cached value within window, v=%d hit=%v", v, hit)
	}
	now = now.Add(2 * time.Second)
	if v, hit, _ = m.Get(context.Background(), load); hit || v != 2 {
		t.Fatalf("expected reload after window, v=%d hit=%v", v, hit)
	}
	m.Invalidate()
	if v, _, _ = m.Get(context.Background(), load); v != 3 {
		t.Fatalf("expected reload after invalidate, v=%d", v)
	}
}

func TestMemo_LoadErrorNotCached(t *testing.T) {
	m := NewMemo[string](time.Minute)
	boom := errors.New("boom")
	if _, _, err := m.Get(context.Background(), func(context.Context) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	v, hit, err := m.Get(context.Background(), func(context.Context) (string, error) { return "ok", nil })
	if err != nil || hit || v != "ok" {
		t.Fatalf("expected fresh load after error, v=%q hit=%v err=%v", v, hit, err)
	}
}
