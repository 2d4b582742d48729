package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Meta is the provenance sidecar written next to scraped data.
type Meta struct {
	SourceURL   string
	ExtractedAt string
}

// String renders the sidecar as key=value lines without a trailing newline.
func (m Meta) String() string {
	return fmt.Sprintf("source_url=%s\nextracted_at=%s", m.SourceURL, m.ExtractedAt)
}

// ParseMeta reads key=value lines. Each line splits at its first '=' and both
// sides are trimmed; lines without '=' are ignored.
func ParseMeta(s string) map[string]string {
	out := map[string]string{}
	for _, line := range strings.Split(s, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// ReadMeta loads the sidecar at path. A missing file yields empty values.
func ReadMeta(path string) (Meta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Meta{}, nil
		}
		return Meta{}, err
	}
	kv := ParseMeta(string(b))
	return Meta{SourceURL: kv["source_url"], ExtractedAt: kv["extracted_at"]}, nil
}
