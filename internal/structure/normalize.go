package structure

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

// TimeLayout renders timestamps with microseconds and a numeric offset, e.g.
// 2025-09-30T18:04:05.123456+00:00.
const TimeLayout = "2006-01-02T15:04:05.000000-07:00"

// Record is one normalized document. Every field is a non-null string.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	SourceURL   string `json:"source_url"`
	ExtractedAt string `json:"extracted_at"`
}

// Normalize turns arbitrary decoded JSON entries into records. Entries that
// are not objects are dropped; output order follows input order. Missing
// fields are filled from the fallbacks, and a missing id is derived from the
// title, source, timestamp and blob length so reruns produce the same id.
func Normalize(entries []any, fallbackURL, fallbackExtractedAt, blob string) []Record {
	return normalizeAt(entries, fallbackURL, fallbackExtractedAt, blob, time.Now)
}

func normalizeAt(entries []any, fallbackURL, fallbackExtractedAt, blob string, now func() time.Time) []Record {
	out := make([]Record, 0, len(entries))
	blobLen := utf8.RuneCountInString(blob)
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		title := firstText(m["title"], "")
		sourceURL := firstText(m["source_url"], firstNonEmpty(fallbackURL, "unknown"))
		extractedAt := firstText(m["extracted_at"], fallbackExtractedAt)
		if extractedAt == "" {
			extractedAt = now().UTC().Format(TimeLayout)
		}
		summary := firstText(m["summary"], title)
		id := firstText(m["id"], "")
		if id == "" {
			id = RecordID(title, sourceURL, extractedAt, blobLen)
		}
		out = append(out, Record{
			ID:          id,
			Title:       title,
			Summary:     summary,
			SourceURL:   sourceURL,
			ExtractedAt: extractedAt,
		})
	}
	return out
}

// RecordID returns the first 20 hex characters of the SHA-1 of
// "title|source|extracted_at|blob_len".
func RecordID(title, sourceURL, extractedAt string, blobLen int) string {
	seed := fmt.Sprintf("%s|%s|%s|%d", title, sourceURL, extractedAt, blobLen)
	sum := sha1.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])[:20]
}

// WriteRecords encodes records with two-space indentation, keeping non-ASCII
// and HTML characters literal.
func WriteRecords(w io.Writer, recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// firstText returns v as text when v is truthy, else fallback.
func firstText(v any, fallback string) string {
	if !truthy(v) {
		return fallback
	}
	return text(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truthy treats null, false, empty strings, zero numbers and empty
// collections as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimRight(buf.String(), "\n")
}
