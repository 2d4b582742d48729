package structure

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, s string) []any {
	t.Helper()
	entries, err := Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return entries
}

func TestNormalize_FillsDefaults(t *testing.T) {
	recs := Normalize(decode(t, `{"title":"x"}`), "", "2025-01-01T00:00:00.000000+00:00", "blob")
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	r := recs[0]
	if r.Title != "x" || r.Summary != "x" || r.SourceURL != "unknown" {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.ExtractedAt != "2025-01-01T00:00:00.000000+00:00" {
		t.Fatalf("extracted_at = %q", r.ExtractedAt)
	}
	if len(r.ID) != 20 {
		t.Fatalf("id length = %d", len(r.ID))
	}
}

func TestNormalize_DropsNonMappings(t *testing.T) {
	entries := decode(t, `[{"title":"a"}, 1, "x", null, [1], {"title":"b"}]`)
	recs := Normalize(entries, "https://example.com", "t", "blob")
	if len(recs) != 2 || recs[0].Title != "a" || recs[1].Title != "b" {
		t.Fatalf("unexpected records %+v", recs)
	}
	if len(recs) > len(entries) {
		t.Fatalf("output larger than input")
	}
}

func TestNormalize_FalsyValuesUseFallbacks(t *testing.T) {
	entries := decode(t, `[{"id":"","title":"T","summary":"","source_url":null,"extracted_at":0}]`)
	recs := Normalize(entries, "https://fallback", "when", "blob")
	r := recs[0]
	if r.ID == "" || r.Summary != "T" || r.SourceURL != "https://fallback" || r.ExtractedAt != "when" {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestNormalize_KeepsGivenValues(t *testing.T) {
	entries := decode(t, `{"id":"abc","title":"T","summary":"S","source_url":"u","extracted_at":"e"}`)
	r := Normalize(entries, "f", "g", "blob")[0]
	want := Record{ID: "abc", Title: "T", Summary: "S", SourceURL: "u", ExtractedAt: "e"}
	if r != want {
		t.Fatalf("got %+v want %+v", r, want)
	}
}

func TestNormalize_ScalarsRenderedAsJSONText(t *testing.T) {
	r := Normalize(decode(t, `{"id":5,"title":true,"summary":2.50}`), "u", "e", "")[0]
	if r.ID != "5" || r.Title != "true" || r.Summary != "2.50" {
		t.Fatalf("unexpected record %+v", r)
	}
}

func TestNormalize_MissingTimestampUsesNow(t *testing.T) {
	fixed := time.Date(2025, 9, 30, 18, 4, 5, 123456000, time.UTC)
	recs := normalizeAt(decode(t, `{"title":"x"}`), "", "", "b", func() time.Time { return fixed })
	if got := recs[0].ExtractedAt; got != "2025-09-30T18:04:05.123456+00:00" {
		t.Fatalf("extracted_at = %q", got)
	}
}

func TestRecordID_Deterministic(t *testing.T) {
	a := RecordID("title", "https://x", "2025-01-01", 10)
	b := RecordID("title", "https://x", "2025-01-01", 10)
	if a != b {
		t.Fatalf("ids differ: %s vs %s", a, b)
	}
	if a == RecordID("title", "https://x", "2025-01-01", 11) {
		t.Fatalf("expected blob length to change the id")
	}
	if len(a) != 20 || strings.Trim(a, "0123456789abcdef") != "" {
		t.Fatalf("unexpected id %q", a)
	}
}

func TestRecordID_CountsCodePoints(t *testing.T) {
	entries := decode(t, `{"title":"x","source_url":"u","extracted_at":"e"}`)
	got := Normalize(entries, "", "", "héllo")[0].ID
	if got != RecordID("x", "u", "e", 5) {
		t.Fatalf("expected rune count of blob in id seed")
	}
}

func TestWriteRecords_LiteralCharacters(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecords(&buf, []Record{{ID: "1", Title: "Café <b>&</b>", Summary: "s", SourceURL: "u", ExtractedAt: "e"}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Café <b>&</b>") {
		t.Fatalf("expected literal characters, got %s", out)
	}
	if !strings.Contains(out, "\n  {\n    \"id\": \"1\"") {
		t.Fatalf("expected two-space indentation, got %s", out)
	}
	var back []Record
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil || len(back) != 1 {
		t.Fatalf("round trip: %v", err)
	}
}

func TestValidateRecords(t *testing.T) {
	ok := []Record{{ID: "1", Title: "", Summary: "", SourceURL: "u", ExtractedAt: "e"}}
	if err := ValidateRecords(ok); err != nil {
		t.Fatalf("expected valid: %v", err)
	}
	if err := ValidateRecords([]Record{{Title: "t", SourceURL: "u", ExtractedAt: "e"}}); err == nil {
		t.Fatalf("expected empty id to fail")
	}
	if err := ValidateRecords(nil); err != nil {
		t.Fatalf("empty list should validate: %v", err)
	}
}
