package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/statscrape/internal/cache"
	"github.com/hyperifyio/statscrape/internal/llm"
)

// ErrInvalidModelOutput reports a model answer that is not a JSON object or
// array even after cleaning.
var ErrInvalidModelOutput = errors.New("invalid model output")

// ErrEmptyBlob reports blank input text.
var ErrEmptyBlob = errors.New("empty text blob")

// Input is the text to structure plus its provenance.
type Input struct {
	Blob        string
	SourceURL   string
	ExtractedAt string
}

// Structurer asks a chat model to turn free text into records.
type Structurer struct {
	Client llm.Client
	Model  string
	// Cache, when set, answers repeated prompts from disk.
	Cache *cache.Completions
	// Debug logs the raw model answer.
	Debug bool
	Now   func() time.Time
}

// SystemPrompt returns the instruction message sent with every request.
func SystemPrompt() string {
	return "Return ONLY valid JSON (no code fences, no prose). " +
		"Use this schema exactly: " + PromptSchema + ". " +
		"If you can only produce one item, return a JSON OBJECT; if many, a JSON ARRAY of objects."
}

// UserPrompt returns the user message for in.
func UserPrompt(in Input) string {
	return fmt.Sprintf("Source URL: %s\nExtracted at: %s\n\nTEXT:\n%s", in.SourceURL, in.ExtractedAt, in.Blob)
}

// Run sends the blob to the model and returns normalized, schema-checked
// records. Blank input, unparseable answers and answers that are neither an
// object nor an array are errors.
func (s *Structurer) Run(ctx context.Context, in Input) ([]Record, error) {
	in.Blob = strings.TrimSpace(in.Blob)
	if in.Blob == "" {
		return nil, ErrEmptyBlob
	}
	if in.SourceURL == "" {
		in.SourceURL = "unknown"
	}
	if in.ExtractedAt == "" {
		in.ExtractedAt = s.now().UTC().Format(TimeLayout)
	}

	raw, err := s.complete(ctx, SystemPrompt(), UserPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if s.Debug {
		log.Info().Str("raw", raw).Msg("model output")
	}

	entries, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	recs := normalizeAt(entries, in.SourceURL, in.ExtractedAt, in.Blob, s.now)
	if err := ValidateRecords(recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Parse cleans a model answer and returns its entries. An object becomes a
// one-element list.
func Parse(raw string) ([]any, error) {
	cleaned := Clean(raw)
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: not JSON after cleaning: %v\n%s", ErrInvalidModelOutput, err, cleaned)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON value\n%s", ErrInvalidModelOutput, cleaned)
	}
	switch v := parsed.(type) {
	case map[string]any:
		return []any{v}, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: parsed JSON is neither object nor array (got %T)", ErrInvalidModelOutput, parsed)
	}
}

func (s *Structurer) complete(ctx context.Context, system, user string) (string, error) {
	key := cache.Key(s.Model, system, user)
	if s.Cache != nil {
		if hit, ok, err := s.Cache.Get(ctx, key); err == nil && ok {
			log.Debug().Str("key", key).Msg("model cache hit")
			return hit.Content, nil
		}
	}
	out, err := llm.Complete(ctx, s.Client, s.Model, system, user)
	if err != nil {
		return "", err
	}
	if s.Cache != nil {
		if err := s.Cache.Save(ctx, key, cache.Completion{Model: s.Model, Content: out}); err != nil {
			log.Warn().Err(err).Msg("model cache save failed")
		}
	}
	return out, nil
}

func (s *Structurer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
