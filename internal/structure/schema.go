package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PromptSchema is the shape the model is asked to produce, as shown to it.
const PromptSchema = `{"id": "string (unique id)", "title": "string", "summary": "string", "source_url": "string", "extracted_at": "ISO8601 timestamp"}`

const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "title", "summary", "source_url", "extracted_at"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "title": {"type": "string"},
      "summary": {"type": "string"},
      "source_url": {"type": "string", "minLength": 1},
      "extracted_at": {"type": "string", "minLength": 1}
    },
    "additionalProperties": false
  }
}`

var compiledRecords = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("records.json", bytes.NewReader([]byte(recordsSchema))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("records.json")
})

// ValidateRecords checks records against the records schema.
func ValidateRecords(recs []Record) error {
	schema, err := compiledRecords()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if recs == nil {
		recs = []Record{}
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal records: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("records do not match schema: %w", err)
	}
	return nil
}
