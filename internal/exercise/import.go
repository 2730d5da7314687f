package exercise

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// fileSchema describes the exercise import file format. Raw files are
// validated against this before any record is decoded, so a malformed file
// is rejected as a whole instead of half-imported.
var fileSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"exercises": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":          map[string]any{"type": "string", "minLength": 1},
					"title":       map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string"},
					"domain":      map[string]any{"type": "string", "minLength": 1},
					"difficulty":  map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
					"steps": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"content": map[string]any{"type": "string"},
					"tests": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"name":  map[string]any{"type": "string", "minLength": 1},
								"input": map[string]any{"type": "string"},
								"want":  map[string]any{"type": "string"},
							},
							"required":             []any{"name", "want"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []any{"id", "title", "domain", "difficulty"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"exercises"},
	"additionalProperties": false,
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compiledFileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value (any), not raw
		// bytes. Marshal then unmarshal to get a clean any representation.
		defBytes, err := json.Marshal(fileSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://exercises.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// importFile mirrors the wire format of an exercise file.
type importFile struct {
	Exercises []importRecord `json:"exercises"`
}

type importRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Domain      string     `json:"domain"`
	Difficulty  int        `json:"difficulty"`
	Steps       []string   `json:"steps"`
	Content     string     `json:"content"`
	Tests       []TestCase `json:"tests"`
}

// ParseFile validates raw JSON against the exercise file schema and returns
// the decoded exercises, each with fresh scheduling state stamped at now.
func ParseFile(raw []byte, now time.Time) ([]*Exercise, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compiledFileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile exercise schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	var file importFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}

	exercises := make([]*Exercise, 0, len(file.Exercises))
	for _, rec := range file.Exercises {
		ex := New(rec.ID, rec.Title, rec.Domain, rec.Difficulty, now)
		ex.Description = rec.Description
		ex.Steps = rec.Steps
		ex.Content = rec.Content
		ex.Tests = rec.Tests
		if err := ex.Validate(); err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}
