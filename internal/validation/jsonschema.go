package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// collectionSchemaJSON is the JSON Schema for collection-schema documents.
// Embedded as a constant to avoid filesystem dependencies.
const collectionSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://fresque.dev/schemas/collection.json",
  "type": "object",
  "required": ["name", "fields"],
  "properties": {
    "name": {
      "type": "string",
      "minLength": 1
    },
    "layout": {
      "type": "string",
      "enum": ["simple", "tabbed"]
    },
    "isAbstract": { "type": "boolean" },
    "subModels": {
      "type": "array",
      "items": { "type": "string" }
    },
    "fields": {
      "type": "array",
      "items": { "$ref": "#/$defs/field" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "field": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "source": { "type": "string" },
        "type": {
          "type": "string",
          "enum": [
            "text", "url", "email", "secretstr", "bool", "int", "float",
            "date", "time", "datetime", "select", "reference", "model",
            "group", "grid", "ag_chart", "graphviz_dot", "sankey_diagram",
            "chord_diagram"
          ]
        },
        "multiple": { "type": "boolean" },
        "optional": { "type": "boolean" },
        "label": {
          "anyOf": [
            { "type": "string" },
            { "const": false }
          ]
        },
        "condition": { "type": "object" },
        "fields": {
          "type": "array",
          "items": { "$ref": "#/$defs/field" }
        },
        "model": { "type": "string" },
        "reference": { "type": "string" },
        "tabField": { "type": "string" },
        "choices": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
              "id": {},
              "name": { "type": "string" }
            },
            "additionalProperties": false
          }
        },
        "validations": {
          "type": "object",
          "properties": {
            "gt": { "type": "number" },
            "ge": { "type": "number" },
            "lt": { "type": "number" },
            "le": { "type": "number" },
            "minLength": { "type": "integer", "minimum": 0 },
            "maxLength": { "type": "integer", "minimum": 0 }
          },
          "additionalProperties": false
        },
        "number": {
          "type": "object",
          "properties": {
            "step": { "type": "number" },
            "min": { "type": "number" },
            "max": { "type": "number" }
          },
          "additionalProperties": false
        },
        "options": { "type": "object" },
        "filter": { "type": "object" },
        "opts": {
          "type": "array",
          "items": { "type": "string" }
        },
        "grid": {
          "type": "object",
          "properties": {
            "xs": { "type": "integer" },
            "sm": { "type": "integer" }
          },
          "additionalProperties": false
        },
        "defaultValue": {},
        "helperText": { "type": "string" },
        "render": { "type": "string" }
      },
      "patternProperties": {
        "^render_": {}
      },
      "additionalProperties": false
    }
  }
}`

// DocumentValidator checks raw schema and record documents against JSON
// Schema Draft 2020-12. Safe for concurrent use.
type DocumentValidator struct {
	collectionSchema *jsonschema.Schema

	// mu guards the cache for dynamic record-schema compilation.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewDocumentValidator pre-compiles the collection-schema document schema.
func NewDocumentValidator() (*DocumentValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(collectionSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal collection schema: %w", err)
	}
	if err := c.AddResource("https://fresque.dev/schemas/collection.json", doc); err != nil {
		return nil, fmt.Errorf("add collection schema resource: %w", err)
	}

	compiled, err := c.Compile("https://fresque.dev/schemas/collection.json")
	if err != nil {
		return nil, fmt.Errorf("compile collection schema: %w", err)
	}

	return &DocumentValidator{
		collectionSchema: compiled,
		cache:            make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateDocument checks a raw collection-schema document against the
// structural JSON Schema.
func (v *DocumentValidator) ValidateDocument(raw []byte) error {
	if len(raw) == 0 {
		return schema.NewError(schema.ErrCodeValidation, "schema document is empty")
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "schema document is not valid JSON").WithCause(err)
	}

	if err := v.collectionSchema.Validate(doc); err != nil {
		return toConsoleError(err)
	}
	return nil
}

// ValidateRecord validates record data against a JSON Schema provided as raw
// bytes. The schema is compiled and cached for subsequent calls with the
// same bytes.
func (v *DocumentValidator) ValidateRecord(record map[string]any, recordSchema []byte) error {
	if record == nil {
		return schema.NewError(schema.ErrCodeValidation, "record is nil")
	}
	if len(recordSchema) == 0 {
		return nil // no schema means no validation needed
	}

	compiled, err := v.getOrCompile(recordSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid record schema").WithCause(err)
	}

	// Round-trip so numbers become json.Number, which the library requires.
	doc, err := toJSONValue(record)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize record").WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toConsoleError(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *DocumentValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL to avoid compiler collisions.
	url := fmt.Sprintf("fresque://record-schema/%d", len(v.cache))

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// toJSONValue round-trips a Go value through JSON encoding so that numeric
// values become json.Number.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toConsoleError converts a jsonschema.ValidationError into a ConsoleError
// with one message per leaf violation.
func toConsoleError(err error) *schema.ConsoleError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
