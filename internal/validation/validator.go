// Package validation checks schema documents and graph snapshots before
// they enter the render path. It runs a two-stage pipeline per document:
// structural (JSON Schema Draft 2020-12) then semantic (closed kind set,
// container and model invariants), plus standalone graph analysis.
package validation

import (
	"encoding/json"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// SchemaValidator orchestrates the document validation pipeline.
// Structural errors short-circuit: the semantic stage is skipped.
type SchemaValidator struct {
	documents *DocumentValidator
}

// NewSchemaValidator creates a SchemaValidator with the structural schema
// pre-compiled.
func NewSchemaValidator() (*SchemaValidator, error) {
	dv, err := NewDocumentValidator()
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{documents: dv}, nil
}

// Validate runs the full pipeline on a raw collection-schema document and
// returns an aggregated result.
func (sv *SchemaValidator) Validate(raw []byte) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if err := sv.documents.ValidateDocument(raw); err != nil {
		appendError(result, err)
		return result
	}

	var cs schema.CollectionSchema
	if err := json.Unmarshal(raw, &cs); err != nil {
		result.AddError("/", schema.ErrCodeValidation, "schema document does not decode: "+err.Error())
		return result
	}
	if err := cs.Validate(); err != nil {
		appendError(result, err)
	}

	return result
}

// ValidateCollectionSchema runs the pipeline and collapses the result into
// an error. The schema fetch client calls this before caching a document.
func (sv *SchemaValidator) ValidateCollectionSchema(raw []byte) error {
	return sv.Validate(raw).ToError()
}

// ValidateRecord delegates to the underlying DocumentValidator.
func (sv *SchemaValidator) ValidateRecord(record map[string]any, recordSchema []byte) error {
	return sv.documents.ValidateRecord(record, recordSchema)
}

// appendError unpacks a ConsoleError into per-violation issues.
func appendError(result *schema.ValidationResult, err error) {
	cerr, ok := err.(*schema.ConsoleError)
	if !ok {
		result.AddError("/", schema.ErrCodeValidation, err.Error())
		return
	}

	if cerr.Details != nil {
		if violations, ok := cerr.Details["violations"].([]string); ok {
			for _, v := range violations {
				result.AddError("/", cerr.Code, v)
			}
			return
		}
	}
	path := cerr.Field
	if path == "" {
		path = "/"
	}
	result.AddError(path, cerr.Code, cerr.Message)
}
