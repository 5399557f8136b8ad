package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fresque-dev/fresque/pkg/schema"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestValidateValue_NumericBounds(t *testing.T) {
	f := &schema.FieldSchema{Source: "progress", Kind: schema.KindInt,
		Validations: &schema.Validations{Ge: floatPtr(0), Le: floatPtr(100)}}

	assert.Empty(t, ValidateValue(f, float64(50)))
	assert.Equal(t, "-1 should be ≥ to 0", ValidateValue(f, float64(-1)))
	assert.Equal(t, "101 should be ≤ to 100", ValidateValue(f, float64(101)))

	// Boundary values pass for inclusive bounds.
	assert.Empty(t, ValidateValue(f, float64(0)))
	assert.Empty(t, ValidateValue(f, float64(100)))
}

func TestValidateValue_StrictBounds(t *testing.T) {
	f := &schema.FieldSchema{Source: "rate", Kind: schema.KindFloat,
		Validations: &schema.Validations{Gt: floatPtr(0), Lt: floatPtr(1)}}

	assert.Empty(t, ValidateValue(f, 0.5))
	assert.Equal(t, "0 should be > to 0", ValidateValue(f, float64(0)))
	assert.Equal(t, "1 should be < to 1", ValidateValue(f, float64(1)))
}

func TestValidateValue_StringLength(t *testing.T) {
	f := &schema.FieldSchema{Source: "code", Kind: schema.KindText,
		Validations: &schema.Validations{MinLength: intPtr(3), MaxLength: intPtr(5)}}

	assert.Empty(t, ValidateValue(f, "abcd"))
	assert.Equal(t, "'ab' length should be ≥ to 3", ValidateValue(f, "ab"))
	assert.Equal(t, "'abcdef' length should be ≤ to 5", ValidateValue(f, "abcdef"))
}

func TestValidateValue_MessagesConcatenated(t *testing.T) {
	// Conflicting bounds surface every violation, joined with a comma.
	f := &schema.FieldSchema{Source: "x", Kind: schema.KindInt,
		Validations: &schema.Validations{Ge: floatPtr(10), Le: floatPtr(5)}}

	assert.Equal(t, "7 should be ≥ to 10, 7 should be ≤ to 5", ValidateValue(f, float64(7)))
}

func TestValidateValue_NoValidations(t *testing.T) {
	f := &schema.FieldSchema{Source: "x", Kind: schema.KindText}
	assert.Empty(t, ValidateValue(f, "anything"))
}

func TestValidateValue_NonNumericSkipsNumericBounds(t *testing.T) {
	f := &schema.FieldSchema{Source: "x", Kind: schema.KindInt,
		Validations: &schema.Validations{Ge: floatPtr(0)}}
	assert.Empty(t, ValidateValue(f, "not a number"))
}
