package render

import (
	"fmt"
	"strings"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// ValidateValue checks value against the field's declarative bounds and
// returns the concatenated violation messages, or "" when the value passes.
// Wording mirrors the wire format's validators.
func ValidateValue(f *schema.FieldSchema, value any) string {
	v := f.Validations
	if v == nil {
		return ""
	}

	var msgs []string

	if num, ok := asNumber(value); ok {
		if v.Ge != nil && num < *v.Ge {
			msgs = append(msgs, fmt.Sprintf("%s should be ≥ to %s", stringify(num), stringify(*v.Ge)))
		}
		if v.Gt != nil && num <= *v.Gt {
			msgs = append(msgs, fmt.Sprintf("%s should be > to %s", stringify(num), stringify(*v.Gt)))
		}
		if v.Le != nil && num > *v.Le {
			msgs = append(msgs, fmt.Sprintf("%s should be ≤ to %s", stringify(num), stringify(*v.Le)))
		}
		if v.Lt != nil && num >= *v.Lt {
			msgs = append(msgs, fmt.Sprintf("%s should be < to %s", stringify(num), stringify(*v.Lt)))
		}
	}

	if str, ok := value.(string); ok {
		if v.MinLength != nil && len(str) < *v.MinLength {
			msgs = append(msgs, fmt.Sprintf("'%s' length should be ≥ to %d", str, *v.MinLength))
		}
		if v.MaxLength != nil && len(str) > *v.MaxLength {
			msgs = append(msgs, fmt.Sprintf("'%s' length should be ≤ to %d", str, *v.MaxLength))
		}
	}

	return strings.Join(msgs, ", ")
}

// requiredField reports whether the field must carry a value in edit mode.
// Text-like kinds are required unless optional or explicitly allowed empty
// through minLength 0.
func requiredField(f *schema.FieldSchema) bool {
	if f.Optional {
		return false
	}
	if f.Kind != schema.KindText && f.Kind != schema.KindSecret {
		return false
	}
	if f.Validations != nil && f.Validations.MinLength != nil && *f.Validations.MinLength == 0 {
		return false
	}
	return true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
