package render

import (
	"fmt"
	"strings"

	"github.com/fresque-dev/fresque/internal/paths"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// Interpolate resolves ${path} tokens in a render template against record
// data. Unresolved paths render as empty strings and nested tokens are
// rejected.
func Interpolate(template string, record map[string]any) (string, error) {
	var result strings.Builder
	result.Grow(len(template))

	i := 0
	for i < len(template) {
		idx := strings.Index(template[i:], "${")
		if idx == -1 {
			result.WriteString(template[i:])
			break
		}

		result.WriteString(template[i : i+idx])
		start := i + idx + 2

		end := strings.Index(template[start:], "}")
		if end == -1 {
			return "", schema.NewError(schema.ErrCodeConfiguration, "unclosed ${ token in render template")
		}
		end += start

		path := strings.TrimSpace(template[start:end])
		if path == "" {
			return "", schema.NewError(schema.ErrCodeConfiguration, "empty ${} token in render template")
		}
		if strings.Contains(path, "${") {
			return "", schema.NewError(schema.ErrCodeConfiguration, "nested ${ token in render template")
		}

		if value, ok := paths.Get(record, path); ok && value != nil {
			result.WriteString(stringify(value))
		}

		i = end + 1
	}

	return result.String(), nil
}

// stringify renders a resolved value the way the wire format prints it.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
