package schema

import (
	"encoding/json"
	"sort"
	"strings"
)

// Comparator tags one leaf comparison of a condition expression.
type Comparator string

const (
	CompEq      Comparator = "$eq"
	CompGt      Comparator = "$gt"
	CompGte     Comparator = "$gte"
	CompLt      Comparator = "$lt"
	CompLte     Comparator = "$lte"
	CompNe      Comparator = "$ne"
	CompIn      Comparator = "$in"
	CompNin     Comparator = "$nin"
	CompExists  Comparator = "$exists"
	CompInclude Comparator = "$include"
	CompExclude Comparator = "$exclude"

	// Engine comparators delegate the whole predicate to an expression
	// engine instead of a field comparison.
	CompExpr Comparator = "$expr"
	CompCEL  Comparator = "$cel"
	CompJQ   Comparator = "$jq"
)

var knownComparators = map[Comparator]struct{}{
	CompEq: {}, CompGt: {}, CompGte: {}, CompLt: {}, CompLte: {}, CompNe: {},
	CompIn: {}, CompNin: {}, CompExists: {}, CompInclude: {}, CompExclude: {},
	CompExpr: {}, CompCEL: {}, CompJQ: {},
}

// Known reports whether c is a recognized comparator.
func (c Comparator) Known() bool {
	_, ok := knownComparators[c]
	return ok
}

// Engine reports whether c delegates to an expression engine.
func (c Comparator) Engine() bool {
	return c == CompExpr || c == CompCEL || c == CompJQ
}

// Comparison is one leaf predicate: a field path compared to a literal, or
// (for engine comparators) a raw expression with an empty field.
type Comparison struct {
	Field string
	Op    Comparator
	Value any
}

// Condition is a declarative boolean expression gating field visibility.
// Exactly one of And, Or, or Leaves is populated. A leaf set with several
// comparisons requires all of them at the top level; nested under $or it
// requires any.
type Condition struct {
	And    []*Condition
	Or     []*Condition
	Leaves []Comparison
}

// UnmarshalJSON decodes the wire form: {"$and": [...]}, {"$or": [...]}, or a
// flat object mapping field paths to comparison specs. A bare literal spec
// means equality; a single-key object whose key is a comparator tag selects
// that comparator.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if sub, ok := raw["$and"]; ok {
		return json.Unmarshal(sub, &c.And)
	}
	if sub, ok := raw["$or"]; ok {
		return json.Unmarshal(sub, &c.Or)
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var val any
		if err := json.Unmarshal(raw[key], &val); err != nil {
			return err
		}
		if strings.HasPrefix(key, "$") {
			// Engine leaf: the key is the comparator, the value the expression.
			c.Leaves = append(c.Leaves, Comparison{Op: Comparator(key), Value: val})
			continue
		}
		c.Leaves = append(c.Leaves, parseComparison(key, val))
	}
	return nil
}

// parseComparison normalizes one field spec into a Comparison.
func parseComparison(field string, spec any) Comparison {
	if m, ok := spec.(map[string]any); ok && len(m) == 1 {
		for key, val := range m {
			if strings.HasPrefix(key, "$") {
				return Comparison{Field: field, Op: Comparator(key), Value: val}
			}
		}
	}
	return Comparison{Field: field, Op: CompEq, Value: spec}
}

// MarshalJSON emits the wire form accepted by UnmarshalJSON.
func (c Condition) MarshalJSON() ([]byte, error) {
	switch {
	case len(c.And) > 0:
		return json.Marshal(map[string]any{"$and": c.And})
	case len(c.Or) > 0:
		return json.Marshal(map[string]any{"$or": c.Or})
	}

	m := make(map[string]any, len(c.Leaves))
	for _, leaf := range c.Leaves {
		if leaf.Field == "" {
			m[string(leaf.Op)] = leaf.Value
			continue
		}
		if leaf.Op == CompEq {
			m[leaf.Field] = leaf.Value
		} else {
			m[leaf.Field] = map[string]any{string(leaf.Op): leaf.Value}
		}
	}
	return json.Marshal(m)
}
