package conditions

import "context"

// Engine evaluates a raw expression predicate against record data.
// Three implementations: CEL, GoJQ, and Expr, selected by the $cel, $jq,
// and $expr condition leaves.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
