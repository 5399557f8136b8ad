package conditions

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/fresque-dev/fresque/internal/paths"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// Evaluator resolves declarative visibility conditions against record data.
//
// Every branch of $and and $or is evaluated before the result is combined.
// Misconfigured leaves are surfaced even when a sibling already decided the
// outcome, so no short-circuiting.
type Evaluator struct {
	engines map[schema.Comparator]Engine
	logger  *slog.Logger

	// Strict makes unknown comparators an error instead of evaluating false.
	Strict bool
}

// NewEvaluator builds an evaluator with the three expression engines wired to
// their comparator tags. A nil logger falls back to slog.Default().
func NewEvaluator(logger *slog.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}

	return &Evaluator{
		engines: map[schema.Comparator]Engine{
			schema.CompExpr: NewExprEngine(),
			schema.CompCEL:  celEngine,
			schema.CompJQ:   NewGoJQEngine(),
		},
		logger: logger,
	}, nil
}

// Evaluate resolves cond against record. A nil condition is always true.
func (ev *Evaluator) Evaluate(ctx context.Context, cond *schema.Condition, record map[string]any) (bool, error) {
	if cond == nil {
		return true, nil
	}

	switch {
	case len(cond.And) > 0:
		result := true
		var firstErr error
		for _, sub := range cond.And {
			ok, err := ev.Evaluate(ctx, sub, record)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			result = result && ok
		}
		if firstErr != nil {
			return false, firstErr
		}
		return result, nil

	case len(cond.Or) > 0:
		result := false
		var firstErr error
		for _, sub := range cond.Or {
			ok, err := ev.Evaluate(ctx, sub, record)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			result = result || ok
		}
		if firstErr != nil {
			return false, firstErr
		}
		return result, nil
	}

	result := true
	var firstErr error
	for _, leaf := range cond.Leaves {
		ok, err := ev.evaluateLeaf(ctx, leaf, record)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		result = result && ok
	}
	if firstErr != nil {
		return false, firstErr
	}
	return result, nil
}

func (ev *Evaluator) evaluateLeaf(ctx context.Context, leaf schema.Comparison, record map[string]any) (bool, error) {
	if leaf.Op.Engine() {
		return ev.evaluateEngine(ctx, leaf, record)
	}

	if !leaf.Op.Known() {
		if ev.Strict {
			return false, schema.NewErrorf(schema.ErrCodeConfiguration,
				"unknown comparator %q", leaf.Op).WithField(leaf.Field)
		}
		ev.logger.WarnContext(ctx, "unknown comparator, condition fails",
			slog.String("comparator", string(leaf.Op)),
			slog.String("field", leaf.Field))
		return false, nil
	}

	actual, defined := paths.Get(record, leaf.Field)

	switch leaf.Op {
	case schema.CompEq:
		return looseEqual(actual, leaf.Value), nil
	case schema.CompNe:
		return !looseEqual(actual, leaf.Value), nil
	case schema.CompGt:
		return numericCompare(actual, leaf.Value, func(a, b float64) bool { return a > b }), nil
	case schema.CompGte:
		return numericCompare(actual, leaf.Value, func(a, b float64) bool { return a >= b }), nil
	case schema.CompLt:
		return numericCompare(actual, leaf.Value, func(a, b float64) bool { return a < b }), nil
	case schema.CompLte:
		// Historical wire behavior: $lte compares strictly, same as $lt.
		return numericCompare(actual, leaf.Value, func(a, b float64) bool { return a < b }), nil
	case schema.CompIn:
		return listContains(leaf.Value, actual), nil
	case schema.CompNin:
		return !listContains(leaf.Value, actual), nil
	case schema.CompExists:
		if truthy(leaf.Value) {
			return defined, nil
		}
		return !defined, nil
	case schema.CompInclude:
		// A missing or null field behaves as an empty list.
		return listContains(actual, leaf.Value), nil
	case schema.CompExclude:
		return !listContains(actual, leaf.Value), nil
	}

	return false, nil
}

func (ev *Evaluator) evaluateEngine(ctx context.Context, leaf schema.Comparison, record map[string]any) (bool, error) {
	engine, ok := ev.engines[leaf.Op]
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeConfiguration,
			"no engine registered for %q", leaf.Op)
	}

	expression, ok := leaf.Value.(string)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeConfiguration,
			"%s expression must be a string, got %T", engine.Name(), leaf.Value)
	}

	out, err := engine.Evaluate(ctx, expression, record)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

// looseEqual compares JSON-decoded values, treating all numeric types as
// float64 the way the wire format does.
func looseEqual(a, b any) bool {
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// listContains reports whether needle occurs in list. A non-list (including
// nil) behaves as an empty list.
func listContains(list, needle any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if looseEqual(item, needle) {
			return true
		}
	}
	return false
}

func numericCompare(a, b any, cmp func(a, b float64) bool) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// truthy applies JSON truthiness: nil, false, 0, "" and empty containers are
// false, everything else true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}
