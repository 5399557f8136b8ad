package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fresque-dev/fresque/internal/conditions"
	"github.com/fresque-dev/fresque/internal/paths"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// SecretMask replaces secret values in display trees.
const SecretMask = "••••••••"

// SchemaSource resolves the collection schema of a (model, mode) pair. Model
// fields use it to fetch the sub-schema named by a record's discriminator.
type SchemaSource interface {
	CollectionSchema(ctx context.Context, model string, mode schema.Mode) (*schema.CollectionSchema, error)
}

// Renderer interprets field schemas against record data. It is a pure
// function over its inputs; all state lives in the caller's record and the
// schema source's cache. Safe for concurrent use.
type Renderer struct {
	conditions *conditions.Evaluator
	schemas    SchemaSource
	logger     *slog.Logger
	dotChecker DotChecker
}

// NewRenderer builds a renderer. schemas may be nil when no model fields are
// in play; rendering a model field without a source is a configuration error.
func NewRenderer(ev *conditions.Evaluator, schemas SchemaSource, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{conditions: ev, schemas: schemas, logger: logger}
}

// RenderDisplay interprets fields against record for read-only presentation
// in the given schema mode. Fields whose condition fails or whose optional
// value is absent contribute zero nodes.
func (r *Renderer) RenderDisplay(ctx context.Context, fields []schema.FieldSchema, record map[string]any, mode schema.Mode) ([]DisplayNode, error) {
	var nodes []DisplayNode
	for i := range fields {
		part, err := r.renderDisplayField(ctx, &fields[i], record, mode)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, part...)
	}
	return nodes, nil
}

func (r *Renderer) renderDisplayField(ctx context.Context, f *schema.FieldSchema, record map[string]any, mode schema.Mode) ([]DisplayNode, error) {
	if !f.Kind.Known() {
		return nil, schema.NewErrorf(schema.ErrCodeConfiguration,
			"unknown field kind %q", f.Kind).WithField(f.Source)
	}

	if f.Condition != nil {
		ok, err := r.conditions.Evaluate(ctx, f.Condition, record)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	// An optional non-bool field renders only when its path resolves to a
	// defined, non-null value. Bool keeps rendering so false stays visible.
	if f.Optional && f.Kind != schema.KindBool && f.Source != "" {
		value, defined := paths.Get(record, f.Source)
		if !defined || value == nil {
			return nil, nil
		}
	}

	// A render template overrides the value lookup entirely.
	if f.Render != "" {
		text, err := Interpolate(f.Render, record)
		if err != nil {
			return nil, err
		}
		chip, _ := f.RenderOpts["chip"].(bool)
		return []DisplayNode{ScalarDisplay{
			Kind:  schema.KindText,
			Label: f.EffectiveLabel(),
			Value: text,
			Chip:  chip,
		}}, nil
	}

	switch {
	case f.Kind == schema.KindModel:
		return r.renderModelDisplay(ctx, f, record, mode)
	case f.Kind.Container():
		return r.renderContainerDisplay(ctx, f, record, mode)
	case f.Kind.Visualization():
		value, _ := paths.Get(record, f.Source)
		return []DisplayNode{VisualizationDisplay{
			Kind:    f.Kind,
			Label:   f.EffectiveLabel(),
			Data:    value,
			Options: f.Options,
		}}, nil
	}

	// Multiple references stay one node. The host resolves the whole id set
	// against the referenced collection in a single request.
	if f.Multiple && f.Kind == schema.KindReference {
		return r.renderReferenceListDisplay(f, record), nil
	}

	// List mode leaves multi-valued fields alone so row cells stay compact.
	if f.Multiple && mode != schema.ModeList {
		return r.renderMultipleDisplay(f, record)
	}

	value, _ := paths.Get(record, f.Source)
	return []DisplayNode{r.leafDisplay(f, value, f.EffectiveLabel())}, nil
}

// renderReferenceListDisplay builds the single node of a multi-valued
// reference field. Absent or malformed values render with an empty id set.
func (r *Renderer) renderReferenceListDisplay(f *schema.FieldSchema, record map[string]any) []DisplayNode {
	value, _ := paths.Get(record, f.Source)
	ids, _ := value.([]any)
	idField, _ := f.RenderOpts["optionValue"].(string)
	chip, _ := f.RenderOpts["chip"].(bool)
	return []DisplayNode{ReferenceListDisplay{
		Label:    f.EffectiveLabel(),
		Resource: f.Reference,
		IDs:      ids,
		IDField:  idField,
		Chip:     chip,
	}}
}

// renderMultipleDisplay collapses short lists: a missing value renders
// nothing, fewer than two items render a plain scalar, two or more render
// unlabeled per-index items.
func (r *Renderer) renderMultipleDisplay(f *schema.FieldSchema, record map[string]any) ([]DisplayNode, error) {
	value, defined := paths.Get(record, f.Source)
	if !defined || value == nil {
		return nil, nil
	}

	items, ok := value.([]any)
	if !ok {
		return []DisplayNode{r.leafDisplay(f, value, f.EffectiveLabel())}, nil
	}

	if len(items) < 2 {
		var single any
		if len(items) == 1 {
			single = items[0]
		}
		return []DisplayNode{r.leafDisplay(f, single, f.EffectiveLabel())}, nil
	}

	nodes := make([]DisplayNode, 0, len(items))
	for _, item := range items {
		nodes = append(nodes, r.leafDisplay(f, item, ""))
	}
	return []DisplayNode{ListDisplay{Label: f.EffectiveLabel(), Items: nodes}}, nil
}

// leafDisplay builds the display node of one scalar value.
func (r *Renderer) leafDisplay(f *schema.FieldSchema, value any, label string) DisplayNode {
	chip, _ := f.RenderOpts["chip"].(bool)

	if f.Kind == schema.KindReference {
		idField, _ := f.RenderOpts["optionValue"].(string)
		return ReferenceDisplay{
			Label:    label,
			Resource: f.Reference,
			ID:       value,
			IDField:  idField,
			Chip:     chip,
		}
	}

	if f.Kind == schema.KindSecret && value != nil {
		value = SecretMask
	}

	if f.Kind == schema.KindSelect {
		value = choiceName(f.Choices, value)
	}

	return ScalarDisplay{
		Kind:    f.Kind,
		Label:   label,
		Value:   value,
		Chip:    chip,
		Options: f.Options,
	}
}

// choiceName maps a stored select value onto its display name. Unknown
// values pass through unchanged.
func choiceName(choices []schema.Choice, value any) any {
	for _, c := range choices {
		if fmt.Sprintf("%v", c.ID) == fmt.Sprintf("%v", value) {
			return c.Name
		}
	}
	return value
}

// renderContainerDisplay handles group and grid kinds. A multiple group
// iterates its bound list, producing tabs when the schema names a tab field.
func (r *Renderer) renderContainerDisplay(ctx context.Context, f *schema.FieldSchema, record map[string]any, mode schema.Mode) ([]DisplayNode, error) {
	if !f.Multiple {
		children, err := r.RenderDisplay(ctx, f.Fields, record, mode)
		if err != nil {
			return nil, err
		}
		return []DisplayNode{GroupDisplay{Label: f.EffectiveLabel(), Children: children}}, nil
	}

	value, defined := paths.Get(record, f.Source)
	if !defined || value == nil {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeRender,
			"multiple group expects a list, got %T", value).WithField(f.Source)
	}

	if f.TabField != "" {
		tabs := make([]DisplayTab, 0, len(items))
		for i, item := range items {
			scope, _ := item.(map[string]any)
			children, err := r.RenderDisplay(ctx, f.Fields, scope, mode)
			if err != nil {
				return nil, err
			}
			tabs = append(tabs, DisplayTab{Title: tabTitle(scope, f.TabField, i), Children: children})
		}
		return []DisplayNode{TabsDisplay{Label: f.EffectiveLabel(), Tabs: tabs}}, nil
	}

	groups := make([]DisplayNode, 0, len(items))
	for _, item := range items {
		scope, _ := item.(map[string]any)
		children, err := r.RenderDisplay(ctx, f.Fields, scope, mode)
		if err != nil {
			return nil, err
		}
		groups = append(groups, GroupDisplay{Children: children})
	}
	return []DisplayNode{ListDisplay{Label: f.EffectiveLabel(), Items: groups}}, nil
}

func tabTitle(scope map[string]any, tabField string, index int) string {
	if v, ok := paths.Get(scope, tabField); ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("#%d", index+1)
}

// renderModelDisplay resolves the sub-schema named by each scope's
// discriminator and renders its fields against the sub-record. A multiple
// model field renders one row per list element.
func (r *Renderer) renderModelDisplay(ctx context.Context, f *schema.FieldSchema, record map[string]any, mode schema.Mode) ([]DisplayNode, error) {
	if f.Multiple {
		value, defined := paths.Get(record, f.Source)
		if !defined || value == nil {
			return nil, nil
		}
		items, ok := value.([]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeRender,
				"multiple model field expects a list, got %T", value).WithField(f.Source)
		}
		rows := make([]DisplayNode, 0, len(items))
		for _, item := range items {
			scope, ok := item.(map[string]any)
			if !ok {
				return nil, schema.NewErrorf(schema.ErrCodeRender,
					"model field expects an object, got %T", item).WithField(f.Source)
			}
			row, err := r.renderModelScope(ctx, f, scope, mode, "")
			if err != nil {
				return nil, err
			}
			rows = append(rows, row...)
		}
		return []DisplayNode{ListDisplay{Label: f.EffectiveLabel(), Items: rows}}, nil
	}

	scope := record
	if f.Source != "" {
		value, defined := paths.Get(record, f.Source)
		if !defined || value == nil {
			return nil, nil
		}
		sub, ok := value.(map[string]any)
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeRender,
				"model field expects an object, got %T", value).WithField(f.Source)
		}
		scope = sub
	}
	return r.renderModelScope(ctx, f, scope, mode, f.EffectiveLabel())
}

// renderModelScope renders one discriminated sub-record. A scope without a
// discriminator contributes nothing.
func (r *Renderer) renderModelScope(ctx context.Context, f *schema.FieldSchema, scope map[string]any, mode schema.Mode, label string) ([]DisplayNode, error) {
	model, _ := paths.Get(scope, schema.MetaModelPath)
	name, _ := model.(string)
	if name == "" {
		return nil, nil
	}

	if r.schemas == nil {
		return nil, schema.NewError(schema.ErrCodeConfiguration,
			"model field requires a schema source").WithField(f.Source)
	}

	sub, err := r.schemas.CollectionSchema(ctx, name, mode)
	if err != nil {
		return nil, err
	}

	children, err := r.RenderDisplay(ctx, sub.Fields, scope, mode)
	if err != nil {
		return nil, err
	}
	return []DisplayNode{GroupDisplay{Label: label, Children: children}}, nil
}
