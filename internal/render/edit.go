package render

import (
	"context"
	"fmt"

	"github.com/fresque-dev/fresque/internal/paths"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// DotChecker validates DOT source for the graphviz_dot live preview.
type DotChecker interface {
	CheckDOT(src string) error
}

// SetDotChecker wires the graphviz preview guard. Without one, previews
// render unchecked.
func (r *Renderer) SetDotChecker(dc DotChecker) {
	r.dotChecker = dc
}

// RenderEdit interprets fields against the form state, producing a tree of
// path-bound controls. Conditions are evaluated against the current draft,
// so a write that changes a guarded field's dependency re-renders the
// affected controls.
func (r *Renderer) RenderEdit(ctx context.Context, fields []schema.FieldSchema, state *FormState, mode schema.Mode) ([]FormNode, error) {
	draft := state.Snapshot()
	return r.renderEditFields(ctx, fields, state, draft, "", mode)
}

// renderEditFields renders one schema level. prefix scopes child paths when
// rendering inside a list item.
func (r *Renderer) renderEditFields(ctx context.Context, fields []schema.FieldSchema, state *FormState, draft map[string]any, prefix string, mode schema.Mode) ([]FormNode, error) {
	var nodes []FormNode
	for i := range fields {
		part, err := r.renderEditField(ctx, &fields[i], state, draft, prefix, mode)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, part...)
	}
	return nodes, nil
}

func (r *Renderer) renderEditField(ctx context.Context, f *schema.FieldSchema, state *FormState, draft map[string]any, prefix string, mode schema.Mode) ([]FormNode, error) {
	if !f.Kind.Known() {
		return nil, schema.NewErrorf(schema.ErrCodeConfiguration,
			"unknown field kind %q", f.Kind).WithField(f.Source)
	}

	scope := draft
	if prefix != "" {
		if sub, ok := paths.Get(draft, prefix); ok {
			if m, isMap := sub.(map[string]any); isMap {
				scope = m
			}
		}
	}

	if f.Condition != nil {
		ok, err := r.conditions.Evaluate(ctx, f.Condition, scope)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	path := joinPath(prefix, f.Source)

	// An optional non-bool field renders behind a toggle, containers and
	// model fields included. Disabling the toggle unsets the path, so
	// absence round-trips instead of null.
	if f.Optional && f.Kind != schema.KindBool && f.Source != "" {
		value, defined := paths.Get(draft, path)
		enabled := defined && value != nil
		var child FormNode
		if enabled {
			inner, err := r.renderEnabledEdit(ctx, f, state, draft, prefix, path, mode)
			if err != nil {
				return nil, err
			}
			if len(inner) == 1 {
				child = inner[0]
			} else {
				child = FormGroup{Children: inner}
			}
		}
		return []FormNode{OptionalToggle{
			Path:    path,
			Label:   f.EffectiveLabel(),
			Enabled: enabled,
			Child:   child,
		}}, nil
	}

	return r.renderEnabledEdit(ctx, f, state, draft, prefix, path, mode)
}

// renderEnabledEdit dispatches on kind once the optional gate has passed.
func (r *Renderer) renderEnabledEdit(ctx context.Context, f *schema.FieldSchema, state *FormState, draft map[string]any, prefix, path string, mode schema.Mode) ([]FormNode, error) {
	switch {
	case f.Kind == schema.KindModel:
		return r.renderModelEdit(ctx, f, state, draft, path, mode)
	case f.Kind.Container():
		return r.renderContainerEdit(ctx, f, state, draft, prefix, path, mode)
	}
	return r.renderEditLeaf(f, draft, path)
}

func (r *Renderer) renderEditLeaf(f *schema.FieldSchema, draft map[string]any, path string) ([]FormNode, error) {
	if f.Multiple {
		return r.renderMultipleEdit(f, draft, path)
	}

	value, _ := paths.Get(draft, path)
	nodes := []FormNode{r.control(f, path, value, f.EffectiveLabel())}

	if f.Kind == schema.KindGraphvizDot {
		nodes = append(nodes, r.dotPreview(path, value))
	}
	return nodes, nil
}

// renderMultipleEdit binds one control per list index with add/remove
// managed through the list path.
func (r *Renderer) renderMultipleEdit(f *schema.FieldSchema, draft map[string]any, path string) ([]FormNode, error) {
	value, _ := paths.Get(draft, path)
	items, _ := value.([]any)

	controls := make([]FormNode, 0, len(items))
	for i, item := range items {
		controls = append(controls, r.control(f, fmt.Sprintf("%s[%d]", path, i), item, ""))
	}
	return []FormNode{ListEdit{Path: path, Label: f.EffectiveLabel(), Items: controls}}, nil
}

func (r *Renderer) control(f *schema.FieldSchema, path string, value any, label string) Control {
	return Control{
		Kind:       f.Kind,
		Label:      label,
		Path:       path,
		Value:      value,
		Required:   requiredField(f),
		ReadOnly:   f.HasOpt(schema.OptReadOnly) || f.HasOpt(schema.OptDisabled),
		Multiline:  f.HasOpt(schema.OptMultiline),
		FullWidth:  f.HasOpt(schema.OptFullWidth),
		HelperText: f.HelperText,
		Default:    f.Default,
		Choices:    f.Choices,
		Number:     f.Number,
		Grid:       f.Grid,
		Error:      ValidateValue(f, value),
	}
}

func (r *Renderer) dotPreview(path string, value any) DotPreview {
	src, _ := value.(string)
	preview := DotPreview{Path: path, DOT: src}
	if r.dotChecker != nil && src != "" {
		if err := r.dotChecker.CheckDOT(src); err != nil {
			preview.Err = err.Error()
			preview.DOT = ""
		}
	}
	return preview
}

// renderContainerEdit handles group and grid kinds in edit mode. A plain
// group is presentational, so its children keep the caller's path prefix.
func (r *Renderer) renderContainerEdit(ctx context.Context, f *schema.FieldSchema, state *FormState, draft map[string]any, prefix, path string, mode schema.Mode) ([]FormNode, error) {
	if !f.Multiple {
		children, err := r.renderEditFields(ctx, f.Fields, state, draft, prefix, mode)
		if err != nil {
			return nil, err
		}
		return []FormNode{FormGroup{Label: f.EffectiveLabel(), Children: children}}, nil
	}

	value, _ := paths.Get(draft, path)
	items, _ := value.([]any)

	if f.TabField != "" {
		tabs := make([]FormTab, 0, len(items))
		for i, item := range items {
			scope, _ := item.(map[string]any)
			itemPrefix := fmt.Sprintf("%s[%d]", path, i)
			children, err := r.renderEditFields(ctx, f.Fields, state, draft, itemPrefix, mode)
			if err != nil {
				return nil, err
			}
			tabs = append(tabs, FormTab{Title: tabTitle(scope, f.TabField, i), Children: children})
		}
		return []FormNode{FormGroup{Label: f.EffectiveLabel(), Tabs: tabs}}, nil
	}

	groups := make([]FormNode, 0, len(items))
	for i := range items {
		itemPrefix := fmt.Sprintf("%s[%d]", path, i)
		children, err := r.renderEditFields(ctx, f.Fields, state, draft, itemPrefix, mode)
		if err != nil {
			return nil, err
		}
		groups = append(groups, FormGroup{Children: children})
	}
	return []FormNode{ListEdit{Path: path, Label: f.EffectiveLabel(), Items: groups}}, nil
}

// renderModelEdit builds the polymorphic selector. Switching models
// re-renders children from the new sub-schema; values written under the old
// model stay in the draft.
func (r *Renderer) renderModelEdit(ctx context.Context, f *schema.FieldSchema, state *FormState, draft map[string]any, path string, mode schema.Mode) ([]FormNode, error) {
	if r.schemas == nil {
		return nil, schema.NewError(schema.ErrCodeConfiguration,
			"model field requires a schema source").WithField(f.Source)
	}

	parent, err := r.schemas.CollectionSchema(ctx, f.Model, mode)
	if err != nil {
		return nil, err
	}

	discPath := joinPath(path, schema.MetaModelPath)
	selectedRaw, _ := paths.Get(draft, discPath)
	selected, _ := selectedRaw.(string)

	node := ModelSelect{
		Path:     discPath,
		Label:    f.EffectiveLabel(),
		Options:  parent.SubModels,
		Selected: selected,
	}

	if selected != "" {
		sub, err := r.schemas.CollectionSchema(ctx, selected, mode)
		if err != nil {
			return nil, err
		}
		children, err := r.renderEditFields(ctx, sub.Fields, state, draft, path, mode)
		if err != nil {
			return nil, err
		}
		node.Children = children
	}

	return []FormNode{node}, nil
}

func joinPath(prefix, source string) string {
	switch {
	case prefix == "":
		return source
	case source == "":
		return prefix
	}
	return prefix + "." + source
}
