package render

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fresque-dev/fresque/pkg/schema"
)

func TestRenderEdit_ControlBindsPathAndValue(t *testing.T) {
	r := newTestRenderer(t, nil)
	state := NewFormState(map[string]any{"name": "tiles"})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{textField("name")}, state, schema.ModeEdit)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	ctl, ok := nodes[0].(Control)
	require.True(t, ok)
	assert.Equal(t, "name", ctl.Path)
	assert.Equal(t, "tiles", ctl.Value)
	assert.True(t, ctl.Required)
}

func TestRenderEdit_RequiredUnlessMinLengthZero(t *testing.T) {
	zero := 0
	relaxed := textField("desc")
	relaxed.Validations = &schema.Validations{MinLength: &zero}

	optional := textField("note")
	optional.Optional = true

	r := newTestRenderer(t, nil)
	state := NewFormState(map[string]any{"note": "x"})

	nodes, err := r.RenderEdit(context.Background(),
		[]schema.FieldSchema{textField("name"), relaxed, optional}, state, schema.ModeEdit)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.True(t, nodes[0].(Control).Required)
	assert.False(t, nodes[1].(Control).Required)
	toggle, ok := nodes[2].(OptionalToggle)
	require.True(t, ok)
	assert.False(t, toggle.Child.(Control).Required)
}

func TestRenderEdit_OptionalToggle(t *testing.T) {
	r := newTestRenderer(t, nil)
	f := schema.FieldSchema{Source: "limit", Kind: schema.KindInt, Optional: true}

	// Absent value renders a disabled toggle without a child.
	state := NewFormState(nil)
	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	toggle := nodes[0].(OptionalToggle)
	assert.False(t, toggle.Enabled)
	assert.Nil(t, toggle.Child)

	// Present value renders the bound control.
	state.Set("limit", float64(5))
	nodes, err = r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	toggle = nodes[0].(OptionalToggle)
	assert.True(t, toggle.Enabled)
	require.NotNil(t, toggle.Child)
	assert.Equal(t, float64(5), toggle.Child.(Control).Value)

	// Disabling the toggle unsets the path, not writes null.
	state.Unset("limit")
	_, defined := state.Get("limit")
	assert.False(t, defined)
}

func TestRenderEdit_ValidationMessageOnControl(t *testing.T) {
	ge := 0.0
	f := schema.FieldSchema{Source: "progress", Kind: schema.KindInt,
		Validations: &schema.Validations{Ge: &ge}}

	r := newTestRenderer(t, nil)
	state := NewFormState(map[string]any{"progress": float64(-1)})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	assert.Equal(t, "-1 should be ≥ to 0", nodes[0].(Control).Error)
}

func TestRenderEdit_MultipleScalarList(t *testing.T) {
	r := newTestRenderer(t, nil)
	f := textField("tags")
	f.Multiple = true
	state := NewFormState(map[string]any{"tags": []any{"a", "b"}})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	list, ok := nodes[0].(ListEdit)
	require.True(t, ok)
	assert.Equal(t, "tags", list.Path)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "tags[0]", list.Items[0].(Control).Path)
	assert.Equal(t, "tags[1]", list.Items[1].(Control).Path)
}

func TestRenderEdit_ConditionReactsToDraft(t *testing.T) {
	r := newTestRenderer(t, nil)
	guarded := textField("reason")
	guarded.Condition = mustCondition(t, `{"status":"error"}`)
	fields := []schema.FieldSchema{guarded}

	state := NewFormState(map[string]any{"status": "ok"})
	nodes, err := r.RenderEdit(context.Background(), fields, state, schema.ModeEdit)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	state.Set("status", "error")
	nodes, err = r.RenderEdit(context.Background(), fields, state, schema.ModeEdit)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}

func TestRenderEdit_ModelSwitchKeepsStaleValues(t *testing.T) {
	src := &fakeSchemas{schemas: map[string]*schema.CollectionSchema{
		"animals": {Name: "animals", IsAbstract: true, SubModels: []string{"Cat", "Dog"}},
		"Cat":     {Name: "Cat", Fields: []schema.FieldSchema{textField("meow_volume")}},
		"Dog":     {Name: "Dog", Fields: []schema.FieldSchema{textField("bark_pitch")}},
	}}
	r := newTestRenderer(t, src)

	f := schema.FieldSchema{Source: "animal", Kind: schema.KindModel, Model: "animals"}
	state := NewFormState(map[string]any{
		"animal": map[string]any{
			"_meta":       map[string]any{"model": "Cat"},
			"meow_volume": "loud",
		},
	})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	sel := nodes[0].(ModelSelect)
	assert.Equal(t, "Cat", sel.Selected)
	assert.Equal(t, []string{"Cat", "Dog"}, sel.Options)
	require.Len(t, sel.Children, 1)
	assert.Equal(t, "animal.meow_volume", sel.Children[0].(Control).Path)

	// Switching the discriminator re-renders from the Dog schema but leaves
	// the Cat values in the draft untouched.
	state.Set("animal._meta.model", "Dog")
	nodes, err = r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	sel = nodes[0].(ModelSelect)
	assert.Equal(t, "Dog", sel.Selected)
	require.Len(t, sel.Children, 1)
	assert.Equal(t, "animal.bark_pitch", sel.Children[0].(Control).Path)

	stale, defined := state.Get("animal.meow_volume")
	assert.True(t, defined)
	assert.Equal(t, "loud", stale)
}

type fakeDotChecker struct{ err error }

func (f fakeDotChecker) CheckDOT(string) error { return f.err }

func TestRenderEdit_DotPreview(t *testing.T) {
	r := newTestRenderer(t, nil)
	r.SetDotChecker(fakeDotChecker{})
	f := schema.FieldSchema{Source: "graph", Kind: schema.KindGraphvizDot, Optional: false}

	state := NewFormState(map[string]any{"graph": "digraph {}"})
	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	preview := nodes[1].(DotPreview)
	assert.Equal(t, "digraph {}", preview.DOT)
	assert.Empty(t, preview.Err)
}

func TestRenderEdit_DotPreviewMalformed(t *testing.T) {
	r := newTestRenderer(t, nil)
	r.SetDotChecker(fakeDotChecker{err: errors.New("syntax error near line 1")})
	f := schema.FieldSchema{Source: "graph", Kind: schema.KindGraphvizDot}

	state := NewFormState(map[string]any{"graph": "digraph {"})
	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	preview := nodes[1].(DotPreview)
	assert.Empty(t, preview.DOT)
	assert.Contains(t, preview.Err, "syntax error")
}

func TestRenderEdit_TabbedGroup(t *testing.T) {
	r := newTestRenderer(t, nil)
	group := schema.FieldSchema{
		Source:   "stages",
		Kind:     schema.KindGroup,
		Multiple: true,
		TabField: "name",
		Fields:   []schema.FieldSchema{textField("name")},
	}
	state := NewFormState(map[string]any{"stages": []any{
		map[string]any{"name": "build"},
		map[string]any{"name": "deploy"},
	}})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{group}, state, schema.ModeEdit)
	require.NoError(t, err)
	fg := nodes[0].(FormGroup)
	require.Len(t, fg.Tabs, 2)
	assert.Equal(t, "build", fg.Tabs[0].Title)
	assert.Equal(t, "stages[0].name", fg.Tabs[0].Children[0].(Control).Path)
	assert.Equal(t, "stages[1].name", fg.Tabs[1].Children[0].(Control).Path)
}

func TestRenderEdit_OptionalGroupToggle(t *testing.T) {
	r := newTestRenderer(t, nil)
	group := schema.FieldSchema{
		Source:   "retry",
		Kind:     schema.KindGroup,
		Label:    "Retry",
		Optional: true,
		Fields:   []schema.FieldSchema{textField("retry.policy")},
	}

	// Absent value renders a disabled toggle without a child.
	state := NewFormState(nil)
	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{group}, state, schema.ModeEdit)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	toggle, ok := nodes[0].(OptionalToggle)
	require.True(t, ok)
	assert.Equal(t, "retry", toggle.Path)
	assert.False(t, toggle.Enabled)
	assert.Nil(t, toggle.Child)

	// Present value puts the group behind an enabled toggle.
	state.Set("retry", map[string]any{"policy": "backoff"})
	nodes, err = r.RenderEdit(context.Background(), []schema.FieldSchema{group}, state, schema.ModeEdit)
	require.NoError(t, err)
	toggle = nodes[0].(OptionalToggle)
	assert.True(t, toggle.Enabled)
	fg, ok := toggle.Child.(FormGroup)
	require.True(t, ok)
	require.Len(t, fg.Children, 1)
	assert.Equal(t, "retry.policy", fg.Children[0].(Control).Path)
}

func TestRenderEdit_OptionalModelToggle(t *testing.T) {
	src := &fakeSchemas{schemas: map[string]*schema.CollectionSchema{
		"animals": {Name: "animals", IsAbstract: true, SubModels: []string{"Cat"}},
		"Cat":     {Name: "Cat", Fields: []schema.FieldSchema{textField("meow_volume")}},
	}}
	r := newTestRenderer(t, src)
	f := schema.FieldSchema{Source: "animal", Kind: schema.KindModel, Model: "animals", Optional: true}

	state := NewFormState(nil)
	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	toggle, ok := nodes[0].(OptionalToggle)
	require.True(t, ok)
	assert.False(t, toggle.Enabled)
	assert.Nil(t, toggle.Child)

	state.Set("animal", map[string]any{"_meta": map[string]any{"model": "Cat"}})
	nodes, err = r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	toggle = nodes[0].(OptionalToggle)
	assert.True(t, toggle.Enabled)
	sel, ok := toggle.Child.(ModelSelect)
	require.True(t, ok)
	assert.Equal(t, "Cat", sel.Selected)
	require.Len(t, sel.Children, 1)
	assert.Equal(t, "animal.meow_volume", sel.Children[0].(Control).Path)
}

func TestRenderEdit_ReadOnlyOpt(t *testing.T) {
	r := newTestRenderer(t, nil)
	f := textField("id")
	f.Opts = []string{schema.OptReadOnly}
	state := NewFormState(map[string]any{"id": "r-1"})

	nodes, err := r.RenderEdit(context.Background(), []schema.FieldSchema{f}, state, schema.ModeEdit)
	require.NoError(t, err)
	assert.True(t, nodes[0].(Control).ReadOnly)
}
