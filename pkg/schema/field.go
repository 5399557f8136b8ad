package schema

import (
	"encoding/json"
	"strings"
)

// Kind classifies a field by the value it binds and the widget it produces.
// The set is closed: rendering dispatches exhaustively over these values and
// anything else is a configuration error, never a silent no-render.
type Kind string

const (
	KindText     Kind = "text"
	KindURL      Kind = "url"
	KindEmail    Kind = "email"
	KindSecret   Kind = "secretstr"
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDate     Kind = "date"
	KindTime     Kind = "time"
	KindDateTime Kind = "datetime"
	KindSelect   Kind = "select"

	KindReference Kind = "reference"
	KindModel     Kind = "model"
	KindGroup     Kind = "group"
	KindGrid      Kind = "grid"

	KindAgChart     Kind = "ag_chart"
	KindGraphvizDot Kind = "graphviz_dot"
	KindSankey      Kind = "sankey_diagram"
	KindChord       Kind = "chord_diagram"
)

var knownKinds = map[Kind]struct{}{
	KindText: {}, KindURL: {}, KindEmail: {}, KindSecret: {}, KindBool: {},
	KindInt: {}, KindFloat: {}, KindDate: {}, KindTime: {}, KindDateTime: {},
	KindSelect: {}, KindReference: {}, KindModel: {}, KindGroup: {}, KindGrid: {},
	KindAgChart: {}, KindGraphvizDot: {}, KindSankey: {}, KindChord: {},
}

// Known reports whether k is part of the closed kind set.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// Visualization reports whether k renders an inline chart or graph from the
// resolved value rather than a plain widget.
func (k Kind) Visualization() bool {
	switch k {
	case KindAgChart, KindGraphvizDot, KindSankey, KindChord:
		return true
	}
	return false
}

// Container reports whether k nests child fields.
func (k Kind) Container() bool {
	return k == KindGroup || k == KindGrid
}

// Mode selects which schema variant a collection exposes.
type Mode string

const (
	ModeDefault Mode = "default"
	ModeList    Mode = "list"
	ModeShow    Mode = "show"
	ModeEdit    Mode = "edit"
	ModeCreate  Mode = "create"
)

// Layout is the top-level presentation hint of a collection schema.
type Layout string

const (
	LayoutSimple Layout = "simple"
	LayoutTabbed Layout = "tabbed"
)

// Field options recognized in FieldSchema.Opts.
const (
	OptFullWidth = "fullWidth"
	OptMultiline = "multiline"
	OptInline    = "inline"
	OptGrid      = "grid"
	OptReadOnly  = "readOnly"
	OptDisabled  = "disabled"
)

// Choice is one selectable value of a select field.
type Choice struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

// Validations holds the declarative bounds translated into edit-mode
// validators. Comparator names mirror the schema wire format.
type Validations struct {
	Gt        *float64 `json:"gt,omitempty"`
	Ge        *float64 `json:"ge,omitempty"`
	Lt        *float64 `json:"lt,omitempty"`
	Le        *float64 `json:"le,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

// NumberOpts are numeric input render hints.
type NumberOpts struct {
	Step *float64 `json:"step,omitempty"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// GridItem places a field inside a grid container.
type GridItem struct {
	XS int `json:"xs,omitempty"`
	SM int `json:"sm,omitempty"`
}

// FieldSchema is one node of a declarative field-schema document. Group and
// grid kinds nest further FieldSchemas; model kinds resolve their sub-schema
// at render time from the record's discriminator.
type FieldSchema struct {
	Source    string `json:"source,omitempty"`
	Kind      Kind   `json:"type"`
	Multiple  bool   `json:"multiple,omitempty"`
	Optional  bool   `json:"optional,omitempty"`
	HideLabel bool   `json:"-"` // wire form: label set to false
	Label     string `json:"-"`

	Condition *Condition `json:"condition,omitempty"`

	Fields    []FieldSchema `json:"fields,omitempty"`
	Model     string        `json:"model,omitempty"`
	Reference string        `json:"reference,omitempty"`
	TabField  string        `json:"tabField,omitempty"`

	Choices     []Choice       `json:"choices,omitempty"`
	Validations *Validations   `json:"validations,omitempty"`
	Number      *NumberOpts    `json:"number,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
	Filter      map[string]any `json:"filter,omitempty"`
	Opts        []string       `json:"opts,omitempty"`
	Grid        *GridItem      `json:"grid,omitempty"`

	Default    any    `json:"defaultValue,omitempty"`
	HelperText string `json:"helperText,omitempty"`
	Render     string `json:"render,omitempty"`

	// RenderOpts collects wire keys prefixed "render_", e.g.
	// render_optionValue selects an alternate id field for references.
	RenderOpts map[string]any `json:"-"`
}

// HasOpt reports whether the named option flag is set.
func (f *FieldSchema) HasOpt(opt string) bool {
	for _, o := range f.Opts {
		if o == opt {
			return true
		}
	}
	return false
}

// EffectiveLabel returns the display label, or "" when suppressed.
func (f *FieldSchema) EffectiveLabel() string {
	if f.HideLabel {
		return ""
	}
	if f.Label != "" {
		return f.Label
	}
	return f.Source
}

// fieldSchemaAlias avoids UnmarshalJSON recursion.
type fieldSchemaAlias FieldSchema

// UnmarshalJSON decodes the wire form, which carries two irregularities:
// label may be a string or the literal false, and reference render options
// arrive as flat "render_"-prefixed keys.
func (f *FieldSchema) UnmarshalJSON(data []byte) error {
	var alias fieldSchemaAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if rawLabel, ok := raw["label"]; ok {
		var s string
		if err := json.Unmarshal(rawLabel, &s); err == nil {
			alias.Label = s
		} else {
			var b bool
			if err := json.Unmarshal(rawLabel, &b); err == nil && !b {
				alias.HideLabel = true
			}
		}
	}

	for key, val := range raw {
		if !strings.HasPrefix(key, "render_") {
			continue
		}
		var v any
		if err := json.Unmarshal(val, &v); err != nil {
			continue
		}
		if alias.RenderOpts == nil {
			alias.RenderOpts = make(map[string]any)
		}
		alias.RenderOpts[strings.TrimPrefix(key, "render_")] = v
	}

	*f = FieldSchema(alias)
	return nil
}

// MarshalJSON emits the same wire form UnmarshalJSON accepts.
func (f FieldSchema) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(fieldSchemaAlias(f))
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	if f.HideLabel {
		m["label"] = false
	} else if f.Label != "" {
		m["label"] = f.Label
	}
	for key, val := range f.RenderOpts {
		m["render_"+key] = val
	}
	return json.Marshal(m)
}

// CollectionSchema is the document returned by the schema fetch service for
// one (model, mode) pair.
type CollectionSchema struct {
	Name       string        `json:"name"`
	Layout     Layout        `json:"layout,omitempty"`
	IsAbstract bool          `json:"isAbstract,omitempty"`
	SubModels  []string      `json:"subModels,omitempty"`
	Fields     []FieldSchema `json:"fields"`
}

// MetaModelPath is the record path of the polymorphic-model discriminator.
const MetaModelPath = "_meta.model"
