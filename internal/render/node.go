// Package render interprets field-schema documents against record data,
// producing headless display and form trees. Nodes carry no widget or
// styling concerns; hosts map them onto whatever UI toolkit they embed.
package render

import "github.com/fresque-dev/fresque/pkg/schema"

// DisplayNode is one node of a rendered display tree. The set of concrete
// types is closed; consumers switch exhaustively over them.
type DisplayNode interface {
	displayNode()
}

// ScalarDisplay presents one resolved value. Secret kinds arrive masked.
type ScalarDisplay struct {
	Kind    schema.Kind
	Label   string
	Value   any
	Chip    bool
	Options map[string]any
}

// ReferenceDisplay points at a record of another collection.
type ReferenceDisplay struct {
	Label    string
	Resource string
	ID       any
	// IDField overrides the referenced collection's id field when the
	// schema sets render_optionValue.
	IDField string
	Chip    bool
}

// ReferenceListDisplay points at a set of records of another collection.
// Multiple references never collapse; the host resolves all ids in one
// request.
type ReferenceListDisplay struct {
	Label    string
	Resource string
	IDs      []any
	IDField  string
	Chip     bool
}

// ListDisplay presents the per-index items of a multiple field. Items carry
// no labels of their own.
type ListDisplay struct {
	Label string
	Items []DisplayNode
}

// GroupDisplay nests child nodes under an optional heading.
type GroupDisplay struct {
	Label    string
	Children []DisplayNode
}

// TabsDisplay presents one tab per list item of a multiple group.
type TabsDisplay struct {
	Label string
	Tabs  []DisplayTab
}

// DisplayTab is one tab of a TabsDisplay.
type DisplayTab struct {
	Title    string
	Children []DisplayNode
}

// VisualizationDisplay carries the resolved data of a chart or graph kind
// together with its schema options.
type VisualizationDisplay struct {
	Kind    schema.Kind
	Label   string
	Data    any
	Options map[string]any
}

func (ScalarDisplay) displayNode()        {}
func (ReferenceDisplay) displayNode()     {}
func (ReferenceListDisplay) displayNode() {}
func (ListDisplay) displayNode()          {}
func (GroupDisplay) displayNode()         {}
func (TabsDisplay) displayNode()          {}
func (VisualizationDisplay) displayNode() {}

// FormNode is one node of a rendered form tree. Controls bind two-way to a
// FormState through their Path. The set of concrete types is closed.
type FormNode interface {
	formNode()
}

// Control is one editable input bound to a record path.
type Control struct {
	Kind       schema.Kind
	Label      string
	Path       string
	Value      any
	Required   bool
	ReadOnly   bool
	Multiline  bool
	FullWidth  bool
	HelperText string
	Default    any
	Choices    []schema.Choice
	Number     *schema.NumberOpts
	Grid       *schema.GridItem
	// Error holds the concatenated violation messages for the current value.
	Error string
}

// OptionalToggle wraps a control for an optional field. Disabling it unsets
// the bound path; enabling it restores the child control.
type OptionalToggle struct {
	Path    string
	Label   string
	Enabled bool
	Child   FormNode
}

// ListEdit manages the items of a multiple scalar field with add and remove.
type ListEdit struct {
	Path  string
	Label string
	Items []FormNode
}

// FormGroup nests child controls, optionally as tabs when the bound value is
// a list and the schema names a tab field.
type FormGroup struct {
	Label    string
	Children []FormNode
	Tabs     []FormTab
}

// FormTab is one tab of a tabbed FormGroup.
type FormTab struct {
	Title    string
	Children []FormNode
}

// ModelSelect chooses the polymorphic sub-model of a model field. Switching
// the selection re-renders Children from the newly fetched sub-schema, but
// values written under the previous model stay in the record untouched.
type ModelSelect struct {
	Path     string
	Label    string
	Options  []string
	Selected string
	Children []FormNode
}

// DotPreview is the live preview companion of a graphviz_dot control. Err is
// set when the current text is not valid DOT, in which case SVG is empty.
type DotPreview struct {
	Path string
	DOT  string
	Err  string
}

func (Control) formNode()        {}
func (OptionalToggle) formNode() {}
func (ListEdit) formNode()       {}
func (FormGroup) formNode()      {}
func (ModelSelect) formNode()    {}
func (DotPreview) formNode()     {}
