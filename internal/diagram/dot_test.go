package diagram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fresque-dev/fresque/pkg/schema"
)

func sampleGraph() schema.GraphData {
	return schema.GraphData{
		Nodes: map[string]schema.GraphNode{
			"fetch": {Label: "Fetch"},
			"parse": {Label: "Parse"},
			"store": {Label: "Store"},
		},
		Edges: []schema.GraphEdge{
			{From: "fetch", To: "parse", Kind: schema.EdgePlain},
			{From: "parse", To: "store", Kind: schema.EdgeConditional},
		},
	}
}

func TestBuildDOT_Idempotent(t *testing.T) {
	graph := sampleGraph()
	statuses := schema.StatusMap{"fetch": schema.StatusFinished, "parse": schema.StatusRunning}

	first := BuildDOT(graph, statuses, Options{})
	second := BuildDOT(graph, statuses, Options{})
	assert.Equal(t, first, second)
}

func TestBuildDOT_NodesSortedByKey(t *testing.T) {
	out := BuildDOT(sampleGraph(), nil, Options{})

	fetch := strings.Index(out, `"fetch"`)
	parse := strings.Index(out, `"parse"`)
	store := strings.Index(out, `"store"`)
	require.True(t, fetch >= 0 && parse >= 0 && store >= 0)
	assert.Less(t, fetch, parse)
	assert.Less(t, parse, store)
}

func TestBuildDOT_Header(t *testing.T) {
	out := BuildDOT(sampleGraph(), nil, Options{RankDir: "LR", FontSize: 12, Theme: ThemeLight})

	assert.Contains(t, out, "rankdir=LR;")
	assert.Contains(t, out, `bgcolor="#FFFFFF";`)
	assert.Contains(t, out, "fontsize=12")
	assert.True(t, strings.HasPrefix(out, "digraph {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestBuildDOT_StatusSubLabelAndColor(t *testing.T) {
	out := BuildDOT(sampleGraph(), schema.StatusMap{"parse": schema.StatusRunning}, Options{})

	assert.Contains(t, out, `"parse" [label=<Parse<br/><FONT POINT-SIZE="10">RUNNING</FONT>>, color="#56F000", fontcolor="#56F000"];`)
	// Nodes without a status carry only their label.
	assert.Contains(t, out, `"fetch" [label=<Fetch>];`)
}

func TestBuildDOT_ConditionalEdgeStyles(t *testing.T) {
	graph := sampleGraph()

	// Inactive target renders dotted.
	out := BuildDOT(graph, nil, Options{})
	assert.Contains(t, out, `"parse" -> "store" [samehead=conditional, dir=both, arrowtail=odot, style=dotted];`)

	// Active target renders bold.
	out = BuildDOT(graph, schema.StatusMap{"store": schema.StatusRunning}, Options{})
	assert.Contains(t, out, `"parse" -> "store" [samehead=conditional, dir=both, arrowtail=odot, style=bold];`)

	// IDLE does not count as active.
	out = BuildDOT(graph, schema.StatusMap{"store": schema.StatusIdle}, Options{})
	assert.Contains(t, out, "style=dotted")
}

func TestBuildDOT_LoopEdgeStyles(t *testing.T) {
	graph := schema.GraphData{
		Nodes: map[string]schema.GraphNode{"a": {}, "b": {}},
		Edges: []schema.GraphEdge{
			{From: "a", To: "b", Kind: schema.EdgeLoop},
			{From: "a", To: "b", Kind: schema.EdgeLoopStart},
			{From: "b", To: "a", Kind: schema.EdgeLoopEnd},
		},
	}

	out := BuildDOT(graph, nil, Options{})
	assert.Contains(t, out, "[samehead=loop, style=dashed];")
	assert.Contains(t, out, "[samehead=start, dir=both, arrowtail=odiamond, style=solid];")
	assert.Contains(t, out, "[samehead=end, dir=both, arrowtail=diamond, style=solid];")

	out = BuildDOT(graph, schema.StatusMap{"b": schema.StatusWaiting}, Options{})
	assert.Contains(t, out, "[samehead=start, dir=both, arrowtail=odiamond, style=bold];")
}

func TestBuildDOT_LabelFallsBackToKeyAndEscapes(t *testing.T) {
	graph := schema.GraphData{
		Nodes: map[string]schema.GraphNode{
			"bare":  {},
			"fancy": {Label: "a<b & c"},
		},
	}

	out := BuildDOT(graph, nil, Options{})
	assert.Contains(t, out, `"bare" [label=<bare>];`)
	assert.Contains(t, out, "a&lt;b &amp; c")
}

func TestStatusColor(t *testing.T) {
	assert.Equal(t, "#56F000", StatusColor(schema.StatusRunning))
	assert.Equal(t, "#FF3838", StatusColor(schema.StatusError))
	assert.Empty(t, StatusColor("UNKNOWN"))
}

func TestPaletteFor_DefaultsToDark(t *testing.T) {
	assert.Equal(t, PaletteFor(ThemeDark), PaletteFor("neon"))
}
