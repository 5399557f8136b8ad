package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// Options tunes a graph description. Zero values fall back to top-to-bottom
// rank direction, 14pt labels, and the dark theme.
type Options struct {
	RankDir  string
	FontSize int
	Theme    Theme
}

func (o Options) withDefaults() Options {
	if o.RankDir == "" {
		o.RankDir = "TB"
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	if o.Theme == "" {
		o.Theme = ThemeDark
	}
	return o
}

// BuildDOT emits the DOT description of a task graph with its live status
// overlay. Nodes are emitted in sorted key order and edges in declaration
// order, so equal inputs produce byte-identical output.
func BuildDOT(graph schema.GraphData, statuses schema.StatusMap, opts Options) string {
	opts = opts.withDefaults()
	pal := PaletteFor(opts.Theme)

	var b strings.Builder
	b.WriteString("digraph {\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", opts.RankDir)
	fmt.Fprintf(&b, "  bgcolor=%q;\n", pal.Background)
	fmt.Fprintf(&b, "  node [shape=box, fontsize=%d, color=%q, fontcolor=%q];\n",
		opts.FontSize, pal.Stroke, pal.DefaultText)
	fmt.Fprintf(&b, "  edge [color=%q];\n", pal.Stroke)

	keys := make([]string, 0, len(graph.Nodes))
	for key := range graph.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		writeNode(&b, key, graph.Nodes[key], statuses[key], opts)
	}
	for _, edge := range graph.Edges {
		writeEdge(&b, edge, statuses)
	}

	b.WriteString("}\n")
	return b.String()
}

// writeNode emits one node line. A task with a known status gets its status
// color and a smaller status sub-label under the name.
func writeNode(b *strings.Builder, key string, node schema.GraphNode, status schema.TaskStatus, opts Options) {
	label := node.Label
	if label == "" {
		label = key
	}

	if status == "" {
		fmt.Fprintf(b, "  %q [label=<%s>];\n", key, escapeHTML(label))
		return
	}

	color := StatusColor(status)
	if color == "" {
		color = StatusColor(schema.StatusIdle)
	}
	subSize := opts.FontSize - 4
	fmt.Fprintf(b, "  %q [label=<%s<br/><FONT POINT-SIZE=\"%d\">%s</FONT>>, color=%q, fontcolor=%q];\n",
		key, escapeHTML(label), subSize, status, color, color)
}

// writeEdge emits one edge line. Conditional and loop-boundary edges render
// bold while their target task is active, so the eye tracks the live branch.
func writeEdge(b *strings.Builder, edge schema.GraphEdge, statuses schema.StatusMap) {
	targetActive := statuses[edge.To].Active()

	var attrs []string
	switch edge.Kind {
	case schema.EdgeConditional:
		attrs = append(attrs, "samehead=conditional", "dir=both", "arrowtail=odot")
		attrs = append(attrs, "style="+boldOr("dotted", targetActive))
	case schema.EdgeLoop:
		attrs = append(attrs, "samehead=loop", "style=dashed")
	case schema.EdgeLoopStart:
		attrs = append(attrs, "samehead=start", "dir=both", "arrowtail=odiamond")
		attrs = append(attrs, "style="+boldOr("solid", targetActive))
	case schema.EdgeLoopEnd:
		attrs = append(attrs, "samehead=end", "dir=both", "arrowtail=diamond")
		attrs = append(attrs, "style="+boldOr("solid", targetActive))
	}

	if len(attrs) == 0 {
		fmt.Fprintf(b, "  %q -> %q;\n", edge.From, edge.To)
		return
	}
	fmt.Fprintf(b, "  %q -> %q [%s];\n", edge.From, edge.To, strings.Join(attrs, ", "))
}

func boldOr(base string, active bool) string {
	if active {
		return "bold"
	}
	return base
}

// escapeHTML guards node labels inside the HTML-like label markup.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
