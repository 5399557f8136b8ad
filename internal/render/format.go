package render

import (
	"fmt"
	"strings"
)

// EncodeDisplay converts a display tree into plain maps with a "kind"
// discriminator per node, suitable for JSON transport.
func EncodeDisplay(nodes []DisplayNode) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encodeDisplayNode(n))
	}
	return out
}

func encodeDisplayNode(node DisplayNode) map[string]any {
	switch n := node.(type) {
	case ScalarDisplay:
		m := map[string]any{"kind": string(n.Kind), "label": n.Label, "value": n.Value}
		if n.Chip {
			m["chip"] = true
		}
		if len(n.Options) > 0 {
			m["options"] = n.Options
		}
		return m
	case ReferenceDisplay:
		m := map[string]any{"kind": "reference", "label": n.Label, "resource": n.Resource, "id": n.ID}
		if n.IDField != "" {
			m["idField"] = n.IDField
		}
		if n.Chip {
			m["chip"] = true
		}
		return m
	case ReferenceListDisplay:
		m := map[string]any{"kind": "reference_list", "label": n.Label, "resource": n.Resource, "ids": n.IDs}
		if n.IDField != "" {
			m["idField"] = n.IDField
		}
		if n.Chip {
			m["chip"] = true
		}
		return m
	case ListDisplay:
		return map[string]any{"kind": "list", "label": n.Label, "items": EncodeDisplay(n.Items)}
	case GroupDisplay:
		return map[string]any{"kind": "group", "label": n.Label, "children": EncodeDisplay(n.Children)}
	case TabsDisplay:
		tabs := make([]map[string]any, 0, len(n.Tabs))
		for _, tab := range n.Tabs {
			tabs = append(tabs, map[string]any{"title": tab.Title, "children": EncodeDisplay(tab.Children)})
		}
		return map[string]any{"kind": "tabs", "label": n.Label, "tabs": tabs}
	case VisualizationDisplay:
		m := map[string]any{"kind": string(n.Kind), "label": n.Label, "data": n.Data}
		if len(n.Options) > 0 {
			m["options"] = n.Options
		}
		return m
	default:
		return map[string]any{"kind": "unknown"}
	}
}

// FormatDisplay renders a display tree as an indented text outline.
func FormatDisplay(nodes []DisplayNode) string {
	var b strings.Builder
	formatDisplayNodes(&b, nodes, 0)
	return b.String()
}

func formatDisplayNodes(b *strings.Builder, nodes []DisplayNode, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		switch n := node.(type) {
		case ScalarDisplay:
			fmt.Fprintf(b, "%s%s: %v\n", indent, labelOr(n.Label, string(n.Kind)), n.Value)
		case ReferenceDisplay:
			fmt.Fprintf(b, "%s%s: %s#%v\n", indent, labelOr(n.Label, "reference"), n.Resource, n.ID)
		case ReferenceListDisplay:
			fmt.Fprintf(b, "%s%s: %s%v\n", indent, labelOr(n.Label, "reference"), n.Resource, n.IDs)
		case ListDisplay:
			fmt.Fprintf(b, "%s%s:\n", indent, labelOr(n.Label, "list"))
			formatDisplayNodes(b, n.Items, depth+1)
		case GroupDisplay:
			if n.Label != "" {
				fmt.Fprintf(b, "%s%s:\n", indent, n.Label)
				formatDisplayNodes(b, n.Children, depth+1)
			} else {
				formatDisplayNodes(b, n.Children, depth)
			}
		case TabsDisplay:
			for _, tab := range n.Tabs {
				fmt.Fprintf(b, "%s[%s]\n", indent, tab.Title)
				formatDisplayNodes(b, tab.Children, depth+1)
			}
		case VisualizationDisplay:
			fmt.Fprintf(b, "%s%s: <%s>\n", indent, labelOr(n.Label, "visualization"), n.Kind)
		}
	}
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
