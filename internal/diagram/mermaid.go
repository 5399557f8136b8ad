package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// BuildMermaid emits the task graph as a Mermaid flowchart, for hosts that
// embed documentation or chat surfaces instead of a graphviz renderer. Like
// BuildDOT, equal inputs produce byte-identical output.
func BuildMermaid(graph schema.GraphData, statuses schema.StatusMap) string {
	var b strings.Builder
	b.WriteString("graph TD\n")

	keys := make([]string, 0, len(graph.Nodes))
	for key := range graph.Nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		label := graph.Nodes[key].Label
		if label == "" {
			label = key
		}
		if s := statuses[key]; s != "" {
			label = fmt.Sprintf("%s<br/><small>%s</small>", label, s)
		}
		fmt.Fprintf(&b, "    %s[%q]\n", mermaidSafeID(key), label)
	}

	for _, edge := range graph.Edges {
		fmt.Fprintf(&b, "    %s %s %s\n",
			mermaidSafeID(edge.From), mermaidArrow(edge.Kind), mermaidSafeID(edge.To))
	}

	b.WriteString("\n")
	classes := []schema.TaskStatus{
		schema.StatusIdle, schema.StatusWaiting, schema.StatusRunning,
		schema.StatusFinished, schema.StatusWarning, schema.StatusError,
	}
	for _, s := range classes {
		fmt.Fprintf(&b, "    classDef %s fill:%s,color:#000\n",
			strings.ToLower(string(s)), StatusColor(s))
	}

	for _, key := range keys {
		if s := statuses[key]; s != "" {
			fmt.Fprintf(&b, "    class %s %s\n", mermaidSafeID(key), strings.ToLower(string(s)))
		}
	}

	return b.String()
}

// mermaidArrow maps edge kinds onto Mermaid link styles. Conditional edges
// render dotted, loop edges thick.
func mermaidArrow(kind schema.EdgeKind) string {
	switch kind {
	case schema.EdgeConditional:
		return "-.->"
	case schema.EdgeLoop, schema.EdgeLoopStart, schema.EdgeLoopEnd:
		return "==>"
	}
	return "-->"
}

// mermaidSafeID converts a task id to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return r.Replace(id)
}
