package validation

import (
	"fmt"
	"sort"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// ValidateGraph performs graph analysis on a task-graph snapshot: edge
// endpoint existence, cycle detection (Kahn's algorithm), and dead-node
// reachability (BFS from roots). Loop-family edges are back-references by
// construction and stay out of the cycle check.
func ValidateGraph(graph *schema.GraphData) *schema.ValidationResult {
	result := &schema.ValidationResult{}
	if graph == nil {
		result.AddError("/", schema.ErrCodeValidation, "graph is nil")
		return result
	}

	for i, e := range graph.Edges {
		if _, ok := graph.Nodes[e.From]; !ok {
			result.AddError(fmt.Sprintf("edges[%d]", i), schema.ErrCodeValidation,
				fmt.Sprintf("edge references unknown node %q", e.From))
		}
		if _, ok := graph.Nodes[e.To]; !ok {
			result.AddError(fmt.Sprintf("edges[%d]", i), schema.ErrCodeValidation,
				fmt.Sprintf("edge references unknown node %q", e.To))
		}
		if e.Kind != "" && !knownEdgeKind(e.Kind) {
			result.AddError(fmt.Sprintf("edges[%d]", i), schema.ErrCodeConfiguration,
				fmt.Sprintf("unknown edge kind %q", e.Kind))
		}
	}
	if !result.Valid() {
		return result // broken endpoints make graph analysis meaningless
	}

	// forward[id] = successors over flow edges only; loop edges are cyclic by
	// construction and stay out of the cycle check. allForward and
	// allInDegree cover every edge kind for reachability.
	forward := make(map[string][]string, len(graph.Nodes))
	allForward := make(map[string][]string, len(graph.Nodes))
	inDegree := make(map[string]int, len(graph.Nodes))
	allInDegree := make(map[string]int, len(graph.Nodes))
	for id := range graph.Nodes {
		inDegree[id] = 0
		allInDegree[id] = 0
	}
	for _, e := range graph.Edges {
		allForward[e.From] = append(allForward[e.From], e.To)
		allInDegree[e.To]++
		if loopEdge(e.Kind) {
			continue
		}
		forward[e.From] = append(forward[e.From], e.To)
		inDegree[e.To]++
	}

	// Kahn's algorithm for cycle detection.
	queue := make([]string, 0, len(graph.Nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	// Sort roots for deterministic output.
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, succ := range forward[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if visited != len(graph.Nodes) {
		result.AddError("edges", schema.ErrCodeValidation, "graph contains a dependency cycle")
		return result // cycle makes reachability analysis meaningless
	}

	// Reachability: BFS over every edge kind from the nodes nothing points
	// at. A subgraph only entered through its own back edges never runs.
	roots := make([]string, 0, len(graph.Nodes))
	for id, deg := range allInDegree {
		if deg == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)

	reachable := make(map[string]bool, len(graph.Nodes))
	bfsQueue := append([]string(nil), roots...)
	for _, r := range roots {
		reachable[r] = true
	}
	for len(bfsQueue) > 0 {
		node := bfsQueue[0]
		bfsQueue = bfsQueue[1:]
		for _, succ := range allForward[node] {
			if !reachable[succ] {
				reachable[succ] = true
				bfsQueue = append(bfsQueue, succ)
			}
		}
	}

	ids := make([]string, 0, len(graph.Nodes))
	for id := range graph.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !reachable[id] {
			result.AddWarning(fmt.Sprintf("nodes[%s]", id), schema.ErrCodeValidation,
				fmt.Sprintf("node %q is unreachable from any root node", id))
		}
	}

	return result
}

func knownEdgeKind(k schema.EdgeKind) bool {
	switch k {
	case schema.EdgePlain, schema.EdgeConditional, schema.EdgeLoop,
		schema.EdgeLoopStart, schema.EdgeLoopEnd:
		return true
	}
	return false
}

func loopEdge(k schema.EdgeKind) bool {
	return k == schema.EdgeLoop || k == schema.EdgeLoopStart || k == schema.EdgeLoopEnd
}
