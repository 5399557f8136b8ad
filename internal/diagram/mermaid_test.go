package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fresque-dev/fresque/pkg/schema"
)

func TestBuildMermaid(t *testing.T) {
	out := BuildMermaid(sampleGraph(), schema.StatusMap{"parse": schema.StatusRunning})

	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, `parse["Parse<br/><small>RUNNING</small>"]`)
	assert.Contains(t, out, "fetch --> parse")
	assert.Contains(t, out, "parse -.-> store")
	assert.Contains(t, out, "class parse running")
}

func TestBuildMermaid_Idempotent(t *testing.T) {
	graph := sampleGraph()
	assert.Equal(t, BuildMermaid(graph, nil), BuildMermaid(graph, nil))
}

func TestBuildMermaid_SafeIDs(t *testing.T) {
	graph := schema.GraphData{
		Nodes: map[string]schema.GraphNode{"job::task-1": {Label: "T1"}},
	}
	out := BuildMermaid(graph, nil)
	assert.Contains(t, out, "job__task_1")
}
