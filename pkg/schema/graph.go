package schema

import "encoding/json"

// TaskStatus is the lifecycle state of one node (task) of a DAG or job.
type TaskStatus string

const (
	StatusIdle     TaskStatus = "IDLE"
	StatusWaiting  TaskStatus = "WAITING"
	StatusRunning  TaskStatus = "RUNNING"
	StatusFinished TaskStatus = "FINISHED"
	StatusWarning  TaskStatus = "WARNING"
	StatusError    TaskStatus = "ERROR"
)

// Active reports whether s marks a node as started, i.e. anything recorded
// beyond IDLE. Edge emphasis in the graph description keys off this.
func (s TaskStatus) Active() bool {
	return s != "" && s != StatusIdle
}

// StatusMap holds the last-known status per task id for one DAG/job view.
// Owned and mutated by the live-status merger only; everyone else reads
// snapshots.
type StatusMap map[string]TaskStatus

// Clone returns an independent copy of m.
func (m StatusMap) Clone() StatusMap {
	cp := make(StatusMap, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// EdgeKind classifies an edge of the task graph.
type EdgeKind string

const (
	EdgePlain       EdgeKind = "PLAIN"
	EdgeConditional EdgeKind = "CONDITIONAL"
	EdgeLoop        EdgeKind = "LOOP"
	EdgeLoopStart   EdgeKind = "LOOP_START"
	EdgeLoopEnd     EdgeKind = "LOOP_END"
)

// GraphNode is the static description of one task node.
type GraphNode struct {
	Label string `json:"label"`
}

// GraphEdge is one directed edge between two task ids.
type GraphEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// UnmarshalJSON accepts the wire form, a three-element array
// [from, to, kind], alongside the object form.
func (e *GraphEdge) UnmarshalJSON(data []byte) error {
	var triple [3]string
	if err := json.Unmarshal(data, &triple); err == nil {
		e.From, e.To, e.Kind = triple[0], triple[1], EdgeKind(triple[2])
		return nil
	}
	type alias GraphEdge
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = GraphEdge(a)
	return nil
}

// GraphData is the immutable topology snapshot of one DAG/job, fetched once
// per view and overlaid with live statuses on every re-render.
type GraphData struct {
	Nodes map[string]GraphNode `json:"nodes"`
	Edges []GraphEdge          `json:"edges"`
}
