package livestatus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fresque-dev/fresque/pkg/schema"
)

func TestMerger_Transitions(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)
	assert.Equal(t, Disconnected, m.State())

	require.NoError(t, m.Transition(ConnectedUnsubscribed))
	require.NoError(t, m.Transition(Subscribed))
	require.NoError(t, m.Transition(ConnectedUnsubscribed))
	require.NoError(t, m.Transition(Disconnected))

	// Subscribing straight from disconnected is invalid.
	err := m.Transition(Subscribed)
	require.Error(t, err)
	var cerr *schema.ConsoleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, schema.ErrCodeChannel, cerr.Code)
}

func TestMerger_CallbackSequence(t *testing.T) {
	var calls []any
	m := NewMerger("G", Callbacks{
		OnStatus:   func(s string) { calls = append(calls, s) },
		OnProgress: func(p int) { calls = append(calls, p) },
	}, nil)

	m.Apply(schema.StatusPayload{DagStatus: map[string]string{"G": "RUNNING"}})
	m.Apply(schema.StatusPayload{TaskStatus: map[string]schema.TaskStatus{"G::fetch": schema.StatusRunning}})
	m.Apply(schema.StatusPayload{DagProgress: map[string]float64{"G": 0.42}})

	assert.Equal(t, []any{"RUNNING", 42}, calls)

	snap := m.Snapshot()
	assert.Equal(t, "RUNNING", snap.Status)
	assert.Equal(t, 42, snap.Progress)
	assert.Equal(t, schema.StatusRunning, snap.Tasks["fetch"])
}

func TestMerger_ProgressRounds(t *testing.T) {
	var seen []int
	m := NewMerger("G", Callbacks{OnProgress: func(p int) { seen = append(seen, p) }}, nil)

	m.Apply(schema.StatusPayload{DagProgress: map[string]float64{"G": 0.425}})
	m.Apply(schema.StatusPayload{DagProgress: map[string]float64{"G": 0.994}})
	assert.Equal(t, []int{43, 99}, seen)
}

func TestMerger_IgnoresOtherGraphs(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{
		DagStatus:   map[string]string{"H": "ERROR"},
		DagProgress: map[string]float64{"H": 0.9},
		TaskStatus: map[string]schema.TaskStatus{
			"H::fetch": schema.StatusError,
			"fetch":    schema.StatusError,
		},
	})

	snap := m.Snapshot()
	assert.Empty(t, snap.Status)
	assert.Zero(t, snap.Progress)
	assert.Empty(t, snap.Tasks)
}

func TestMerger_TaskStatusAccumulates(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{TaskStatus: map[string]schema.TaskStatus{"G::a": schema.StatusRunning}})
	m.Apply(schema.StatusPayload{TaskStatus: map[string]schema.TaskStatus{"G::b": schema.StatusWaiting}})
	m.Apply(schema.StatusPayload{TaskStatus: map[string]schema.TaskStatus{"G::a": schema.StatusFinished}})

	snap := m.Snapshot()
	assert.Equal(t, schema.StatusFinished, snap.Tasks["a"])
	assert.Equal(t, schema.StatusWaiting, snap.Tasks["b"])
}

func TestMerger_UIElementsReplace(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{UIElements: []schema.FieldSchema{
		{Source: "a", Kind: schema.KindText},
		{Source: "b", Kind: schema.KindText},
	}})
	m.Apply(schema.StatusPayload{UIElements: []schema.FieldSchema{
		{Source: "c", Kind: schema.KindText},
	}})

	snap := m.Snapshot()
	require.Len(t, snap.UIElements, 1)
	assert.Equal(t, "c", snap.UIElements[0].Source)
}

func streamChunk(task, id, stream string, reset bool) schema.ValueChunk {
	return schema.ValueChunk{Task: task, ID: id, Stream: json.RawMessage(stream), Reset: reset}
}

func dataChunk(task, id, data string) schema.ValueChunk {
	return schema.ValueChunk{Task: task, ID: id, Data: json.RawMessage(data)}
}

func TestMerger_StreamAppendsSlices(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["a"]`, false)}})
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["b","c"]`, false)}})

	snap := m.Snapshot()
	assert.Equal(t, []any{"a", "b", "c"}, snap.Values["t::log"])
}

func TestMerger_StreamConcatsStrings(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "out", `"hel"`, false)}})
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "out", `"lo"`, false)}})

	snap := m.Snapshot()
	assert.Equal(t, "hello", snap.Values["t::out"])
}

func TestMerger_StreamReset(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["a","b"]`, false)}})
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["fresh"]`, true)}})

	snap := m.Snapshot()
	assert.Equal(t, []any{"fresh"}, snap.Values["t::log"])
}

func TestMerger_DataReplacesWholesale(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["a","b"]`, false)}})
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{dataChunk("t", "log", `["only"]`)}})

	snap := m.Snapshot()
	assert.Equal(t, []any{"only"}, snap.Values["t::log"])
}

func TestMerger_EmptyChunkIsNoop(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)

	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{dataChunk("t", "log", `"kept"`)}})
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{{Task: "t", ID: "log"}}})

	snap := m.Snapshot()
	assert.Equal(t, "kept", snap.Values["t::log"])
}

func TestMerger_StateSurvivesDisconnect(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)
	require.NoError(t, m.Transition(ConnectedUnsubscribed))
	require.NoError(t, m.Transition(Subscribed))

	m.Apply(schema.StatusPayload{DagStatus: map[string]string{"G": "RUNNING"}})
	require.NoError(t, m.Transition(Disconnected))

	snap := m.Snapshot()
	assert.Equal(t, Disconnected, snap.State)
	assert.Equal(t, "RUNNING", snap.Status)
}

func TestMerger_SnapshotIsIndependent(t *testing.T) {
	m := NewMerger("G", Callbacks{}, nil)
	m.Apply(schema.StatusPayload{Values: []schema.ValueChunk{streamChunk("t", "log", `["a"]`, false)}})

	snap := m.Snapshot()
	snap.Values["t::log"].([]any)[0] = "mutated"
	snap.Tasks["x"] = schema.StatusError

	fresh := m.Snapshot()
	assert.Equal(t, []any{"a"}, fresh.Values["t::log"])
	assert.Empty(t, fresh.Tasks)
}
