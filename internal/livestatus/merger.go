package livestatus

import (
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// Callbacks notify the host of headline changes. Both are optional and are
// invoked synchronously in event-arrival order, while the merger lock is
// released.
type Callbacks struct {
	OnStatus   func(status string)
	OnProgress func(percent int)
}

// Merger folds status events for one graph into a view state. It is the
// single writer of that state; hosts read through Snapshot. Events apply in
// arrival order and the merged state survives disconnects, so a reconnect
// resumes from the last known picture instead of a blank one.
type Merger struct {
	graphID string
	cb      Callbacks
	logger  *slog.Logger

	mu         sync.Mutex
	state      ConnState
	status     string
	progress   int
	tasks      schema.StatusMap
	uiElements []schema.FieldSchema
	values     map[string]any
}

// NewMerger builds a merger for one graph id.
func NewMerger(graphID string, cb Callbacks, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		graphID: graphID,
		cb:      cb,
		logger:  logger,
		state:   Disconnected,
		tasks:   make(schema.StatusMap),
		values:  make(map[string]any),
	}
}

// GraphID returns the monitored graph id.
func (m *Merger) GraphID() string {
	return m.graphID
}

// Transition moves the view state machine. Invalid transitions are rejected
// so a racing connect/disconnect pair cannot corrupt the state.
func (m *Merger) Transition(to ConnState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !isValidTransition(m.state, to) {
		return schema.NewErrorf(schema.ErrCodeChannel,
			"invalid view transition: %s -> %s", m.state, to).
			WithDetails(map[string]any{"graph_id": m.graphID})
	}
	m.state = to
	return nil
}

// State returns the current attachment state.
func (m *Merger) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply merges one status payload. Sections apply in a fixed order (status,
// task statuses, progress, ui elements, values) and callbacks fire after the
// lock is released, in that same order.
func (m *Merger) Apply(payload schema.StatusPayload) {
	var notify []func()

	m.mu.Lock()

	if status, ok := payload.DagStatus[m.graphID]; ok {
		m.status = status
		if m.cb.OnStatus != nil {
			notify = append(notify, func() { m.cb.OnStatus(status) })
		}
	}

	for key, status := range payload.TaskStatus {
		task, ok := m.ownTask(key)
		if !ok {
			continue
		}
		m.tasks[task] = status
	}

	if fraction, ok := payload.DagProgress[m.graphID]; ok {
		percent := int(math.Round(fraction * 100))
		m.progress = percent
		if m.cb.OnProgress != nil {
			notify = append(notify, func() { m.cb.OnProgress(percent) })
		}
	}

	if payload.UIElements != nil {
		m.uiElements = payload.UIElements
	}

	for _, chunk := range payload.Values {
		m.mergeValue(chunk)
	}

	m.mu.Unlock()

	for _, fn := range notify {
		fn()
	}
}

// ownTask strips the "<graph>::" prefix from a task key. Keys for other
// graphs, and bare keys, are ignored.
func (m *Merger) ownTask(key string) (string, bool) {
	prefix := m.graphID + "::"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}

// mergeValue folds one value chunk under its "task::id" key. Stream chunks
// accumulate (lists append, strings concatenate) unless Reset starts the
// buffer over; Data chunks replace the buffer wholesale.
func (m *Merger) mergeValue(chunk schema.ValueChunk) {
	key := chunk.Task + "::" + chunk.ID

	if len(chunk.Stream) > 0 {
		data, ok := m.decodeChunk(key, chunk.Stream)
		if !ok {
			return
		}
		m.mergeStream(key, data, chunk.Reset)
		return
	}

	if len(chunk.Data) == 0 {
		return
	}
	data, ok := m.decodeChunk(key, chunk.Data)
	if !ok {
		return
	}
	m.values[key] = data
}

func (m *Merger) decodeChunk(key string, raw json.RawMessage) (any, bool) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		m.logger.Warn("discarding undecodable value chunk",
			slog.String("key", key), slog.String("error", err.Error()))
		return nil, false
	}
	return data, true
}

func (m *Merger) mergeStream(key string, data any, reset bool) {
	if reset {
		m.values[key] = data
		return
	}
	switch incoming := data.(type) {
	case []any:
		prev, _ := m.values[key].([]any)
		m.values[key] = append(prev, incoming...)
	case string:
		prev, _ := m.values[key].(string)
		m.values[key] = prev + incoming
	default:
		m.values[key] = data
	}
}

// Snapshot returns an independent copy of the merged state.
func (m *Merger) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make(map[string]any, len(m.values))
	for k, v := range m.values {
		values[k] = cloneValue(v)
	}

	var elements []schema.FieldSchema
	if m.uiElements != nil {
		elements = make([]schema.FieldSchema, len(m.uiElements))
		copy(elements, m.uiElements)
	}

	return Snapshot{
		State:      m.state,
		Status:     m.status,
		Progress:   m.progress,
		Tasks:      m.tasks.Clone(),
		UIElements: elements,
		Values:     values,
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
