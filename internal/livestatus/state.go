// Package livestatus owns the live view state of one monitored graph. A
// Merger folds server-pushed status events into an immutable snapshot that
// hosts read; the event channel only reports observed transport transitions
// and never drives reconnection from here.
package livestatus

import "github.com/fresque-dev/fresque/pkg/schema"

// ConnState is the channel attachment state of one monitored view.
type ConnState string

const (
	// Disconnected means no channel; the last snapshot stays readable.
	Disconnected ConnState = "DISCONNECTED"
	// ConnectedUnsubscribed means the channel is up but no graph
	// subscription is active yet (or anymore).
	ConnectedUnsubscribed ConnState = "CONNECTED_UNSUBSCRIBED"
	// Subscribed means status events for the view's graph are flowing.
	Subscribed ConnState = "SUBSCRIBED"
)

// validTransitions is the closed transition table of the view state machine.
var validTransitions = map[ConnState][]ConnState{
	Disconnected:          {ConnectedUnsubscribed},
	ConnectedUnsubscribed: {Subscribed, Disconnected},
	Subscribed:            {ConnectedUnsubscribed, Disconnected},
}

func isValidTransition(from, to ConnState) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// Snapshot is an immutable copy of a view's merged state. All maps and
// slices are owned by the caller.
type Snapshot struct {
	State      ConnState
	Status     string
	Progress   int
	Tasks      schema.StatusMap
	UIElements []schema.FieldSchema
	Values     map[string]any
}
