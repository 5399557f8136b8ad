package schema

import "encoding/json"

// Outbound intent names on the event channel.
const (
	IntentSubscribeDAG     = "subscribe_dag"
	IntentUnsubscribeDAG   = "unsubscribe_dag"
	IntentAcquireLock      = "acquire_lock"
	IntentReleaseLock      = "release_lock"
	IntentEnterChat        = "enter_chat"
	IntentLeaveChat        = "leave_chat"
	IntentChatMessage      = "chat_message"
	IntentSubscribeRunning = "subscribe_running_dag_count"
	IntentUnsubRunning     = "unsubscribe_running_dag_count"
)

// Inbound event names on the event channel.
const (
	EventMessage      = "message"
	EventLockState    = "lock_state"
	EventRunningCount = "running_dag_count"
	EventChatBatch    = "chat_messages"
)

// ValueChunk is one streamed-value entry of a status payload. Stream data
// accumulates (append for sequences, concatenate for text) unless Reset is
// set; Data replaces the buffer wholesale.
type ValueChunk struct {
	Task   string          `json:"task"`
	ID     string          `json:"id"`
	Stream json.RawMessage `json:"stream,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Reset  bool            `json:"reset,omitempty"`
}

// StatusPayload is the incremental DAG/job status event pushed by the
// platform. Every section is optional; keys of DagStatus and DagProgress are
// graph ids, keys of TaskStatus are "<graph>::<task>".
type StatusPayload struct {
	DagStatus   map[string]string     `json:"dagStatus,omitempty"`
	DagProgress map[string]float64    `json:"dagProgress,omitempty"`
	TaskStatus  map[string]TaskStatus `json:"taskStatus,omitempty"`
	UIElements  []FieldSchema         `json:"uiElements,omitempty"`
	Values      []ValueChunk          `json:"values,omitempty"`
}

// ChatMessage is one message of a chat-room batch.
type ChatMessage struct {
	Room    string `json:"room"`
	Author  string `json:"author"`
	Content string `json:"content"`
	SentAt  string `json:"sentAt,omitempty"`
}
