package store

import (
	"encoding/json"
	"time"
)

// SchemaDoc is a raw collection-schema document cached per (model, mode).
type SchemaDoc struct {
	Model     string          `json:"model"`
	Mode      string          `json:"mode"`
	Raw       json.RawMessage `json:"raw"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// StatusSnapshot is the last-known live state of one DAG/job view, persisted
// so a reopened console can show something before the channel catches up.
// Tasks, UIElements and Values are stored as opaque JSON.
type StatusSnapshot struct {
	GraphID    string          `json:"graph_id"`
	Status     string          `json:"status"`
	Progress   int             `json:"progress"`
	Tasks      json.RawMessage `json:"tasks,omitempty"`
	UIElements json.RawMessage `json:"ui_elements,omitempty"`
	Values     json.RawMessage `json:"values,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ChatRecord is one immutable entry of a room's chat log. Sequence is
// monotonically increasing per room and assigned on append.
type ChatRecord struct {
	ID       int64     `json:"id"`
	Room     string    `json:"room"`
	Author   string    `json:"author"`
	Content  string    `json:"content"`
	Sequence int64     `json:"sequence"`
	SentAt   time.Time `json:"sent_at"`
}
