// Package store is the console's local persistence layer: fetched schema
// documents, last-known job-status snapshots for offline views, and the
// per-room chat log. Backed by libSQL.
package store

import (
	"context"
	"time"
)

// Store defines the persistence contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Schema documents
	PutSchemaDoc(ctx context.Context, doc *SchemaDoc) error
	GetSchemaDoc(ctx context.Context, model, mode string) (*SchemaDoc, error)
	DeleteSchemaDocs(ctx context.Context, model string) error
	PurgeSchemaDocs(ctx context.Context, olderThan time.Time) (int64, error)

	// Status snapshots
	SaveSnapshot(ctx context.Context, snap *StatusSnapshot) error
	GetSnapshot(ctx context.Context, graphID string) (*StatusSnapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]*StatusSnapshot, error)
	DeleteSnapshot(ctx context.Context, graphID string) error

	// Chat log (append-only)
	AppendChat(ctx context.Context, rec *ChatRecord) error
	ListChat(ctx context.Context, room string, since int64, limit int) ([]*ChatRecord, error)

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
