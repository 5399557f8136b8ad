package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path.
// The path should be a file URI, e.g. "file:/path/to/console.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Connection-level PRAGMAs. Some PRAGMAs return rows so QueryRow is used.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage (e.g. chat log).
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Schema documents ---

func (s *LibSQLStore) PutSchemaDoc(ctx context.Context, doc *SchemaDoc) error {
	if len(doc.Raw) == 0 {
		return schema.NewError(schema.ErrCodeStore, "schema document is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_docs (model, mode, raw, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(model, mode) DO UPDATE SET raw=excluded.raw, fetched_at=excluded.fetched_at`,
		doc.Model, doc.Mode, string(doc.Raw), timeOrNow(doc.FetchedAt),
	)
	return err
}

func (s *LibSQLStore) GetSchemaDoc(ctx context.Context, model, mode string) (*SchemaDoc, error) {
	doc := &SchemaDoc{Model: model, Mode: mode}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT raw, fetched_at FROM schema_docs WHERE model = ? AND mode = ?`, model, mode,
	).Scan(&raw, &doc.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("schema document", model+"/"+mode)
	}
	if err != nil {
		return nil, err
	}
	doc.Raw = json.RawMessage(raw)
	return doc, nil
}

func (s *LibSQLStore) DeleteSchemaDocs(ctx context.Context, model string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schema_docs WHERE model = ?`, model)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "schema document", model)
}

func (s *LibSQLStore) PurgeSchemaDocs(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schema_docs WHERE fetched_at < ?`, olderThan)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Status snapshots ---

func (s *LibSQLStore) SaveSnapshot(ctx context.Context, snap *StatusSnapshot) error {
	if snap.GraphID == "" {
		return schema.NewError(schema.ErrCodeStore, "snapshot requires a graph id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_snapshots (graph_id, status, progress, tasks, ui_elements, "values", updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(graph_id) DO UPDATE SET
		   status=excluded.status, progress=excluded.progress, tasks=excluded.tasks,
		   ui_elements=excluded.ui_elements, "values"=excluded."values", updated_at=excluded.updated_at`,
		snap.GraphID, snap.Status, snap.Progress,
		nullRaw(snap.Tasks), nullRaw(snap.UIElements), nullRaw(snap.Values),
		timeOrNow(snap.UpdatedAt),
	)
	return err
}

func (s *LibSQLStore) GetSnapshot(ctx context.Context, graphID string) (*StatusSnapshot, error) {
	snap := &StatusSnapshot{GraphID: graphID}
	var tasks, uiElements, values sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT status, progress, tasks, ui_elements, "values", updated_at
		 FROM status_snapshots WHERE graph_id = ?`, graphID,
	).Scan(&snap.Status, &snap.Progress, &tasks, &uiElements, &values, &snap.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("snapshot", graphID)
	}
	if err != nil {
		return nil, err
	}
	snap.Tasks = rawOrNil(tasks)
	snap.UIElements = rawOrNil(uiElements)
	snap.Values = rawOrNil(values)
	return snap, nil
}

func (s *LibSQLStore) ListSnapshots(ctx context.Context, limit int) ([]*StatusSnapshot, error) {
	query := `SELECT graph_id, status, progress, tasks, ui_elements, "values", updated_at
	          FROM status_snapshots ORDER BY updated_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*StatusSnapshot
	for rows.Next() {
		snap := &StatusSnapshot{}
		var tasks, uiElements, values sql.NullString
		if err := rows.Scan(&snap.GraphID, &snap.Status, &snap.Progress, &tasks, &uiElements, &values, &snap.UpdatedAt); err != nil {
			return nil, err
		}
		snap.Tasks = rawOrNil(tasks)
		snap.UIElements = rawOrNil(uiElements)
		snap.Values = rawOrNil(values)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *LibSQLStore) DeleteSnapshot(ctx context.Context, graphID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM status_snapshots WHERE graph_id = ?`, graphID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "snapshot", graphID)
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.ConsoleError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullRaw(r json.RawMessage) any {
	if len(r) == 0 {
		return nil
	}
	return string(r)
}

func rawOrNil(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}
