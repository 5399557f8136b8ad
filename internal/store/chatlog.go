package store

import (
	"context"
	"fmt"
	"time"
)

// AppendChat appends a chat message with a monotonically increasing per-room
// sequence. The sequence read and insert run in one write transaction so
// concurrent appenders cannot interleave.
func (s *LibSQLStore) AppendChat(ctx context.Context, rec *ChatRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chat tx: %w", err)
	}
	defer tx.Rollback()

	// In WAL mode BeginTx alone may start a deferred transaction. A
	// write-intent statement forces lock acquisition up front.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, name) VALUES (-1, '_lock_noop')`); err != nil {
		return fmt.Errorf("acquire write lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schema_version WHERE version = -1`); err != nil {
		return fmt.Errorf("cleanup write lock: %w", err)
	}

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM chat_log WHERE room = ?`, rec.Room,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("get next sequence: %w", err)
	}
	rec.Sequence = seq

	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO chat_log (room, author, content, sequence, sent_at) VALUES (?, ?, ?, ?, ?)`,
		rec.Room, rec.Author, rec.Content, seq, rec.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chat message: %w", err)
	}
	return nil
}

// ListChat returns a room's messages with sequence > since, ordered by
// sequence ASC. limit <= 0 means no limit.
func (s *LibSQLStore) ListChat(ctx context.Context, room string, since int64, limit int) ([]*ChatRecord, error) {
	query := `SELECT id, room, author, content, sequence, sent_at
	          FROM chat_log WHERE room = ? AND sequence > ? ORDER BY sequence ASC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, room, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ChatRecord
	for rows.Next() {
		rec := &ChatRecord{}
		if err := rows.Scan(&rec.ID, &rec.Room, &rec.Author, &rec.Content, &rec.Sequence, &rec.SentAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
