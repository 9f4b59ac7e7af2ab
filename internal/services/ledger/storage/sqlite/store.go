// Package sqlite provides the SQLite-backed ledger journal.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/spinvault/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/spinvault/internal/services/ledger/domain/event"
	"github.com/louisbranch/spinvault/internal/services/ledger/storage"
	"github.com/louisbranch/spinvault/internal/services/ledger/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists journal events in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal at path, creating parent directories, and applies
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append writes events in one transaction. The first event must follow the
// stored head.
func (s *Store) Append(ctx context.Context, events []event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var head uint64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&head); err != nil {
		return fmt.Errorf("read journal head: %w", err)
	}
	if events[0].Seq != head+1 {
		return fmt.Errorf("%w: got seq %d, head is %d", storage.ErrSeqConflict, events[0].Seq, head)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events (
		   seq, event_id, event_type, actor, occurred_at, payload_json, prev_hash, hash
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, evt := range events {
		if _, err := stmt.ExecContext(ctx,
			int64(evt.Seq),
			evt.ID,
			string(evt.Type),
			evt.Actor,
			toMillis(evt.Timestamp),
			string(evt.PayloadJSON),
			evt.PrevHash,
			evt.Hash,
		); err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("%w: seq %d: %v", storage.ErrSeqConflict, evt.Seq, err)
			}
			return fmt.Errorf("insert event %d: %w", evt.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Scan streams events after afterSeq in sequence order.
func (s *Store) Scan(ctx context.Context, afterSeq uint64, fn func(event.Event) error) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT seq, event_id, event_type, actor, occurred_at, payload_json, prev_hash, hash
		 FROM events WHERE seq > ? ORDER BY seq`, int64(afterSeq))
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			evt        event.Event
			seq        int64
			typ        string
			occurredAt int64
			payload    string
		)
		if err := rows.Scan(&seq, &evt.ID, &typ, &evt.Actor, &occurredAt, &payload, &evt.PrevHash, &evt.Hash); err != nil {
			return fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.Type = event.Type(typ)
		evt.Timestamp = fromMillis(occurredAt)
		evt.PayloadJSON = []byte(payload)
		if err := fn(evt); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate events: %w", err)
	}
	return nil
}

// Head returns the last stored sequence, or 0 for an empty journal.
func (s *Store) Head(ctx context.Context) (uint64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	var head int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&head); err != nil {
		return 0, fmt.Errorf("read journal head: %w", err)
	}
	return uint64(head), nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Journal = (*Store)(nil)
