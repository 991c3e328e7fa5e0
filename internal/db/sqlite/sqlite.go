// Package sqlite provides a SQLite-backed ledger.Store for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/susu3304/kongklang/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps recorded_at as Unix microseconds, the same resolution Postgres uses.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT NOT NULL,
    author_id TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('center', 'advance')),
    amount INTEGER NOT NULL CHECK (amount > 0),
    note TEXT NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_conversation_recorded ON entries(conversation_id, recorded_at);
`

// New opens the database file, creating parent directories as needed.
// Call InitSchema before use.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serialises anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, e *ledger.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (conversation_id, author_id, kind, amount, note, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ConversationID, e.AuthorID, string(e.Kind), e.Amount, e.Note, e.RecordedAt.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry id: %w", err)
	}
	e.ID = id
	return nil
}

const entryColumns = "id, conversation_id, author_id, kind, amount, note, recorded_at"

func (s *Store) Get(ctx context.Context, conversationID string, id int64) (*ledger.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = ? AND id = ?",
		conversationID, id,
	)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return &e, nil
}

func (s *Store) Delete(ctx context.Context, conversationID string, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM entries WHERE conversation_id = ? AND id = ?",
		conversationID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Range(ctx context.Context, conversationID string, start, end time.Time) ([]ledger.Entry, error) {
	return s.query(ctx,
		"SELECT "+entryColumns+` FROM entries
		 WHERE conversation_id = ? AND recorded_at BETWEEN ? AND ?
		 ORDER BY recorded_at, id`,
		conversationID, start.UnixMicro(), end.UnixMicro(),
	)
}

func (s *Store) Recent(ctx context.Context, conversationID string, limit int) ([]ledger.Entry, error) {
	return s.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = ? ORDER BY id DESC LIMIT ?",
		conversationID, limit,
	)
}

func (s *Store) DeleteRange(ctx context.Context, conversationID string, start, end time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM entries WHERE conversation_id = ? AND recorded_at BETWEEN ? AND ?",
		conversationID, start.UnixMicro(), end.UnixMicro(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) All(ctx context.Context, conversationID string) ([]ledger.Entry, error) {
	return s.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = ? ORDER BY id",
		conversationID,
	)
}

func (s *Store) Span(ctx context.Context, conversationID string) (time.Time, time.Time, bool, error) {
	var start, end sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(recorded_at), MAX(recorded_at) FROM entries WHERE conversation_id = ?",
		conversationID,
	).Scan(&start, &end)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to read span: %w", err)
	}
	if !start.Valid || !end.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return time.UnixMicro(start.Int64), time.UnixMicro(end.Int64), true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (ledger.Entry, error) {
	var e ledger.Entry
	var kind string
	var micros int64
	if err := row.Scan(&e.ID, &e.ConversationID, &e.AuthorID, &kind, &e.Amount, &e.Note, &micros); err != nil {
		return ledger.Entry{}, err
	}
	e.Kind = ledger.Kind(kind)
	e.RecordedAt = time.UnixMicro(micros)
	return e, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}
