package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/susu3304/kongklang/internal/ledger"
)

const entryColumns = "id, conversation_id, author_id, kind, amount, note, recorded_at"

func (db *DB) Insert(ctx context.Context, e *ledger.Entry) error {
	return db.pool.QueryRow(ctx,
		`INSERT INTO entries (conversation_id, author_id, kind, amount, note, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		e.ConversationID, e.AuthorID, string(e.Kind), e.Amount, e.Note, e.RecordedAt,
	).Scan(&e.ID)
}

func (db *DB) Get(ctx context.Context, conversationID string, id int64) (*ledger.Entry, error) {
	var e ledger.Entry
	err := db.pool.QueryRow(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = $1 AND id = $2",
		conversationID, id,
	).Scan(&e.ID, &e.ConversationID, &e.AuthorID, &e.Kind, &e.Amount, &e.Note, &e.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (db *DB) Delete(ctx context.Context, conversationID string, id int64) (bool, error) {
	result, err := db.pool.Exec(ctx,
		"DELETE FROM entries WHERE conversation_id = $1 AND id = $2",
		conversationID, id,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (db *DB) Range(ctx context.Context, conversationID string, start, end time.Time) ([]ledger.Entry, error) {
	return db.query(ctx,
		"SELECT "+entryColumns+` FROM entries
		 WHERE conversation_id = $1 AND recorded_at BETWEEN $2 AND $3
		 ORDER BY recorded_at, id`,
		conversationID, start, end,
	)
}

func (db *DB) Recent(ctx context.Context, conversationID string, limit int) ([]ledger.Entry, error) {
	return db.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = $1 ORDER BY id DESC LIMIT $2",
		conversationID, limit,
	)
}

func (db *DB) DeleteRange(ctx context.Context, conversationID string, start, end time.Time) (int64, error) {
	result, err := db.pool.Exec(ctx,
		"DELETE FROM entries WHERE conversation_id = $1 AND recorded_at BETWEEN $2 AND $3",
		conversationID, start, end,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (db *DB) All(ctx context.Context, conversationID string) ([]ledger.Entry, error) {
	return db.query(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE conversation_id = $1 ORDER BY id",
		conversationID,
	)
}

func (db *DB) Span(ctx context.Context, conversationID string) (time.Time, time.Time, bool, error) {
	var start, end *time.Time
	err := db.pool.QueryRow(ctx,
		"SELECT MIN(recorded_at), MAX(recorded_at) FROM entries WHERE conversation_id = $1",
		conversationID,
	).Scan(&start, &end)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if start == nil || end == nil {
		return time.Time{}, time.Time{}, false, nil
	}
	return *start, *end, true, nil
}

func (db *DB) query(ctx context.Context, sql string, args ...any) ([]ledger.Entry, error) {
	rows, err := db.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.AuthorID, &e.Kind, &e.Amount, &e.Note, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
