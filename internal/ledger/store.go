package ledger

import (
	"context"
	"time"
)

// Store persists entries. Every query is scoped to one conversation.
type Store interface {
	// Insert writes e and sets e.ID. e.RecordedAt must already be set.
	Insert(ctx context.Context, e *Entry) error

	// Get returns ErrNotFound when the id is absent from the conversation.
	Get(ctx context.Context, conversationID string, id int64) (*Entry, error)

	// Delete removes at most one row and reports whether one was removed.
	Delete(ctx context.Context, conversationID string, id int64) (bool, error)

	// Range returns entries with start <= recorded_at <= end, oldest first.
	Range(ctx context.Context, conversationID string, start, end time.Time) ([]Entry, error)

	// Recent returns the newest entries by id, newest first.
	Recent(ctx context.Context, conversationID string, limit int) ([]Entry, error)

	// DeleteRange removes entries with start <= recorded_at <= end.
	DeleteRange(ctx context.Context, conversationID string, start, end time.Time) (int64, error)

	// All returns every entry ordered by id.
	All(ctx context.Context, conversationID string) ([]Entry, error)

	// Span returns the oldest and newest recorded_at; ok is false when there are no entries.
	Span(ctx context.Context, conversationID string) (start, end time.Time, ok bool, err error)

	Close() error
}
