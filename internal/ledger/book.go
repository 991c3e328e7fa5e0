package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultPublishTimeout bounds each event publish so a slow broker cannot
// hold up the command that caused it.
const DefaultPublishTimeout = 2 * time.Second

// Book is the ledger service used by the chat adapters and the admin API.
// It owns the clock and the location all calendar ranges are computed in.
type Book struct {
	store     Store
	loc       *time.Location
	now       func() time.Time
	publisher Publisher

	publishTimeout time.Duration
}

type Option func(*Book)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(b *Book) {
		if p != nil {
			b.publisher = p
		}
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(b *Book) {
		if d > 0 {
			b.publishTimeout = d
		}
	}
}

func NewBook(store Store, loc *time.Location, opts ...Option) *Book {
	if loc == nil {
		loc = time.Local
	}
	b := &Book{
		store:     store,
		loc:       loc,
		now:       time.Now,
		publisher: nopPublisher{},

		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Now returns the current time in the book's location.
func (b *Book) Now() time.Time {
	return b.now().In(b.loc)
}

func (b *Book) Location() *time.Location {
	return b.loc
}

// Record validates and stores a new entry.
func (b *Book) Record(ctx context.Context, conversationID, authorID string, kind Kind, amount int64, note string) (*Entry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrValidation, amount)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrValidation, kind)
	}
	e := &Entry{
		ConversationID: conversationID,
		AuthorID:       authorID,
		Kind:           kind,
		Amount:         amount,
		Note:           strings.TrimSpace(note),
		RecordedAt:     b.Now(),
	}
	if err := b.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	b.publish(ctx, Event{Type: EventEntryRecorded, ConversationID: conversationID, Entry: e, EntryID: e.ID})
	return e, nil
}

// Get returns ErrNotFound for ids outside the conversation.
func (b *Book) Get(ctx context.Context, conversationID string, id int64) (*Entry, error) {
	return b.store.Get(ctx, conversationID, id)
}

// Delete removes one entry; deleting a missing id reports false without error.
func (b *Book) Delete(ctx context.Context, conversationID string, id int64) (bool, error) {
	ok, err := b.store.Delete(ctx, conversationID, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry %d: %w", id, err)
	}
	if ok {
		b.publish(ctx, Event{Type: EventEntryDeleted, ConversationID: conversationID, EntryID: id})
	}
	return ok, nil
}

// Resolve turns a scope into a range. ScopeAll uses the oldest and newest
// entry of the conversation; ok is false when the conversation is empty.
func (b *Book) Resolve(ctx context.Context, conversationID string, s Scope) (Range, bool, error) {
	if r, ok := Resolve(s, b.Now()); ok {
		return r, true, nil
	}
	start, end, ok, err := b.store.Span(ctx, conversationID)
	if err != nil {
		return Range{}, false, fmt.Errorf("failed to read span: %w", err)
	}
	return Range{Start: start, End: end}, ok, nil
}

// Entries lists the entries of a scope, oldest first.
func (b *Book) Entries(ctx context.Context, conversationID string, s Scope) ([]Entry, error) {
	r, ok, err := b.Resolve(ctx, conversationID, s)
	if err != nil || !ok {
		return nil, err
	}
	entries, err := b.store.Range(ctx, conversationID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	return entries, nil
}

// Summarize aggregates the entries of a scope.
func (b *Book) Summarize(ctx context.Context, conversationID string, s Scope) (Summary, error) {
	entries, err := b.Entries(ctx, conversationID, s)
	if err != nil {
		return Summary{}, err
	}
	return Aggregate(entries), nil
}

// Recent returns the newest entries, newest first.
func (b *Book) Recent(ctx context.Context, conversationID string, limit int) ([]Entry, error) {
	entries, err := b.store.Recent(ctx, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent entries: %w", err)
	}
	return entries, nil
}

// DeleteMonth removes every entry of a calendar month and returns how many went.
func (b *Book) DeleteMonth(ctx context.Context, conversationID string, year int, month time.Month) (int64, error) {
	r := MonthRange(year, month, b.loc)
	n, err := b.store.DeleteRange(ctx, conversationID, r.Start, r.End)
	if err != nil {
		return 0, fmt.Errorf("failed to delete month %04d-%02d: %w", year, int(month), err)
	}
	if n > 0 {
		b.publish(ctx, Event{Type: EventEntriesReset, ConversationID: conversationID, Count: n})
	}
	return n, nil
}

// ResetCurrentMonth deletes the entries of the month that contains now.
func (b *Book) ResetCurrentMonth(ctx context.Context, conversationID string) (int64, error) {
	now := b.Now()
	return b.DeleteMonth(ctx, conversationID, now.Year(), now.Month())
}

// Export returns every entry of the conversation ordered by id.
func (b *Book) Export(ctx context.Context, conversationID string) ([]Entry, error) {
	entries, err := b.store.All(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to export entries: %w", err)
	}
	return entries, nil
}

func (b *Book) publish(ctx context.Context, ev Event) {
	ev.At = b.Now()
	ctx, cancel := context.WithTimeout(ctx, b.publishTimeout)
	defer cancel()
	if err := b.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("failed to publish ledger event", "type", ev.Type, "conversation_id", ev.ConversationID, "error", err)
	}
}
