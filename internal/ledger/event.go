package ledger

import (
	"context"
	"time"
)

const (
	EventEntryRecorded = "entry.recorded"
	EventEntryDeleted  = "entry.deleted"
	EventEntriesReset  = "entries.reset"
)

// Event describes a change to a conversation's ledger.
type Event struct {
	Type           string    `json:"type"`
	ConversationID string    `json:"conversation_id"`
	Entry          *Entry    `json:"entry,omitempty"`
	EntryID        int64     `json:"entry_id,omitempty"`
	Count          int64     `json:"count,omitempty"`
	At             time.Time `json:"at"`
}

// Publisher fans ledger changes out to other systems.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
