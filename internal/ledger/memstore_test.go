package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store for the package tests.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []Entry
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) Insert(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextID
	m.nextID++
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) Get(_ context.Context, conv string, id int64) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ConversationID == conv && e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Delete(_ context.Context, conv string, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ConversationID == conv && e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) filter(conv string, keep func(Entry) bool) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.ConversationID == conv && keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) Range(_ context.Context, conv string, start, end time.Time) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := Range{Start: start, End: end}
	return m.filter(conv, func(e Entry) bool { return r.Contains(e.RecordedAt) }), nil
}

func (m *memStore) Recent(_ context.Context, conv string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.filter(conv, func(Entry) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteRange(_ context.Context, conv string, start, end time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := Range{Start: start, End: end}
	var kept []Entry
	var n int64
	for _, e := range m.entries {
		if e.ConversationID == conv && r.Contains(e.RecordedAt) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func (m *memStore) All(_ context.Context, conv string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(conv, func(Entry) bool { return true }), nil
}

func (m *memStore) Span(_ context.Context, conv string) (time.Time, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var start, end time.Time
	found := false
	for _, e := range m.filter(conv, func(Entry) bool { return true }) {
		if !found || e.RecordedAt.Before(start) {
			start = e.RecordedAt
		}
		if !found || e.RecordedAt.After(end) {
			end = e.RecordedAt
		}
		found = true
	}
	return start, end, found, nil
}

func (m *memStore) Close() error { return nil }
