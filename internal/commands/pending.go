package commands

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultConfirmWindow is how long a delete request waits for its confirmation.
const DefaultConfirmWindow = 2 * time.Minute

type pendingKey struct {
	conversationID string
	authorID       string
}

type pendingDeletion struct {
	entryID   int64
	expiresAt time.Time
}

// ConfirmResult tells the dispatcher how a confirmation attempt ended.
type ConfirmResult int

const (
	ConfirmOK ConfirmResult = iota
	ConfirmNothingPending
	ConfirmExpired
	ConfirmMismatch
)

// PendingDeletions holds delete requests awaiting confirmation, one per
// (conversation, author). A newer request replaces the older one.
//
// A request stays in the cache for two windows: past its own window a
// confirmation is answered as expired, after that the cache evicts it.
type PendingDeletions struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache[pendingKey, pendingDeletion]
	window time.Duration
	now    func() time.Time
}

func NewPendingDeletions(window time.Duration) *PendingDeletions {
	if window <= 0 {
		window = DefaultConfirmWindow
	}
	return &PendingDeletions{
		cache: ttlcache.New[pendingKey, pendingDeletion](
			ttlcache.WithTTL[pendingKey, pendingDeletion](2*window),
			ttlcache.WithDisableTouchOnHit[pendingKey, pendingDeletion](),
		),
		window: window,
		now:    time.Now,
	}
}

func (p *PendingDeletions) Window() time.Duration {
	return p.window
}

// Request remembers entryID for the author and returns when it expires.
func (p *PendingDeletions) Request(conversationID, authorID string, entryID int64) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	expiresAt := p.now().Add(p.window)
	p.cache.Set(pendingKey{conversationID, authorID}, pendingDeletion{entryID: entryID, expiresAt: expiresAt}, ttlcache.DefaultTTL)
	return expiresAt
}

// Confirm checks entryID against the author's pending request. Only
// ConfirmOK and ConfirmExpired clear the request; a mismatch keeps it so the
// author can retry with the right id.
func (p *PendingDeletions) Confirm(conversationID, authorID string, entryID int64) (ConfirmResult, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := pendingKey{conversationID, authorID}
	item := p.cache.Get(key)
	if item == nil {
		return ConfirmNothingPending, 0
	}
	pd := item.Value()
	if p.now().After(pd.expiresAt) {
		p.cache.Delete(key)
		return ConfirmExpired, pd.entryID
	}
	if pd.entryID != entryID {
		return ConfirmMismatch, pd.entryID
	}
	p.cache.Delete(key)
	return ConfirmOK, pd.entryID
}

func (p *PendingDeletions) Len() int {
	return p.cache.Len()
}

// Start runs the cache's expiry loop until Stop is called.
func (p *PendingDeletions) Start() {
	go p.cache.Start()
}

func (p *PendingDeletions) Stop() {
	p.cache.Stop()
}
