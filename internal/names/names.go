// Package names turns chat user ids into display names.
package names

import (
	"context"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	DefaultTTL           = 6 * time.Hour
	DefaultFailureTTL    = time.Minute
	DefaultLookupTimeout = 3 * time.Second
	DefaultCapacity      = 10000

	fallbackLen = 6
)

type SourceType string

const (
	SourceUser  SourceType = "user"
	SourceGroup SourceType = "group"
	SourceRoom  SourceType = "room"
)

// Source is where a message came from; it decides which profile lookup applies.
type Source struct {
	Type    SourceType
	GroupID string
	RoomID  string
	UserID  string
}

// ProfileLookup fetches a display name from the chat platform.
type ProfileLookup interface {
	GroupMemberName(ctx context.Context, groupID, userID string) (string, error)
	RoomMemberName(ctx context.Context, roomID, userID string) (string, error)
	ProfileName(ctx context.Context, userID string) (string, error)
}

// Resolver is a read-through cache over a ProfileLookup. Successful lookups
// are kept for ttl. Failed lookups fall back to a prefix of the user id and
// are kept only for failureTTL, so the real name is retried soon after.
// Hits do not extend an entry's lifetime.
type Resolver struct {
	lookup     ProfileLookup
	ttl        time.Duration
	failureTTL time.Duration
	timeout    time.Duration
	capacity   uint64
	observe    func(result string)

	cache *ttlcache.Cache[string, string]
}

type Option func(*Resolver)

func WithTTL(ttl, failureTTL time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
		if failureTTL > 0 {
			r.failureTTL = failureTTL
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCapacity bounds the number of cached names; the least recently used go first.
func WithCapacity(n uint64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithObserver is called with "hit", "lookup" or "fallback" for every Resolve.
func WithObserver(fn func(result string)) Option {
	return func(r *Resolver) { r.observe = fn }
}

// NewResolver accepts a nil lookup; every name then falls back to the id prefix.
func NewResolver(lookup ProfileLookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:     lookup,
		ttl:        DefaultTTL,
		failureTTL: DefaultFailureTTL,
		timeout:    DefaultLookupTimeout,
		capacity:   DefaultCapacity,
		observe:    func(string) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache = ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](r.ttl),
		ttlcache.WithCapacity[string, string](r.capacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	return r
}

// Resolve never fails: lookup errors collapse to Fallback(userID).
func (r *Resolver) Resolve(ctx context.Context, src Source, userID string) string {
	if name, ok := r.Cached(userID); ok {
		r.observe("hit")
		return name
	}

	name, err := r.fetch(ctx, src, userID)
	if err != nil || name == "" {
		if err != nil {
			slog.Debug("display name lookup failed", "user_id", userID, "source", src.Type, "error", err)
		}
		r.observe("fallback")
		name = Fallback(userID)
		r.cache.Set(userID, name, r.failureTTL)
		return name
	}

	r.observe("lookup")
	r.cache.Set(userID, name, ttlcache.DefaultTTL)
	return name
}

// Cached returns a live cache entry without calling the platform.
func (r *Resolver) Cached(userID string) (string, bool) {
	item := r.cache.Get(userID)
	if item == nil {
		return "", false
	}
	return item.Value(), true
}

func (r *Resolver) fetch(ctx context.Context, src Source, userID string) (string, error) {
	if r.lookup == nil || userID == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	switch {
	case src.Type == SourceGroup && src.GroupID != "":
		return r.lookup.GroupMemberName(ctx, src.GroupID, userID)
	case src.Type == SourceRoom && src.RoomID != "":
		return r.lookup.RoomMemberName(ctx, src.RoomID, userID)
	default:
		return r.lookup.ProfileName(ctx, userID)
	}
}

// Fallback is the first six characters of the id.
func Fallback(userID string) string {
	runes := []rune(userID)
	if len(runes) > fallbackLen {
		runes = runes[:fallbackLen]
	}
	return string(runes)
}
