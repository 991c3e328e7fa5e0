package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPending(now *time.Time) *PendingDeletions {
	p := NewPendingDeletions(2 * time.Minute)
	p.now = func() time.Time { return *now }
	return p
}

func TestPendingConfirm(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := newTestPending(&now)

	res, _ := p.Confirm("C1", "U1", 5)
	assert.Equal(t, ConfirmNothingPending, res)

	p.Request("C1", "U1", 5)

	res, id := p.Confirm("C1", "U1", 7)
	assert.Equal(t, ConfirmMismatch, res)
	assert.Equal(t, int64(5), id)

	// Another author in the same conversation has nothing pending.
	res, _ = p.Confirm("C1", "U2", 5)
	assert.Equal(t, ConfirmNothingPending, res)

	res, id = p.Confirm("C1", "U1", 5)
	assert.Equal(t, ConfirmOK, res)
	assert.Equal(t, int64(5), id)

	res, _ = p.Confirm("C1", "U1", 5)
	assert.Equal(t, ConfirmNothingPending, res)
}

func TestPendingLastRequestWins(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := newTestPending(&now)

	p.Request("C1", "U1", 5)
	p.Request("C1", "U1", 6)

	res, id := p.Confirm("C1", "U1", 5)
	assert.Equal(t, ConfirmMismatch, res)
	assert.Equal(t, int64(6), id)
}

func TestPendingExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	p := newTestPending(&now)

	expires := p.Request("C1", "U1", 5)
	assert.Equal(t, now.Add(2*time.Minute), expires)

	now = now.Add(2*time.Minute + time.Second)
	res, id := p.Confirm("C1", "U1", 5)
	assert.Equal(t, ConfirmExpired, res)
	assert.Equal(t, int64(5), id)
	assert.Equal(t, 0, p.Len())
}

func TestPendingEvictedAfterTwoWindows(t *testing.T) {
	p := NewPendingDeletions(20 * time.Millisecond)
	p.Request("C1", "U1", 1)

	item := p.cache.Get(pendingKey{"C1", "U1"})
	require.NotNil(t, item)
	assert.Equal(t, 40*time.Millisecond, item.TTL())
	assert.Equal(t, 1, p.Len())

	p.Start()
	defer p.Stop()
	assert.Eventually(t, func() bool { return p.Len() == 0 }, time.Second, 5*time.Millisecond)

	res, _ := p.Confirm("C1", "U1", 1)
	assert.Equal(t, ConfirmNothingPending, res)
}

func TestPendingStartStop(t *testing.T) {
	p := NewPendingDeletions(0)
	assert.Equal(t, DefaultConfirmWindow, p.Window())
	p.Start()
	p.Stop()
}
