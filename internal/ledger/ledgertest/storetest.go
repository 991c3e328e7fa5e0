// Package ledgertest holds the behaviour every ledger.Store implementation must share.
package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/kongklang/internal/ledger"
)

// RunStoreTests exercises a Store. newStore must return an empty store.
// Conversation ids are randomised per run so a shared database can be reused.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	conv := func(t *testing.T) string { return fmt.Sprintf("C-%s-%d", t.Name(), time.Now().UnixNano()) }

	insert := func(t *testing.T, s ledger.Store, c string, kind ledger.Kind, amount int64, note string, at time.Time) ledger.Entry {
		t.Helper()
		e := ledger.Entry{ConversationID: c, AuthorID: "U1", Kind: kind, Amount: amount, Note: note, RecordedAt: at}
		require.NoError(t, s.Insert(ctx, &e))
		require.NotZero(t, e.ID)
		return e
	}

	t.Run("Insert assigns increasing ids and Get reads back", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		a := insert(t, s, c, ledger.KindCenter, 100, "water", base)
		b := insert(t, s, c, ledger.KindAdvance, 40, "", base.Add(time.Minute))
		assert.Greater(t, b.ID, a.ID)

		got, err := s.Get(ctx, c, a.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.KindCenter, got.Kind)
		assert.Equal(t, int64(100), got.Amount)
		assert.Equal(t, "water", got.Note)
		assert.True(t, base.Equal(got.RecordedAt))

		got, err = s.Get(ctx, c, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "", got.Note)
	})

	t.Run("Get is scoped to the conversation", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		e := insert(t, s, c, ledger.KindCenter, 1, "", base)

		_, err := s.Get(ctx, c+"-other", e.ID)
		assert.True(t, errors.Is(err, ledger.ErrNotFound))
	})

	t.Run("Delete twice reports false the second time", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		e := insert(t, s, c, ledger.KindCenter, 1, "", base)

		ok, err := s.Delete(ctx, c+"-other", e.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.Delete(ctx, c, e.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Delete(ctx, c, e.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Range is inclusive and ordered", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		insert(t, s, c, ledger.KindCenter, 3, "late", base.Add(2*time.Hour))
		insert(t, s, c, ledger.KindCenter, 1, "start", base)
		insert(t, s, c, ledger.KindCenter, 2, "outside", base.Add(-time.Second))

		got, err := s.Range(ctx, c, base, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "start", got[0].Note)
		assert.Equal(t, "late", got[1].Note)
	})

	t.Run("Recent returns newest first with limit", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		for i := 1; i <= 4; i++ {
			insert(t, s, c, ledger.KindAdvance, int64(i), "", base.Add(time.Duration(i)*time.Minute))
		}

		got, err := s.Recent(ctx, c, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(4), got[0].Amount)
		assert.Equal(t, int64(3), got[1].Amount)
	})

	t.Run("DeleteRange counts removed rows", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)
		insert(t, s, c, ledger.KindCenter, 1, "", base)
		insert(t, s, c, ledger.KindCenter, 2, "", base.Add(time.Hour))
		insert(t, s, c, ledger.KindCenter, 3, "", base.Add(48*time.Hour))

		n, err := s.DeleteRange(ctx, c, base, base.Add(24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		all, err := s.All(ctx, c)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, int64(3), all[0].Amount)
	})

	t.Run("All orders by id and Span covers the data", func(t *testing.T) {
		s := newStore(t)
		c := conv(t)

		_, _, ok, err := s.Span(ctx, c)
		require.NoError(t, err)
		assert.False(t, ok)

		first := insert(t, s, c, ledger.KindCenter, 1, "", base.Add(time.Hour))
		second := insert(t, s, c, ledger.KindAdvance, 2, "", base)

		all, err := s.All(ctx, c)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, first.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)

		start, end, ok, err := s.Span(ctx, c)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, base.Equal(start))
		assert.True(t, base.Add(time.Hour).Equal(end))
	})
}
