//go:build unit

package queue_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ticketgate/internal/engine/queue"
	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/errs"
	"ticketgate/tests/common/fake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFileStore(t *testing.T) kv.Store {
	t.Helper()
	store, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newItem(code string) queue.QueuedCheckIn {
	return queue.QueuedCheckIn{
		IdempotencyKey: uuid.New(),
		TicketCode:     code,
		EventID:        uuid.New(),
		DeviceID:       uuid.New(),
		RequestedAt:    time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC),
	}
}

func TestOfflineQueue(t *testing.T) {
	ctx := context.Background()
	deviceID := uuid.New()

	t.Run("append preserves scan order", func(t *testing.T) {
		q := queue.New(newFileStore(t), deviceID, discardLogger())

		first := newItem("TKT-AAAA2222")
		second := newItem("TKT-BBBB3333")
		third := newItem("TKT-CCCC4444")
		require.NoError(t, q.Append(ctx, first))
		require.NoError(t, q.Append(ctx, second))
		require.NoError(t, q.Append(ctx, third))

		items := q.Items()
		require.Len(t, items, 3)
		assert.Equal(t, first.IdempotencyKey, items[0].IdempotencyKey)
		assert.Equal(t, second.IdempotencyKey, items[1].IdempotencyKey)
		assert.Equal(t, third.IdempotencyKey, items[2].IdempotencyKey)
	})

	t.Run("rejects a second entry for the same ticket", func(t *testing.T) {
		q := queue.New(newFileStore(t), deviceID, discardLogger())

		item := newItem("TKT-AAAA2222")
		require.NoError(t, q.Append(ctx, item))

		dup := item
		dup.RequestedAt = item.RequestedAt.Add(time.Minute)
		require.ErrorIs(t, q.Append(ctx, dup), errs.ErrDuplicateQueueEntry)
		assert.Equal(t, 1, q.Len())
	})

	t.Run("remove is keyed and order-preserving", func(t *testing.T) {
		q := queue.New(newFileStore(t), deviceID, discardLogger())

		first := newItem("TKT-AAAA2222")
		second := newItem("TKT-BBBB3333")
		require.NoError(t, q.Append(ctx, first))
		require.NoError(t, q.Append(ctx, second))

		require.NoError(t, q.Remove(ctx, first.IdempotencyKey))
		items := q.Items()
		require.Len(t, items, 1)
		assert.Equal(t, second.IdempotencyKey, items[0].IdempotencyKey)

		// removing an unknown key is a no-op
		require.NoError(t, q.Remove(ctx, uuid.New()))
		assert.Equal(t, 1, q.Len())
	})

	t.Run("mark attempt bumps the retry counter in place", func(t *testing.T) {
		q := queue.New(newFileStore(t), deviceID, discardLogger())

		item := newItem("TKT-AAAA2222")
		require.NoError(t, q.Append(ctx, item))
		require.NoError(t, q.MarkAttempt(ctx, item.IdempotencyKey))
		require.NoError(t, q.MarkAttempt(ctx, item.IdempotencyKey))

		items := q.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Attempts)
	})

	t.Run("items returns a copy", func(t *testing.T) {
		q := queue.New(newFileStore(t), deviceID, discardLogger())
		require.NoError(t, q.Append(ctx, newItem("TKT-AAAA2222")))

		items := q.Items()
		items[0].TicketCode = "TKT-MUTATED2"
		assert.Equal(t, "TKT-AAAA2222", q.Items()[0].TicketCode)
	})

	t.Run("a failed persist rolls the append back", func(t *testing.T) {
		local := fake.NewKVStore(newFileStore(t))
		q := queue.New(local, deviceID, discardLogger())

		item := newItem("TKT-AAAA2222")
		local.Break("offline-queue")
		require.Error(t, q.Append(ctx, item))
		assert.Equal(t, 0, q.Len())

		// the same item can be queued once persistence recovers
		local.Break("")
		require.NoError(t, q.Append(ctx, item))
		assert.Equal(t, 1, q.Len())

		restarted := queue.New(local, deviceID, discardLogger())
		assert.Equal(t, 1, restarted.Len())
	})

	t.Run("survives a restart through the local store", func(t *testing.T) {
		local := newFileStore(t)
		q := queue.New(local, deviceID, discardLogger())

		first := newItem("TKT-AAAA2222")
		second := newItem("TKT-BBBB3333")
		require.NoError(t, q.Append(ctx, first))
		require.NoError(t, q.Append(ctx, second))

		restarted := queue.New(local, deviceID, discardLogger())
		items := restarted.Items()
		require.Len(t, items, 2)
		assert.Equal(t, first.IdempotencyKey, items[0].IdempotencyKey)
		assert.Equal(t, second.IdempotencyKey, items[1].IdempotencyKey)
		assert.True(t, items[0].RequestedAt.Equal(first.RequestedAt))
	})

	t.Run("queues are private per device", func(t *testing.T) {
		local := newFileStore(t)
		q := queue.New(local, deviceID, discardLogger())
		require.NoError(t, q.Append(ctx, newItem("TKT-AAAA2222")))

		other := queue.New(local, uuid.New(), discardLogger())
		assert.Equal(t, 0, other.Len())
	})
}
