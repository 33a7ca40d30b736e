//go:build unit

package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/connectivity"
	"ticketgate/internal/engine/queue"
	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/errs"
	"ticketgate/tests/common/builder"
	"ticketgate/tests/common/fake"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store    *fake.CheckInStore
	cache    *cache.TicketCache
	queue    *queue.OfflineQueue
	conn     *connectivity.Switch
	rec      *reconcile.Reconciler
	retry    chan time.Time
	eventID  uuid.UUID
	deviceID uuid.UUID
	now      time.Time
}

func newHarness(t *testing.T, snaps ...ticket.Snapshot) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	local, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)

	h := &harness{
		store:    fake.NewCheckInStore(snaps...),
		conn:     connectivity.NewSwitch(true),
		retry:    make(chan time.Time, 1),
		eventID:  uuid.New(),
		deviceID: uuid.New(),
		now:      time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC),
	}
	if len(snaps) > 0 {
		h.eventID = snaps[0].EventID
	}
	h.cache = cache.New(h.store, local, h.eventID, clock.NewMockClock(h.now), logger)
	h.queue = queue.New(local, h.deviceID, logger)
	h.rec = reconcile.New(h.store, h.cache, h.queue, h.conn, logger, reconcile.Config{
		CommitTimeout: time.Second,
		BackoffBase:   time.Second,
		BackoffMax:    time.Minute,
		After:         func(time.Duration) <-chan time.Time { return h.retry },
	})
	return h
}

func (h *harness) enqueue(t *testing.T, snap ticket.Snapshot, at time.Time) queue.QueuedCheckIn {
	t.Helper()
	item := queue.QueuedCheckIn{
		IdempotencyKey: snap.ID,
		TicketCode:     snap.Code,
		EventID:        snap.EventID,
		DeviceID:       h.deviceID,
		RequestedAt:    at,
	}
	require.NoError(t, h.queue.Append(context.Background(), item))
	return item
}

func TestReconcilerDrain(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses to drain while offline", func(t *testing.T) {
		h := newHarness(t)
		h.conn.SetOnline(false)

		_, err := h.rec.Drain(ctx)
		require.ErrorIs(t, err, errs.ErrDeviceOffline)
	})

	t.Run("empty queue drains to a zero report", func(t *testing.T) {
		h := newHarness(t)

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Applied)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, 0, report.Remaining)
		assert.False(t, report.Refreshed)
	})

	t.Run("replays queued check-ins with their original scan time", func(t *testing.T) {
		snapA := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		snapB := builder.NewTicketBuilder().WithCode("TKT-BBBB3333").WithEventID(snapA.EventID).BuildSnapshot()
		h := newHarness(t, snapA, snapB)

		scanAt := h.now.Add(-10 * time.Minute)
		h.enqueue(t, snapA, scanAt)
		h.enqueue(t, snapB, scanAt.Add(time.Minute))

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Applied)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, 0, report.Remaining)
		assert.True(t, report.Refreshed)
		assert.Equal(t, 0, h.queue.Len())

		// the stored check-in time is the offline scan time, not replay time
		stored, ok := h.store.Get(snapA.ID)
		require.True(t, ok)
		assert.True(t, stored.Validated)
		require.NotNil(t, stored.CheckedInAt)
		assert.True(t, stored.CheckedInAt.Equal(scanAt))
		require.NotNil(t, stored.CheckedInBy)
		assert.Equal(t, h.deviceID, *stored.CheckedInBy)

		entry, ok := h.cache.Lookup(snapA.Code)
		require.True(t, ok)
		assert.Equal(t, cache.StateAuthoritative, entry.State)
	})

	t.Run("replays a queued paid check-in", func(t *testing.T) {
		snap := builder.NewTicketBuilder().
			WithCode("TKT-AAAA2222").
			WithPaymentStatus(ticket.PaymentPayAtVenue).
			BuildSnapshot()
		h := newHarness(t, snap)

		ref := "cash-0042"
		require.NoError(t, h.queue.Append(ctx, queue.QueuedCheckIn{
			IdempotencyKey: snap.ID,
			TicketCode:     snap.Code,
			EventID:        snap.EventID,
			DeviceID:       h.deviceID,
			RequestedAt:    h.now.Add(-time.Minute),
			PaymentRef:     &ref,
		}))

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Applied)

		stored, _ := h.store.Get(snap.ID)
		assert.True(t, stored.Validated)
		assert.Equal(t, ticket.PaymentPaid, stored.PaymentStatus)
		require.NotNil(t, stored.PaymentRef)
		assert.Equal(t, "cash-0042", *stored.PaymentRef)
	})

	t.Run("a sweep-expired replay resolves without a conflict", func(t *testing.T) {
		snap := builder.NewTicketBuilder().
			WithCode("TKT-AAAA2222").
			WithPaymentStatus(ticket.PaymentPayAtVenue).
			BuildSnapshot()
		h := newHarness(t, snap)

		ref := "cash-0042"
		require.NoError(t, h.queue.Append(ctx, queue.QueuedCheckIn{
			IdempotencyKey: snap.ID,
			TicketCode:     snap.Code,
			EventID:        snap.EventID,
			DeviceID:       h.deviceID,
			RequestedAt:    h.now.Add(-time.Minute),
			PaymentRef:     &ref,
		}))

		// the payment window closed server-side while the device was offline
		swept := snap
		swept.PaymentStatus = ticket.PaymentExpired
		h.store.Put(swept)

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Applied)
		assert.Empty(t, report.Conflicts, "nobody validated the ticket, so there is no winner to report")
		assert.Equal(t, 0, h.queue.Len())

		stored, _ := h.store.Get(snap.ID)
		assert.False(t, stored.Validated)
		assert.Equal(t, ticket.PaymentExpired, stored.PaymentStatus)
	})

	t.Run("a lost race becomes exactly one conflict report", func(t *testing.T) {
		snap := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		h := newHarness(t, snap)

		localAt := h.now.Add(-10 * time.Minute)
		h.enqueue(t, snap, localAt)

		// another device validated the same ticket first
		winnerDevice := uuid.New()
		winnerAt := h.now.Add(-15 * time.Minute)
		_, err := h.store.CommitCheckIn(ctx, snap.ID, winnerAt, winnerDevice)
		require.NoError(t, err)

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Applied)
		require.Len(t, report.Conflicts, 1)

		conflict := report.Conflicts[0]
		assert.Equal(t, snap.Code, conflict.TicketCode)
		assert.Equal(t, h.deviceID, conflict.LocalDeviceID)
		assert.True(t, conflict.LocalRequestedAt.Equal(localAt))
		require.NotNil(t, conflict.WinnerDeviceID)
		assert.Equal(t, winnerDevice, *conflict.WinnerDeviceID)
		require.NotNil(t, conflict.WinnerCheckedInAt)
		assert.True(t, conflict.WinnerCheckedInAt.Equal(winnerAt))

		// the conflict is resolved, not retried
		assert.Equal(t, 0, h.queue.Len())

		// the winner's record stands in the store and in the cache
		stored, _ := h.store.Get(snap.ID)
		assert.True(t, stored.CheckedInAt.Equal(winnerAt))
		entry, _ := h.cache.Lookup(snap.Code)
		assert.Equal(t, winnerDevice, *entry.Ticket.CheckedInBy)
	})

	t.Run("two offline devices yield exactly one conflict in either drain order", func(t *testing.T) {
		type device struct {
			id  uuid.UUID
			q   *queue.OfflineQueue
			rec *reconcile.Reconciler
		}

		for _, firstDrainer := range []int{0, 1} {
			snap := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			store := fake.NewCheckInStore(snap)
			conn := connectivity.NewSwitch(true)
			now := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

			newDevice := func(scanAt time.Time) *device {
				local, err := kv.NewFileStore(t.TempDir())
				require.NoError(t, err)
				d := &device{id: uuid.New()}
				c := cache.New(store, local, snap.EventID, clock.NewMockClock(now), logger)
				d.q = queue.New(local, d.id, logger)
				require.NoError(t, d.q.Append(ctx, queue.QueuedCheckIn{
					IdempotencyKey: snap.ID,
					TicketCode:     snap.Code,
					EventID:        snap.EventID,
					DeviceID:       d.id,
					RequestedAt:    scanAt,
				}))
				d.rec = reconcile.New(store, c, d.q, conn, logger, reconcile.Config{
					CommitTimeout: time.Second,
					BackoffBase:   time.Second,
					BackoffMax:    time.Minute,
				})
				return d
			}

			devices := []*device{
				newDevice(now.Add(-10 * time.Minute)),
				newDevice(now.Add(-5 * time.Minute)),
			}
			order := []*device{devices[firstDrainer], devices[1-firstDrainer]}

			conflicts := 0
			for _, d := range order {
				report, err := d.rec.Drain(ctx)
				require.NoError(t, err)
				conflicts += len(report.Conflicts)
				assert.Equal(t, 0, report.Remaining)
			}
			assert.Equal(t, 1, conflicts)
			assert.Equal(t, 0, devices[0].q.Len())
			assert.Equal(t, 0, devices[1].q.Len())

			// whoever replayed first holds the recorded validation
			stored, _ := store.Get(snap.ID)
			require.NotNil(t, stored.CheckedInBy)
			assert.Equal(t, order[0].id, *stored.CheckedInBy)
			assert.Equal(t, 1, store.Commits())
		}
	})

	t.Run("replaying an already applied commit is a no-op, not a conflict", func(t *testing.T) {
		snap := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		h := newHarness(t, snap)

		scanAt := h.now.Add(-10 * time.Minute)
		h.enqueue(t, snap, scanAt)

		// a previous drain landed the commit but crashed before dequeueing
		_, err := h.store.CommitCheckIn(ctx, snap.ID, scanAt, h.deviceID)
		require.NoError(t, err)

		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Applied)
		assert.Empty(t, report.Conflicts)
		assert.Equal(t, 0, h.queue.Len())
		assert.Equal(t, 1, h.store.Commits())
	})

	t.Run("transient failure stops the pass with the remainder intact", func(t *testing.T) {
		snapA := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		snapB := builder.NewTicketBuilder().WithCode("TKT-BBBB3333").WithEventID(snapA.EventID).BuildSnapshot()
		h := newHarness(t, snapA, snapB)

		h.enqueue(t, snapA, h.now.Add(-2*time.Minute))
		h.enqueue(t, snapB, h.now.Add(-time.Minute))

		h.store.FailNext(1)
		report, err := h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Applied)
		assert.Equal(t, 2, report.Remaining)
		assert.False(t, report.Refreshed)

		items := h.queue.Items()
		require.Len(t, items, 2)
		assert.Equal(t, 1, items[0].Attempts)
		assert.Equal(t, 0, items[1].Attempts)

		// the next drain clears the backlog
		report, err = h.rec.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Applied)
		assert.Equal(t, 0, h.queue.Len())
	})

	t.Run("run drains when connectivity returns", func(t *testing.T) {
		snap := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		h := newHarness(t, snap)
		h.conn.SetOnline(false)

		h.enqueue(t, snap, h.now.Add(-time.Minute))

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			h.rec.Run(runCtx)
		}()

		h.conn.SetOnline(true)

		require.Eventually(t, func() bool {
			return h.queue.Len() == 0
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		<-done

		stored, _ := h.store.Get(snap.ID)
		assert.True(t, stored.Validated)
	})

	t.Run("run retries on the injected backoff schedule", func(t *testing.T) {
		snap := builder.NewTicketBuilder().WithCode("TKT-AAAA2222").BuildSnapshot()
		h := newHarness(t, snap)

		h.enqueue(t, snap, h.now.Add(-time.Minute))
		h.store.FailNext(1)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			h.rec.Run(runCtx)
		}()

		// the initial drain stalls on the transient failure
		require.Eventually(t, func() bool {
			items := h.queue.Items()
			return len(items) == 1 && items[0].Attempts == 1
		}, 2*time.Second, 10*time.Millisecond)

		// firing the schedule drains the backlog; no wall-clock backoff runs
		h.retry <- time.Time{}
		require.Eventually(t, func() bool {
			return h.queue.Len() == 0
		}, 2*time.Second, 10*time.Millisecond)

		cancel()
		<-done

		stored, _ := h.store.Get(snap.ID)
		assert.True(t, stored.Validated)
	})
}
