// Package queue is the durable, per-device log of check-ins performed
// without connectivity. Entries are appended by the scan command and removed
// by the reconciler once the authoritative store gives a definitive answer.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
)

// QueuedCheckIn is one offline commit awaiting replay. IdempotencyKey is the
// ticket ID: replaying the same key against the store's conditional update
// is a safe no-op, never a double effect. PaymentRef is set when the queued
// commit also settles a pay-at-venue payment.
type QueuedCheckIn struct {
	IdempotencyKey uuid.UUID  `json:"idempotency_key"`
	TicketCode     string     `json:"ticket_code"`
	EventID        uuid.UUID  `json:"event_id"`
	DeviceID       uuid.UUID  `json:"device_id"`
	RequestedAt    time.Time  `json:"requested_at"`
	PaymentRef     *string    `json:"payment_ref,omitempty"`
	Attempts       int        `json:"attempts"`
}

// OfflineQueue preserves this device's own scan order: replay is strictly
// FIFO. The queue is private per device, so entries race only against the
// store, never against each other.
type OfflineQueue struct {
	mu    sync.Mutex
	items []QueuedCheckIn

	local  kv.Store
	key    string
	logger *slog.Logger
}

func New(local kv.Store, deviceID uuid.UUID, logger *slog.Logger) *OfflineQueue {
	q := &OfflineQueue{
		local:  local,
		key:    "offline-queue-" + deviceID.String(),
		logger: logger,
	}
	q.restore()
	return q
}

// Append adds a queued check-in. A second entry for the same ticket is
// rejected; the optimistic cache normally prevents this, the queue guards
// the invariant regardless.
func (q *OfflineQueue) Append(ctx context.Context, item QueuedCheckIn) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, existing := range q.items {
		if existing.IdempotencyKey == item.IdempotencyKey {
			return errs.ErrDuplicateQueueEntry
		}
	}
	q.items = append(q.items, item)
	if err := q.persistLocked(ctx); err != nil {
		// Keep memory and disk in agreement: an entry that was never made
		// durable must not look queued to the reconciler.
		q.items = q.items[:len(q.items)-1]
		return err
	}
	return nil
}

// Items returns a copy of the queue in FIFO order.
func (q *OfflineQueue) Items() []QueuedCheckIn {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]QueuedCheckIn, len(q.items))
	copy(out, q.items)
	return out
}

func (q *OfflineQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remove deletes the entry for a ticket after a definitive server response.
func (q *OfflineQueue) Remove(ctx context.Context, idempotencyKey uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item.IdempotencyKey == idempotencyKey {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return q.persistLocked(ctx)
		}
	}
	return nil
}

// MarkAttempt bumps the retry counter after a transient replay failure. The
// entry stays queued.
func (q *OfflineQueue) MarkAttempt(ctx context.Context, idempotencyKey uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].IdempotencyKey == idempotencyKey {
			q.items[i].Attempts++
			return q.persistLocked(ctx)
		}
	}
	return nil
}

func (q *OfflineQueue) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(q.items)
	if err != nil {
		return errs.Wrap(err, "failed to marshal offline queue")
	}
	if err := q.local.Save(ctx, q.key, data); err != nil {
		// The queue is the durability guarantee for offline scans; unlike
		// the cache a persistence failure here must reach the caller.
		return errs.Wrap(err, "failed to persist offline queue")
	}
	return nil
}

func (q *OfflineQueue) restore() {
	data, err := q.local.Load(context.Background(), q.key)
	if err != nil {
		if err != kv.ErrKeyNotFound {
			q.logger.Warn("failed to restore offline queue", "error", err)
		}
		return
	}
	var items []QueuedCheckIn
	if err := json.Unmarshal(data, &items); err != nil {
		q.logger.Error("discarding corrupt offline queue snapshot", "error", err)
		return
	}
	q.items = items
	if len(items) > 0 {
		q.logger.Info("offline queue restored", "pending", len(items))
	}
}
