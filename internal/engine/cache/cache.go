// Package cache holds the device-local replica of the event's tickets. It
// is read-mostly, survives restarts through the kv store, and is always
// safe to discard and reload from the authoritative store.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
)

// EntryState distinguishes a locally recorded, not yet confirmed mutation
// from server-confirmed truth. The two are never conflated: reconcile always
// overwrites provisional state with the authoritative record.
type EntryState string

const (
	StateAuthoritative EntryState = "authoritative"
	StateProvisional   EntryState = "provisional"
)

type Entry struct {
	Ticket ticket.Snapshot `json:"ticket"`
	State  EntryState      `json:"state"`
}

// ForeignValidation reports that a ticket this device validated offline
// turns out to have been validated first by another device.
type ForeignValidation struct {
	Code              string
	WinnerDeviceID    *uuid.UUID
	WinnerCheckedInAt *time.Time
}

// BulkSource is the slice of the check-in store the cache needs for a full
// refresh.
type BulkSource interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]ticket.Snapshot, error)
}

type TicketCache struct {
	mu              sync.RWMutex
	entries         map[string]Entry
	lastRefreshedAt time.Time

	eventID uuid.UUID
	source  BulkSource
	local   kv.Store
	key     string
	clock   clock.Clock
	logger  *slog.Logger
}

func New(source BulkSource, local kv.Store, eventID uuid.UUID, clk clock.Clock, logger *slog.Logger) *TicketCache {
	c := &TicketCache{
		entries: make(map[string]Entry),
		eventID: eventID,
		source:  source,
		local:   local,
		key:     "ticket-cache-" + eventID.String(),
		clock:   clk,
		logger:  logger,
	}
	c.restore()
	return c
}

// Load replaces the whole cache from the authoritative store and persists
// the new snapshot. Every entry becomes authoritative.
func (c *TicketCache) Load(ctx context.Context) error {
	records, err := c.source.ListByEvent(ctx, c.eventID)
	if err != nil {
		return errs.Wrapf(err, "failed to load tickets for event %s", c.eventID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry, len(records))
	for _, rec := range records {
		c.entries[rec.Code] = Entry{Ticket: rec, State: StateAuthoritative}
	}
	c.lastRefreshedAt = c.clock.Now()
	c.persistLocked(ctx)

	c.logger.Info("ticket cache loaded", "event_id", c.eventID, "tickets", len(records))
	return nil
}

func (c *TicketCache) Lookup(code string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[code]
	return entry, ok
}

func (c *TicketCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TicketCache) LastRefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefreshedAt
}

// ApplyOptimistic marks a local entry provisional-validated so this device
// cannot double-commit the same ticket before its own queued check-in is
// replayed.
func (c *TicketCache) ApplyOptimistic(ctx context.Context, code string, at time.Time, deviceID uuid.UUID) error {
	return c.applyOptimistic(ctx, code, at, deviceID, nil)
}

// ApplyOptimisticPaid is ApplyOptimistic for the offline payment
// confirmation path: the provisional entry also carries the settled payment.
func (c *TicketCache) ApplyOptimisticPaid(ctx context.Context, code string, at time.Time, deviceID uuid.UUID, paymentRef string) error {
	return c.applyOptimistic(ctx, code, at, deviceID, &paymentRef)
}

func (c *TicketCache) applyOptimistic(ctx context.Context, code string, at time.Time, deviceID uuid.UUID, paymentRef *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[code]
	if !ok {
		return errs.ErrTicketNotFound
	}

	t, err := ticket.FromSnapshot(entry.Ticket)
	if err != nil {
		return errs.Wrap(err, "corrupt cache entry")
	}
	if paymentRef != nil {
		if err := t.ConfirmPayment(*paymentRef); err != nil {
			return err
		}
	}
	if err := t.MarkValidated(at, deviceID); err != nil {
		return err
	}

	c.entries[code] = Entry{Ticket: t.Snapshot(), State: StateProvisional}
	c.persistLocked(ctx)
	return nil
}

// DiscardProvisional rolls a provisional entry back to the given snapshot.
// Used when the offline queue could not durably record the check-in the
// optimistic entry was covering; without the queued item the provisional
// validation would survive with nothing left to replay it.
func (c *TicketCache) DiscardProvisional(ctx context.Context, code string, prev ticket.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[code]
	if !ok || entry.State != StateProvisional {
		return
	}
	c.entries[code] = Entry{Ticket: prev, State: StateAuthoritative}
	c.persistLocked(ctx)
}

// Reconcile overwrites the local entry with the authoritative server record.
// The server value always wins; when it shows a validation by a different
// device than the one recorded provisionally here, a ForeignValidation
// notice is returned for the caller to surface.
func (c *TicketCache) Reconcile(ctx context.Context, record ticket.Snapshot) *ForeignValidation {
	c.mu.Lock()
	defer c.mu.Unlock()

	var notice *ForeignValidation
	prev, had := c.entries[record.Code]
	if had && prev.State == StateProvisional && record.Validated {
		if differentDevice(prev.Ticket.CheckedInBy, record.CheckedInBy) {
			notice = &ForeignValidation{
				Code:              record.Code,
				WinnerDeviceID:    record.CheckedInBy,
				WinnerCheckedInAt: record.CheckedInAt,
			}
		}
	}

	c.entries[record.Code] = Entry{Ticket: record, State: StateAuthoritative}
	c.persistLocked(ctx)
	return notice
}

func differentDevice(local, remote *uuid.UUID) bool {
	if local == nil || remote == nil {
		return false
	}
	return *local != *remote
}

type persistedCache struct {
	Entries         map[string]Entry `json:"entries"`
	LastRefreshedAt time.Time        `json:"last_refreshed_at"`
}

// persistLocked writes the snapshot to the local store. A persistence
// failure is logged, not fatal: the cache can always be rebuilt by Load.
func (c *TicketCache) persistLocked(ctx context.Context) {
	data, err := json.Marshal(persistedCache{
		Entries:         c.entries,
		LastRefreshedAt: c.lastRefreshedAt,
	})
	if err != nil {
		c.logger.Error("failed to marshal ticket cache", "error", err)
		return
	}
	if err := c.local.Save(ctx, c.key, data); err != nil {
		c.logger.Warn("failed to persist ticket cache", "error", err)
	}
}

func (c *TicketCache) restore() {
	data, err := c.local.Load(context.Background(), c.key)
	if err != nil {
		if err != kv.ErrKeyNotFound {
			c.logger.Warn("failed to restore ticket cache", "error", err)
		}
		return
	}
	var stored persistedCache
	if err := json.Unmarshal(data, &stored); err != nil {
		c.logger.Warn("discarding corrupt ticket cache snapshot", "error", err)
		return
	}
	c.entries = stored.Entries
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	c.lastRefreshedAt = stored.LastRefreshedAt
	c.logger.Info("ticket cache restored", "tickets", len(c.entries))
}
