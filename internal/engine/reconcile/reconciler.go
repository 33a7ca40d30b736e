// Package reconcile drains the offline queue against the authoritative
// store once connectivity returns, merging results back into the ticket
// cache. Replay is strictly FIFO per device; conflicts resolve
// first-write-wins with no negotiation.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/queue"
	"ticketgate/internal/infra"
	"ticketgate/internal/monitoring"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
)

type Store interface {
	FindByCode(ctx context.Context, code string) (ticket.Snapshot, error)
	CommitCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID) (bool, error)
	CommitPaidCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID, paymentRef string) (bool, error)
}

type Cache interface {
	Load(ctx context.Context) error
	Reconcile(ctx context.Context, record ticket.Snapshot) *cache.ForeignValidation
}

type Queue interface {
	Items() []queue.QueuedCheckIn
	Remove(ctx context.Context, idempotencyKey uuid.UUID) error
	MarkAttempt(ctx context.Context, idempotencyKey uuid.UUID) error
	Len() int
}

type Connectivity interface {
	Online() bool
	Changes() <-chan bool
}

// ConflictReport surfaces a queued check-in that lost to another device.
// The earlier validation wins unconditionally; the report exists so the
// operator can resolve the person at the gate, not the data.
type ConflictReport struct {
	TicketCode        string
	IdempotencyKey    uuid.UUID
	LocalDeviceID     uuid.UUID
	LocalRequestedAt  time.Time
	WinnerDeviceID    *uuid.UUID
	WinnerCheckedInAt *time.Time
}

type Report struct {
	Applied   int
	Conflicts []ConflictReport
	Remaining int
	Refreshed bool
}

type Config struct {
	CommitTimeout time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	// After schedules retry wake-ups; nil means time.After. Tests inject a
	// manual channel so retries fire without real time passing.
	After func(d time.Duration) <-chan time.Time
}

type Reconciler struct {
	store  Store
	cache  Cache
	queue  Queue
	conn   Connectivity
	logger *slog.Logger
	cfg    Config

	mu       sync.Mutex
	draining bool
}

func New(store Store, c Cache, q Queue, conn Connectivity, logger *slog.Logger, cfg Config) *Reconciler {
	if cfg.After == nil {
		cfg.After = time.After
	}
	return &Reconciler{
		store:  store,
		cache:  c,
		queue:  q,
		conn:   conn,
		logger: logger,
		cfg:    cfg,
	}
}

func (r *Reconciler) Pending() int {
	return r.queue.Len()
}

// Run is the background drain loop: it reacts to connectivity-regained
// signals and retries transient failures with exponential backoff. It exits
// when ctx is done.
func (r *Reconciler) Run(ctx context.Context) {
	var retryC <-chan time.Time
	failures := 0

	drain := func() {
		report, err := r.Drain(ctx)
		if err != nil {
			return
		}
		if report.Remaining > 0 {
			failures++
			d := r.backoff(failures)
			retryC = r.cfg.After(d)
			r.logger.Info("sync incomplete, retrying", "remaining", report.Remaining, "backoff", d)
		} else {
			failures = 0
			retryC = nil
		}
	}

	if r.conn.Online() && r.queue.Len() > 0 {
		drain()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-r.conn.Changes():
			if online {
				failures = 0
				drain()
			} else {
				retryC = nil
			}
		case <-retryC:
			retryC = nil
			if r.conn.Online() {
				drain()
			}
		}
	}
}

// Drain replays every queued check-in in FIFO order. A transient store
// failure stops the pass with the remainder intact; definitive answers
// (applied or conflict) dequeue their entry. A full drain ends with a cache
// refresh from the store.
func (r *Reconciler) Drain(ctx context.Context) (*Report, error) {
	if !r.conn.Online() {
		return nil, errs.ErrDeviceOffline
	}

	r.mu.Lock()
	if r.draining {
		r.mu.Unlock()
		return nil, errs.ErrSyncInProgress
	}
	r.draining = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.draining = false
		r.mu.Unlock()
	}()

	report := &Report{}
	items := r.queue.Items()
	for i, item := range items {
		ok, err := r.replay(ctx, item, report)
		if err != nil {
			return nil, err
		}
		if !ok {
			if markErr := r.queue.MarkAttempt(ctx, item.IdempotencyKey); markErr != nil {
				r.logger.Warn("failed to record replay attempt", "error", markErr)
			}
			report.Remaining = len(items) - i
			break
		}
	}

	if report.Remaining == 0 && len(items) > 0 {
		if err := r.cache.Load(ctx); err != nil {
			r.logger.Warn("cache refresh after drain failed", "error", err)
		} else {
			report.Refreshed = true
		}
	}

	monitoring.SetOfflineQueueDepth(r.queue.Len())
	r.logger.Info("offline queue drained",
		"applied", report.Applied, "conflicts", len(report.Conflicts), "remaining", report.Remaining)
	return report, nil
}

// replay pushes one queued check-in at the store. It returns false when the
// store gave no definitive answer and the drain must pause.
func (r *Reconciler) replay(ctx context.Context, item queue.QueuedCheckIn, report *Report) (bool, error) {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.CommitTimeout)
	defer cancel()

	var committed bool
	var err error
	if item.PaymentRef != nil {
		committed, err = r.store.CommitPaidCheckIn(cctx, item.IdempotencyKey, item.RequestedAt, item.DeviceID, *item.PaymentRef)
	} else {
		committed, err = r.store.CommitCheckIn(cctx, item.IdempotencyKey, item.RequestedAt, item.DeviceID)
	}
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		r.logger.Warn("replay commit failed", "ticket_code", item.TicketCode, "error", err)
		return false, nil
	}

	record, err := r.store.FindByCode(ctx, item.TicketCode)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if infra.IsKind(err, infra.KindUnavailable) {
			return false, nil
		}
		// The commit answer was definitive; a missing record afterwards is a
		// data problem, not a transient one. Dequeue and move on.
		r.logger.Error("replayed ticket missing from store", "ticket_code", item.TicketCode, "error", err)
		if rmErr := r.queue.Remove(ctx, item.IdempotencyKey); rmErr != nil {
			return false, nil
		}
		return true, nil
	}

	switch {
	case committed:
		report.Applied++
	case record.CheckedInBy != nil && *record.CheckedInBy == item.DeviceID:
		// Our own earlier replay already landed; the idempotency key turned
		// the repeat into a no-op.
		report.Applied++
	case !record.Validated:
		// The payment guard refused the replay: the ticket moved to a
		// terminal payment state while queued. Nobody validated it, so there
		// is no conflict to report; the entry is resolved.
		r.logger.Warn("queued check-in refused by store",
			"ticket_code", item.TicketCode, "payment_status", record.PaymentStatus)
	default:
		report.Conflicts = append(report.Conflicts, ConflictReport{
			TicketCode:        item.TicketCode,
			IdempotencyKey:    item.IdempotencyKey,
			LocalDeviceID:     item.DeviceID,
			LocalRequestedAt:  item.RequestedAt,
			WinnerDeviceID:    record.CheckedInBy,
			WinnerCheckedInAt: record.CheckedInAt,
		})
		monitoring.RecordReconcileConflict()
		r.logger.Warn("offline check-in lost to another device",
			"ticket_code", item.TicketCode, "winner_checked_in_at", record.CheckedInAt)
	}

	if notice := r.cache.Reconcile(ctx, record); notice != nil {
		r.logger.Info("foreign validation merged", "ticket_code", notice.Code)
	}
	if err := r.queue.Remove(ctx, item.IdempotencyKey); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Reconciler) backoff(failures int) time.Duration {
	d := r.cfg.BackoffBase
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= r.cfg.BackoffMax {
			return r.cfg.BackoffMax
		}
	}
	if d > r.cfg.BackoffMax {
		return r.cfg.BackoffMax
	}
	return d
}
