package commands

import (
	"context"
	"log/slog"
	"time"

	"ticketgate/internal/domain/scan"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/engine/queue"
	"ticketgate/internal/infra"
	"ticketgate/internal/monitoring"
	"ticketgate/internal/pkg/clock"

	"github.com/google/uuid"
)

// ScanCommands is the single entry point for both scan adapters (HTTP and
// hardware pump). Every call produces exactly one outcome and hands it to
// the feedback sink exactly once.
type ScanCommands interface {
	Scan(ctx context.Context, rawCode string, auth Authorization) scan.Outcome
	ConfirmPayment(ctx context.Context, rawCode string, paymentRef string, auth Authorization) scan.Outcome
}

type checkInUseCaseImpl struct {
	store    CheckInStore
	cache    TicketCache
	queue    OfflineQueue
	conn     Connectivity
	feedback FeedbackSink
	clock    clock.Clock
	logger   *slog.Logger

	deviceID      uuid.UUID
	eventID       uuid.UUID
	commitTimeout time.Duration
}

func NewScanCommands(
	store CheckInStore,
	ticketCache TicketCache,
	offlineQueue OfflineQueue,
	conn Connectivity,
	feedback FeedbackSink,
	clk clock.Clock,
	logger *slog.Logger,
	deviceID uuid.UUID,
	eventID uuid.UUID,
	commitTimeout time.Duration,
) ScanCommands {
	return &checkInUseCaseImpl{
		store:         store,
		cache:         ticketCache,
		queue:         offlineQueue,
		conn:          conn,
		feedback:      feedback,
		clock:         clk,
		logger:        logger,
		deviceID:      deviceID,
		eventID:       eventID,
		commitTimeout: commitTimeout,
	}
}

func (u *checkInUseCaseImpl) Scan(ctx context.Context, rawCode string, auth Authorization) scan.Outcome {
	outcome := u.decideAndCommit(ctx, rawCode, auth, nil)
	u.finish(outcome)
	return outcome
}

// ConfirmPayment is the explicit operator action after collecting payment
// for a PaymentRequired scan. It is never triggered automatically; the
// conditional commit re-checks validated=false because time has passed
// since the original scan.
func (u *checkInUseCaseImpl) ConfirmPayment(ctx context.Context, rawCode string, paymentRef string, auth Authorization) scan.Outcome {
	if paymentRef == "" {
		outcome := scan.FormatError(rawCode)
		outcome.Reason = "payment reference required"
		u.finish(outcome)
		return outcome
	}
	outcome := u.decideAndCommit(ctx, rawCode, auth, &paymentRef)
	u.finish(outcome)
	return outcome
}

func (u *checkInUseCaseImpl) finish(outcome scan.Outcome) {
	u.feedback.Notify(outcome)
	monitoring.SetOfflineQueueDepth(u.queue.Len())
}

func (u *checkInUseCaseImpl) decideAndCommit(ctx context.Context, rawCode string, auth Authorization, paymentRef *string) scan.Outcome {
	// Format is rejected before any cache access.
	code, err := ticket.ParseCode(rawCode)
	if err != nil {
		return scan.FormatError(rawCode)
	}

	var snap *ticket.Snapshot
	if entry, ok := u.cache.Lookup(code.String()); ok {
		s := entry.Ticket
		snap = &s
	}

	verdict := scan.Decide(scan.Input{
		RawCode:    rawCode,
		Entry:      snap,
		Now:        u.clock.Now(),
		EventID:    u.eventID,
		Authorized: auth.CoversEvent(u.eventID),
	})

	if paymentRef != nil {
		// The confirmation flow expects a PaymentRequired verdict; a fully
		// paid ticket simply commits without the payment fields.
		switch verdict.Kind {
		case scan.KindPaymentRequired:
			return u.commit(ctx, *verdict.Ticket, paymentRef)
		case scan.KindValid:
			return u.commit(ctx, *verdict.Ticket, nil)
		default:
			return verdict
		}
	}

	if !verdict.IsValid() {
		return verdict
	}
	return u.commit(ctx, *verdict.Ticket, nil)
}

// commit runs the Valid path: a conditional update when online, the
// optimistic-plus-queue path when offline or when the store does not answer
// inside the commit timeout. An unanswered commit is never interpreted as
// success.
func (u *checkInUseCaseImpl) commit(ctx context.Context, snap ticket.Snapshot, paymentRef *string) scan.Outcome {
	now := u.clock.Now()

	if u.conn.Online() {
		outcome, decided := u.commitOnline(ctx, snap, now, paymentRef)
		if decided {
			return outcome
		}
		// Fall through: the store gave no definitive answer.
	}
	return u.commitOffline(ctx, snap, now, paymentRef)
}

// commitOnline returns decided=false when the store was unreachable or
// timed out, so the caller can take the offline path instead.
func (u *checkInUseCaseImpl) commitOnline(ctx context.Context, snap ticket.Snapshot, now time.Time, paymentRef *string) (scan.Outcome, bool) {
	cctx, cancel := context.WithTimeout(ctx, u.commitTimeout)
	defer cancel()

	start := time.Now()
	var committed bool
	var err error
	if paymentRef != nil {
		committed, err = u.store.CommitPaidCheckIn(cctx, snap.ID, now, u.deviceID, *paymentRef)
	} else {
		committed, err = u.store.CommitCheckIn(cctx, snap.ID, now, u.deviceID)
	}
	monitoring.ObserveCommitDuration(time.Since(start).Seconds())

	if err != nil {
		u.logger.Warn("conditional commit failed, taking offline path",
			"ticket_code", snap.Code, "error", err)
		return scan.Outcome{}, false
	}

	if committed {
		record, buildErr := validatedRecord(snap, now, u.deviceID, paymentRef)
		if buildErr != nil {
			// The store accepted the commit; a local modelling failure must
			// not turn a won commit into a refusal.
			u.logger.Error("failed to rebuild committed record", "error", buildErr)
			record = snap
		}
		u.cache.Reconcile(ctx, record)
		return scan.Valid(record, now), true
	}

	return u.lostCommit(cctx, ctx, snap, now, paymentRef)
}

// lostCommit classifies a zero-affected-rows commit. For the plain commit
// the only explanation is a validation by another device. The paid commit's
// payment guard can also refuse when the ticket moved to a terminal payment
// state between scan and confirmation, so the verdict is re-derived from the
// fresh record rather than reported as a validation that never happened.
func (u *checkInUseCaseImpl) lostCommit(cctx, ctx context.Context, snap ticket.Snapshot, now time.Time, paymentRef *string) (scan.Outcome, bool) {
	fresh, err := u.store.FindByCode(ctx, snap.Code)
	if err != nil {
		if !infra.IsKind(err, infra.KindUnavailable) {
			u.logger.Error("failed to refetch ticket after lost commit", "error", err)
		}
		if paymentRef == nil {
			// The refusal is certain even without the fresh record; report it
			// without the winner's timestamp rather than fabricate one.
			return scan.AlreadyUsed(snap, nil), true
		}
		// The paid refusal is ambiguous without the fresh record.
		return scan.TransientError(&snap, "could not confirm ticket state"), true
	}
	u.cache.Reconcile(ctx, fresh)

	if fresh.Validated {
		return scan.AlreadyUsed(fresh, fresh.CheckedInAt), true
	}

	verdict := scan.Decide(scan.Input{
		RawCode:    fresh.Code,
		Entry:      &fresh,
		Now:        now,
		EventID:    u.eventID,
		Authorized: true,
	})
	if !verdict.IsValid() {
		return verdict, true
	}

	// The payment settled through another channel between scan and commit;
	// the plain conditional update still applies.
	committed, err := u.store.CommitCheckIn(cctx, snap.ID, now, u.deviceID)
	if err != nil {
		return scan.Outcome{}, false
	}
	if !committed {
		return scan.AlreadyUsed(fresh, nil), true
	}
	record, buildErr := validatedRecord(fresh, now, u.deviceID, nil)
	if buildErr != nil {
		record = fresh
	}
	u.cache.Reconcile(ctx, record)
	return scan.Valid(record, now), true
}

func (u *checkInUseCaseImpl) commitOffline(ctx context.Context, snap ticket.Snapshot, now time.Time, paymentRef *string) scan.Outcome {
	var err error
	if paymentRef != nil {
		err = u.cache.ApplyOptimisticPaid(ctx, snap.Code, now, u.deviceID, *paymentRef)
	} else {
		err = u.cache.ApplyOptimistic(ctx, snap.Code, now, u.deviceID)
	}
	if err != nil {
		u.logger.Error("failed to apply optimistic check-in", "ticket_code", snap.Code, "error", err)
		return scan.TransientError(&snap, "could not record offline check-in")
	}

	item := queue.QueuedCheckIn{
		IdempotencyKey: snap.ID,
		TicketCode:     snap.Code,
		EventID:        snap.EventID,
		DeviceID:       u.deviceID,
		RequestedAt:    now,
		PaymentRef:     paymentRef,
	}
	if err := u.queue.Append(ctx, item); err != nil {
		// Without the queued item the provisional admit would never be
		// replayed; roll the cache back so a rescan can try again.
		u.cache.DiscardProvisional(ctx, snap.Code, snap)
		u.logger.Error("failed to queue offline check-in", "ticket_code", snap.Code, "error", err)
		return scan.TransientError(&snap, "could not record offline check-in")
	}

	record, buildErr := validatedRecord(snap, now, u.deviceID, paymentRef)
	if buildErr != nil {
		record = snap
	}
	return scan.ValidOffline(record, now)
}

// validatedRecord derives the post-commit snapshot through the entity so
// the usual invariants still apply.
func validatedRecord(snap ticket.Snapshot, at time.Time, deviceID uuid.UUID, paymentRef *string) (ticket.Snapshot, error) {
	t, err := ticket.FromSnapshot(snap)
	if err != nil {
		return snap, err
	}
	if paymentRef != nil {
		if err := t.ConfirmPayment(*paymentRef); err != nil {
			return snap, err
		}
	}
	if err := t.MarkValidated(at, deviceID); err != nil {
		return snap, err
	}
	return t.Snapshot(), nil
}
