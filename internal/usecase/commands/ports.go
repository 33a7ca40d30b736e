package commands

import (
	"context"
	"time"

	"ticketgate/internal/domain/scan"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/queue"

	"github.com/google/uuid"
)

// CheckInStore is the authoritative, venue-wide source of truth. Commit
// methods are conditional updates: they report whether this caller won the
// race, and a replay of an already-applied commit is a safe no-op.
type CheckInStore interface {
	FindByCode(ctx context.Context, code string) (ticket.Snapshot, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]ticket.Snapshot, error)
	// CommitCheckIn sets validated=true iff it is still false. The returned
	// bool is the affected-row result: true means this commit won.
	CommitCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID) (bool, error)
	// CommitPaidCheckIn is CommitCheckIn plus settling the payment in the
	// same conditional write.
	CommitPaidCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID, paymentRef string) (bool, error)
}

type TicketCache interface {
	Load(ctx context.Context) error
	Lookup(code string) (cache.Entry, bool)
	ApplyOptimistic(ctx context.Context, code string, at time.Time, deviceID uuid.UUID) error
	ApplyOptimisticPaid(ctx context.Context, code string, at time.Time, deviceID uuid.UUID, paymentRef string) error
	DiscardProvisional(ctx context.Context, code string, prev ticket.Snapshot)
	Reconcile(ctx context.Context, record ticket.Snapshot) *cache.ForeignValidation
	LastRefreshedAt() time.Time
}

type OfflineQueue interface {
	Append(ctx context.Context, item queue.QueuedCheckIn) error
	Len() int
}

type Connectivity interface {
	Online() bool
}

type FeedbackSink interface {
	Notify(outcome scan.Outcome)
}

// Authorization is the operator context extracted by the transport layer
// (JWT claims on the HTTP surface, fixed grants on kiosk builds).
type Authorization struct {
	OperatorID uuid.UUID
	EventIDs   []uuid.UUID
}

func (a Authorization) CoversEvent(eventID uuid.UUID) bool {
	for _, id := range a.EventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
