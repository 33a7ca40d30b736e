package ticket

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyValidated    = errors.New("ticket is already validated")
	ErrInvalidTransition   = errors.New("payment status cannot move backward")
	ErrNotAwaitingPayment  = errors.New("ticket is not awaiting payment")
	ErrMissingCheckedInAt  = errors.New("validated ticket requires a check-in time")
	ErrValidationReversed  = errors.New("validation cannot be reversed")
	ErrMissingPaymentRef   = errors.New("payment reference required")
)

// PendingTTL is how long a pending or pay_at_venue ticket stays redeemable
// before it is considered expired, whether or not the maintenance sweep has
// flipped its status yet.
const PendingTTL = 24 * time.Hour

// Ticket enforces the check-in invariants: validated flips false->true
// exactly once, checkedInAt is set iff validated, and paymentStatus moves
// only forward.
type Ticket struct {
	id            uuid.UUID
	code          Code
	eventID       uuid.UUID
	attendeeName  string
	attendeeEmail string
	tierID        uuid.UUID
	paymentStatus PaymentStatus
	validated     bool
	checkedInAt   *time.Time
	checkedInBy   *uuid.UUID
	paymentRef    *string
	createdAt     time.Time
}

// Snapshot is the serializable, exported view of a ticket used by the cache,
// the scan outcomes and the wire layer. Snapshots carry no behavior; mutate
// through the entity.
type Snapshot struct {
	ID            uuid.UUID     `json:"id"`
	Code          string        `json:"code"`
	EventID       uuid.UUID     `json:"event_id"`
	AttendeeName  string        `json:"attendee_name"`
	AttendeeEmail string        `json:"attendee_email"`
	TierID        uuid.UUID     `json:"tier_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Validated     bool          `json:"validated"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty"`
	CheckedInBy   *uuid.UUID    `json:"checked_in_by,omitempty"`
	PaymentRef    *string       `json:"payment_ref,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// FromSnapshot rebuilds the entity from a stored snapshot, re-asserting the
// checkedInAt/validated pairing.
func FromSnapshot(s Snapshot) (*Ticket, error) {
	code, err := ParseCode(s.Code)
	if err != nil {
		return nil, err
	}
	if s.Validated && s.CheckedInAt == nil {
		return nil, ErrMissingCheckedInAt
	}
	if !s.Validated && s.CheckedInAt != nil {
		return nil, ErrValidationReversed
	}
	return &Ticket{
		id:            s.ID,
		code:          code,
		eventID:       s.EventID,
		attendeeName:  s.AttendeeName,
		attendeeEmail: s.AttendeeEmail,
		tierID:        s.TierID,
		paymentStatus: s.PaymentStatus,
		validated:     s.Validated,
		checkedInAt:   s.CheckedInAt,
		checkedInBy:   s.CheckedInBy,
		paymentRef:    s.PaymentRef,
		createdAt:     s.CreatedAt,
	}, nil
}

func (t *Ticket) Snapshot() Snapshot {
	return Snapshot{
		ID:            t.id,
		Code:          t.code.String(),
		EventID:       t.eventID,
		AttendeeName:  t.attendeeName,
		AttendeeEmail: t.attendeeEmail,
		TierID:        t.tierID,
		PaymentStatus: t.paymentStatus,
		Validated:     t.validated,
		CheckedInAt:   t.checkedInAt,
		CheckedInBy:   t.checkedInBy,
		PaymentRef:    t.paymentRef,
		CreatedAt:     t.createdAt,
	}
}

// MarkValidated records the one-time check-in. A second call is rejected,
// never overwritten.
func (t *Ticket) MarkValidated(at time.Time, deviceID uuid.UUID) error {
	if t.validated {
		return ErrAlreadyValidated
	}
	t.validated = true
	checkedIn := at
	t.checkedInAt = &checkedIn
	device := deviceID
	t.checkedInBy = &device
	return nil
}

// AdvancePaymentStatus applies a forward-only payment transition.
func (t *Ticket) AdvancePaymentStatus(next PaymentStatus) error {
	if !t.paymentStatus.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	t.paymentStatus = next
	return nil
}

// ConfirmPayment settles an awaiting-payment ticket with the operator's
// payment reference.
func (t *Ticket) ConfirmPayment(ref string) error {
	if ref == "" {
		return ErrMissingPaymentRef
	}
	if !t.paymentStatus.AwaitingPayment() {
		return ErrNotAwaitingPayment
	}
	if err := t.AdvancePaymentStatus(PaymentPaid); err != nil {
		return err
	}
	r := ref
	t.paymentRef = &r
	return nil
}

// PaymentExpiredAt re-derives the maintenance sweep's expiry rule locally:
// a ticket stuck awaiting payment for more than PendingTTL is expired even
// if the sweep has not run yet.
func (t *Ticket) PaymentExpiredAt(now time.Time) bool {
	return paymentExpiredAt(t.paymentStatus, t.createdAt, now)
}

// PaymentExpiredAt is the snapshot-side twin of Ticket.PaymentExpiredAt,
// used where only a cached snapshot is available.
func (s Snapshot) PaymentExpiredAt(now time.Time) bool {
	return paymentExpiredAt(s.PaymentStatus, s.CreatedAt, now)
}

func paymentExpiredAt(status PaymentStatus, createdAt, now time.Time) bool {
	if status == PaymentExpired {
		return true
	}
	return status.AwaitingPayment() && now.Sub(createdAt) > PendingTTL
}

func (t *Ticket) ID() uuid.UUID                { return t.id }
func (t *Ticket) Code() Code                   { return t.code }
func (t *Ticket) EventID() uuid.UUID           { return t.eventID }
func (t *Ticket) AttendeeName() string         { return t.attendeeName }
func (t *Ticket) AttendeeEmail() string        { return t.attendeeEmail }
func (t *Ticket) TierID() uuid.UUID            { return t.tierID }
func (t *Ticket) PaymentStatus() PaymentStatus { return t.paymentStatus }
func (t *Ticket) Validated() bool              { return t.validated }
func (t *Ticket) CheckedInAt() *time.Time      { return t.checkedInAt }
func (t *Ticket) CheckedInBy() *uuid.UUID      { return t.checkedInBy }
func (t *Ticket) PaymentRef() *string          { return t.paymentRef }
func (t *Ticket) CreatedAt() time.Time         { return t.createdAt }
