//go:build unit || e2e

package builder

import (
	"time"

	domticket "ticketgate/internal/domain/ticket"

	"github.com/google/uuid"
)

type TicketBuilder struct {
	ID            uuid.UUID
	Code          string
	EventID       uuid.UUID
	AttendeeName  string
	AttendeeEmail string
	TierID        uuid.UUID
	PaymentStatus domticket.PaymentStatus
	Validated     bool
	CheckedInAt   *time.Time
	CheckedInBy   *uuid.UUID
	PaymentRef    *string
	CreatedAt     time.Time
}

func NewTicketBuilder() *TicketBuilder {
	return &TicketBuilder{
		ID:            uuid.New(),
		Code:          "TKT-WXYZ2345",
		EventID:       uuid.New(),
		AttendeeName:  "Ada Lovelace",
		AttendeeEmail: "ada@example.com",
		TierID:        uuid.New(),
		PaymentStatus: domticket.PaymentPaid,
		CreatedAt:     time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC),
	}
}

func (b *TicketBuilder) With(mutate func(*TicketBuilder)) *TicketBuilder {
	mutate(b)
	return b
}

func (b *TicketBuilder) WithCode(code string) *TicketBuilder {
	b.Code = code
	return b
}

func (b *TicketBuilder) WithEventID(id uuid.UUID) *TicketBuilder {
	b.EventID = id
	return b
}

func (b *TicketBuilder) WithPaymentStatus(status domticket.PaymentStatus) *TicketBuilder {
	b.PaymentStatus = status
	return b
}

func (b *TicketBuilder) WithCreatedAt(t time.Time) *TicketBuilder {
	b.CreatedAt = t
	return b
}

func (b *TicketBuilder) WithValidated(at time.Time, deviceID uuid.UUID) *TicketBuilder {
	b.Validated = true
	b.CheckedInAt = &at
	b.CheckedInBy = &deviceID
	return b
}

func (b *TicketBuilder) BuildSnapshot() domticket.Snapshot {
	return domticket.Snapshot{
		ID:            b.ID,
		Code:          b.Code,
		EventID:       b.EventID,
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: b.AttendeeEmail,
		TierID:        b.TierID,
		PaymentStatus: b.PaymentStatus,
		Validated:     b.Validated,
		CheckedInAt:   b.CheckedInAt,
		CheckedInBy:   b.CheckedInBy,
		PaymentRef:    b.PaymentRef,
		CreatedAt:     b.CreatedAt,
	}
}

func (b *TicketBuilder) BuildDomain() (*domticket.Ticket, error) {
	return domticket.FromSnapshot(b.BuildSnapshot())
}
