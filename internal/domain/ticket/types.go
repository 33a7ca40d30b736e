package ticket

// PaymentStatus tracks how far a ticket has progressed through payment.
// Transitions only move forward: pending and pay_at_venue can become paid,
// expired or cancelled; paid, expired and cancelled are terminal.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentPayAtVenue PaymentStatus = "pay_at_venue"
	PaymentPaid       PaymentStatus = "paid"
	PaymentExpired    PaymentStatus = "expired"
	PaymentCancelled  PaymentStatus = "cancelled"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPayAtVenue, PaymentPaid, PaymentExpired, PaymentCancelled:
		return true
	}
	return false
}

// AwaitingPayment reports whether the ticket still needs money collected
// before it can be redeemed.
func (s PaymentStatus) AwaitingPayment() bool {
	return s == PaymentPending || s == PaymentPayAtVenue
}

// Terminal reports whether no further payment transition is allowed.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentExpired || s == PaymentCancelled
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only rule.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	// pending <-> pay_at_venue is a lateral move, not forward
	if s.AwaitingPayment() && next.AwaitingPayment() {
		return false
	}
	return true
}
