package scan

import (
	"time"

	"ticketgate/internal/domain/ticket"

	"github.com/google/uuid"
)

// Input is everything the decision function is allowed to see. Entry is the
// cached snapshot for the parsed code, nil when the cache has no record.
type Input struct {
	RawCode    string
	Entry      *ticket.Snapshot
	Now        time.Time
	EventID    uuid.UUID
	Authorized bool
}

// Decide maps a scan to its outcome in strict priority order; the first
// matching rule wins, security checks before convenience ones. It performs
// no I/O and never fails: every input has exactly one outcome.
//
// A KindValid result is a verdict, not a commit. The caller must still run
// the conditional commit protocol, which may downgrade it to AlreadyUsed
// when another device wins the race.
func Decide(in Input) Outcome {
	code, err := ticket.ParseCode(in.RawCode)
	if err != nil {
		return FormatError(in.RawCode)
	}

	if in.Entry == nil {
		return NotFound(code.String())
	}
	snap := *in.Entry

	if snap.EventID != in.EventID {
		return WrongEvent(snap)
	}

	if !in.Authorized {
		return Unauthorized(snap)
	}

	if snap.Validated {
		return AlreadyUsed(snap, snap.CheckedInAt)
	}

	if snap.PaymentExpiredAt(in.Now) {
		return Expired(snap)
	}

	if snap.PaymentStatus.AwaitingPayment() {
		return PaymentRequired(snap)
	}

	if snap.PaymentStatus == ticket.PaymentCancelled {
		return Expired(snap)
	}

	return Valid(snap, in.Now)
}
