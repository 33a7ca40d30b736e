package scan

import (
	"fmt"
	"time"

	"ticketgate/internal/domain/ticket"
)

// Kind discriminates the possible results of a single scan.
type Kind string

const (
	KindValid           Kind = "valid"
	KindAlreadyUsed     Kind = "already_used"
	KindWrongEvent      Kind = "wrong_event"
	KindNotFound        Kind = "not_found"
	KindPaymentRequired Kind = "payment_required"
	KindExpired         Kind = "expired"
	KindUnauthorized    Kind = "unauthorized"
	KindFormatError     Kind = "format_error"
	KindTransientError  Kind = "transient_error"
)

// Outcome is the value returned for every scan; the engine never reports a
// scan as an error across this boundary. Ticket is nil when no record was
// available (FormatError, NotFound).
type Outcome struct {
	Kind        Kind
	Ticket      *ticket.Snapshot
	Reason      string
	CheckedInAt *time.Time
	// Offline marks a provisional Valid recorded without the authoritative
	// store; it will be replayed by the reconciler.
	Offline bool
}

func (o Outcome) IsValid() bool {
	return o.Kind == KindValid
}

func Valid(snap ticket.Snapshot, checkedInAt time.Time) Outcome {
	at := checkedInAt
	return Outcome{
		Kind:        KindValid,
		Ticket:      &snap,
		Reason:      "ticket admitted",
		CheckedInAt: &at,
	}
}

func ValidOffline(snap ticket.Snapshot, checkedInAt time.Time) Outcome {
	o := Valid(snap, checkedInAt)
	o.Reason = "ticket admitted (pending sync)"
	o.Offline = true
	return o
}

func AlreadyUsed(snap ticket.Snapshot, checkedInAt *time.Time) Outcome {
	reason := "ticket already validated"
	if checkedInAt != nil {
		reason = fmt.Sprintf("ticket already validated at %s", checkedInAt.Format(time.RFC3339))
	}
	return Outcome{
		Kind:        KindAlreadyUsed,
		Ticket:      &snap,
		Reason:      reason,
		CheckedInAt: checkedInAt,
	}
}

func WrongEvent(snap ticket.Snapshot) Outcome {
	return Outcome{
		Kind:   KindWrongEvent,
		Ticket: &snap,
		Reason: "ticket belongs to a different event",
	}
}

func NotFound(code string) Outcome {
	return Outcome{
		Kind:   KindNotFound,
		Reason: fmt.Sprintf("no ticket found for code %q", code),
	}
}

func PaymentRequired(snap ticket.Snapshot) Outcome {
	return Outcome{
		Kind:   KindPaymentRequired,
		Ticket: &snap,
		Reason: "payment must be collected and confirmed before entry",
	}
}

func Expired(snap ticket.Snapshot) Outcome {
	reason := "ticket payment window has expired"
	if snap.PaymentStatus == ticket.PaymentCancelled {
		reason = "ticket was cancelled"
	}
	return Outcome{
		Kind:   KindExpired,
		Ticket: &snap,
		Reason: reason,
	}
}

func Unauthorized(snap ticket.Snapshot) Outcome {
	return Outcome{
		Kind:   KindUnauthorized,
		Ticket: &snap,
		Reason: "operator is not authorized for this event",
	}
}

func FormatError(raw string) Outcome {
	return Outcome{
		Kind:   KindFormatError,
		Reason: fmt.Sprintf("scanned value %q is not a ticket code", raw),
	}
}

func TransientError(snap *ticket.Snapshot, reason string) Outcome {
	return Outcome{
		Kind:   KindTransientError,
		Ticket: snap,
		Reason: reason,
	}
}
