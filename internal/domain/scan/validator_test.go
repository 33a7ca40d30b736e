//go:build unit

package scan_test

import (
	"testing"
	"time"

	"ticketgate/internal/domain/scan"
	"ticketgate/internal/domain/ticket"
	"ticketgate/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	eventID := uuid.New()
	now := time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)

	entry := func(mutate func(*builder.TicketBuilder)) *ticket.Snapshot {
		b := builder.NewTicketBuilder().WithEventID(eventID)
		if mutate != nil {
			mutate(b)
		}
		snap := b.BuildSnapshot()
		return &snap
	}

	cases := []struct {
		name       string
		rawCode    string
		entry      *ticket.Snapshot
		authorized bool
		wantKind   scan.Kind
	}{
		{
			name:       "paid unvalidated ticket is a valid verdict",
			rawCode:    "TKT-WXYZ2345",
			entry:      entry(nil),
			authorized: true,
			wantKind:   scan.KindValid,
		},
		{
			name:     "malformed code wins over everything",
			rawCode:  "garbage",
			entry:    entry(nil),
			wantKind: scan.KindFormatError,
		},
		{
			name:       "unknown code",
			rawCode:    "TKT-WXYZ2345",
			entry:      nil,
			authorized: true,
			wantKind:   scan.KindNotFound,
		},
		{
			name:    "wrong event checked before authorization",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithEventID(uuid.New())
				b.WithValidated(now.Add(-time.Hour), uuid.New())
			}),
			authorized: false,
			wantKind:   scan.KindWrongEvent,
		},
		{
			name:    "authorization checked before already used",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithValidated(now.Add(-time.Hour), uuid.New())
			}),
			authorized: false,
			wantKind:   scan.KindUnauthorized,
		},
		{
			name:    "already used checked before expiry",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithPaymentStatus(ticket.PaymentExpired)
				b.WithValidated(now.Add(-time.Hour), uuid.New())
			}),
			authorized: true,
			wantKind:   scan.KindAlreadyUsed,
		},
		{
			name:    "stale pending ticket is expired, not payment required",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithPaymentStatus(ticket.PaymentPending)
				b.WithCreatedAt(now.Add(-(ticket.PendingTTL + time.Hour)))
			}),
			authorized: true,
			wantKind:   scan.KindExpired,
		},
		{
			name:    "fresh pending ticket needs payment",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithPaymentStatus(ticket.PaymentPending)
				b.WithCreatedAt(now.Add(-23 * time.Hour))
			}),
			authorized: true,
			wantKind:   scan.KindPaymentRequired,
		},
		{
			name:    "pay_at_venue ticket needs payment",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithPaymentStatus(ticket.PaymentPayAtVenue)
				b.WithCreatedAt(now.Add(-time.Hour))
			}),
			authorized: true,
			wantKind:   scan.KindPaymentRequired,
		},
		{
			name:    "cancelled ticket is refused",
			rawCode: "TKT-WXYZ2345",
			entry: entry(func(b *builder.TicketBuilder) {
				b.WithPaymentStatus(ticket.PaymentCancelled)
			}),
			authorized: true,
			wantKind:   scan.KindExpired,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := scan.Decide(scan.Input{
				RawCode:    c.rawCode,
				Entry:      c.entry,
				Now:        now,
				EventID:    eventID,
				Authorized: c.authorized,
			})
			assert.Equal(t, c.wantKind, out.Kind)
		})
	}

	t.Run("valid verdict carries the scan time", func(t *testing.T) {
		out := scan.Decide(scan.Input{
			RawCode:    "TKT-WXYZ2345",
			Entry:      entry(nil),
			Now:        now,
			EventID:    eventID,
			Authorized: true,
		})
		require.Equal(t, scan.KindValid, out.Kind)
		require.NotNil(t, out.CheckedInAt)
		assert.True(t, out.CheckedInAt.Equal(now))
		assert.False(t, out.Offline)
	})

	t.Run("already used reports the original check-in time", func(t *testing.T) {
		firstAt := now.Add(-2 * time.Hour)
		out := scan.Decide(scan.Input{
			RawCode: "TKT-WXYZ2345",
			Entry: entry(func(b *builder.TicketBuilder) {
				b.WithValidated(firstAt, uuid.New())
			}),
			Now:        now,
			EventID:    eventID,
			Authorized: true,
		})
		require.Equal(t, scan.KindAlreadyUsed, out.Kind)
		require.NotNil(t, out.CheckedInAt)
		assert.True(t, out.CheckedInAt.Equal(firstAt))
	})
}
