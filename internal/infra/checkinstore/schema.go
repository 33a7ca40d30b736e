package checkinstore

import (
	"context"

	"ticketgate/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the authoritative ticket table. ticket_code is globally unique;
// the partial index keeps the bulk event load fast on large venues.
const Schema = `
CREATE TABLE IF NOT EXISTS tickets (
	id             UUID PRIMARY KEY,
	ticket_code    TEXT NOT NULL UNIQUE,
	event_id       UUID NOT NULL,
	attendee_name  TEXT NOT NULL,
	attendee_email TEXT NOT NULL,
	tier_id        UUID NOT NULL,
	payment_status TEXT NOT NULL DEFAULT 'pending'
		CHECK (payment_status IN ('pending', 'pay_at_venue', 'paid', 'expired', 'cancelled')),
	validated      BOOLEAN NOT NULL DEFAULT FALSE,
	checked_in_at  TIMESTAMPTZ,
	checked_in_by  UUID,
	payment_ref    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (validated = (checked_in_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_tickets_event ON tickets (event_id);
CREATE INDEX IF NOT EXISTS idx_tickets_event_unvalidated
	ON tickets (event_id) WHERE NOT validated;
`

func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return errs.Wrap(err, "failed to ensure tickets schema")
	}
	return nil
}
