// Package checkinstore implements the authoritative CheckInStore against
// PostgreSQL with pgx. The conditional update in the commit methods is the
// sole venue-wide race-safety mechanism: exactly one device wins a ticket
// regardless of scan interleaving.
package checkinstore

import (
	"context"
	"errors"
	"net"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `id, ticket_code, event_id, attendee_name, attendee_email, tier_id,
	payment_status, validated, checked_in_at, checked_in_by, payment_ref, created_at`

type PostgresStore struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (ticket.Snapshot, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE ticket_code = $1`,
		code,
	)
	snap, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.Snapshot{}, infra.WrapRepoErr("ticket not found", err, infra.KindNotFound)
		}
		return ticket.Snapshot{}, wrapStoreErr("failed to find ticket by code", err)
	}
	return snap, nil
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]ticket.Snapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE event_id = $1 ORDER BY created_at`,
		eventID,
	)
	if err != nil {
		return nil, wrapStoreErr("failed to list tickets for event", err)
	}
	defer rows.Close()

	var out []ticket.Snapshot
	for rows.Next() {
		snap, err := scanTicket(rows)
		if err != nil {
			return nil, wrapStoreErr("failed to scan ticket row", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("failed to read ticket rows", err)
	}
	return out, nil
}

// CommitCheckIn performs the conditional update. Zero rows affected means
// another device already validated the ticket; that is a result, not an
// error.
func (s *PostgresStore) CommitCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE tickets
		 SET validated = TRUE, checked_in_at = $2, checked_in_by = $3
		 WHERE id = $1 AND validated = FALSE`,
		ticketID, at, deviceID,
	)
	if err != nil {
		return false, wrapStoreErr("failed to commit check-in", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CommitPaidCheckIn settles a pay-at-venue payment and validates in one
// conditional write. The payment_status guard keeps the forward-only rule
// even if the maintenance sweep expired the ticket after the scan.
func (s *PostgresStore) CommitPaidCheckIn(ctx context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID, paymentRef string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE tickets
		 SET validated = TRUE, checked_in_at = $2, checked_in_by = $3,
		     payment_status = 'paid', payment_ref = $4
		 WHERE id = $1 AND validated = FALSE
		   AND payment_status IN ('pending', 'pay_at_venue')`,
		ticketID, at, deviceID, paymentRef,
	)
	if err != nil {
		return false, wrapStoreErr("failed to commit paid check-in", err)
	}
	return tag.RowsAffected() == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (ticket.Snapshot, error) {
	var snap ticket.Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.Code,
		&snap.EventID,
		&snap.AttendeeName,
		&snap.AttendeeEmail,
		&snap.TierID,
		&snap.PaymentStatus,
		&snap.Validated,
		&snap.CheckedInAt,
		&snap.CheckedInBy,
		&snap.PaymentRef,
		&snap.CreatedAt,
	)
	return snap, err
}

// wrapStoreErr classifies connection-level failures as KindUnavailable so
// the engine can take the offline path instead of failing the scan.
func wrapStoreErr(msg string, err error) error {
	if isUnavailable(err) {
		return infra.WrapRepoErr(msg, errs.Mark(err, errs.ErrStoreUnavailable), infra.KindUnavailable)
	}
	return infra.WrapRepoErr(msg, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions, Class 57: operator intervention
		// (shutdown, crash recovery).
		code := pgErr.Code
		return len(code) >= 2 && (code[:2] == "08" || code[:2] == "57")
	}
	return pgconn.Timeout(err)
}
