package response

import (
	"time"

	"ticketgate/internal/domain/scan"
	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/usecase/commands"

	"github.com/google/uuid"
)

type TicketResponse struct {
	ID            uuid.UUID  `json:"id"`
	Code          string     `json:"code"`
	EventID       uuid.UUID  `json:"event_id"`
	AttendeeName  string     `json:"attendee_name"`
	PaymentStatus string     `json:"payment_status"`
	Validated     bool       `json:"validated"`
	CheckedInAt   *time.Time `json:"checked_in_at,omitempty"`
}

type ScanOutcomeResponse struct {
	Outcome     string          `json:"outcome"`
	Reason      string          `json:"reason"`
	Offline     bool            `json:"offline"`
	CheckedInAt *time.Time      `json:"checked_in_at,omitempty"`
	Ticket      *TicketResponse `json:"ticket,omitempty"`
}

func FromScanOutcome(o scan.Outcome) ScanOutcomeResponse {
	resp := ScanOutcomeResponse{
		Outcome:     string(o.Kind),
		Reason:      o.Reason,
		Offline:     o.Offline,
		CheckedInAt: o.CheckedInAt,
	}
	if o.Ticket != nil {
		resp.Ticket = fromSnapshot(*o.Ticket)
	}
	return resp
}

func fromSnapshot(s ticket.Snapshot) *TicketResponse {
	return &TicketResponse{
		ID:            s.ID,
		Code:          s.Code,
		EventID:       s.EventID,
		AttendeeName:  s.AttendeeName,
		PaymentStatus: s.PaymentStatus.String(),
		Validated:     s.Validated,
		CheckedInAt:   s.CheckedInAt,
	}
}

type ConflictResponse struct {
	TicketCode        string     `json:"ticket_code"`
	LocalDeviceID     uuid.UUID  `json:"local_device_id"`
	LocalRequestedAt  time.Time  `json:"local_requested_at"`
	WinnerDeviceID    *uuid.UUID `json:"winner_device_id,omitempty"`
	WinnerCheckedInAt *time.Time `json:"winner_checked_in_at,omitempty"`
}

type SyncReportResponse struct {
	Applied   int                `json:"applied"`
	Conflicts []ConflictResponse `json:"conflicts"`
	Remaining int                `json:"remaining"`
	Refreshed bool               `json:"refreshed"`
}

func FromSyncReport(r *reconcile.Report) SyncReportResponse {
	resp := SyncReportResponse{
		Applied:   r.Applied,
		Conflicts: make([]ConflictResponse, 0, len(r.Conflicts)),
		Remaining: r.Remaining,
		Refreshed: r.Refreshed,
	}
	for _, c := range r.Conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictResponse{
			TicketCode:        c.TicketCode,
			LocalDeviceID:     c.LocalDeviceID,
			LocalRequestedAt:  c.LocalRequestedAt,
			WinnerDeviceID:    c.WinnerDeviceID,
			WinnerCheckedInAt: c.WinnerCheckedInAt,
		})
	}
	return resp
}

type SyncStatusResponse struct {
	Pending         int       `json:"pending"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	Online          bool      `json:"online"`
}

func FromSyncStatus(s commands.SyncStatus) SyncStatusResponse {
	return SyncStatusResponse{
		Pending:         s.Pending,
		LastRefreshedAt: s.LastRefreshedAt,
		Online:          s.Online,
	}
}
