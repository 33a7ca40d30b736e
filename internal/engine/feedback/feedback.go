// Package feedback defines the port through which the engine hands each
// scan outcome to the host exactly once. Hosts render sound, voice or haptic
// feedback; the engine assumes nothing beyond delivery.
package feedback

import (
	"log/slog"

	"ticketgate/internal/domain/scan"
	"ticketgate/internal/monitoring"
)

type Sink interface {
	Notify(outcome scan.Outcome)
}

// SlogSink is the default sink: structured log per outcome plus the scan
// metrics. Hosts wanting audio/haptics wrap or replace it.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Notify(outcome scan.Outcome) {
	monitoring.RecordScanOutcome(string(outcome.Kind), outcome.Offline)

	attrs := []any{
		"outcome", string(outcome.Kind),
		"reason", outcome.Reason,
		"offline", outcome.Offline,
	}
	if outcome.Ticket != nil {
		attrs = append(attrs, "ticket_code", outcome.Ticket.Code)
	}

	switch outcome.Kind {
	case scan.KindValid, scan.KindAlreadyUsed, scan.KindPaymentRequired:
		s.logger.Info("scan outcome", attrs...)
	case scan.KindTransientError:
		s.logger.Warn("scan outcome", attrs...)
	default:
		s.logger.Info("scan outcome", attrs...)
	}
}
