//go:build unit

// Package fake holds in-memory stand-ins for the infra layer. The check-in
// store mirrors the conditional-update contract of the Postgres
// implementation, including race behavior under concurrent commits.
package fake

import (
	"context"
	"sync"
	"time"

	"ticketgate/internal/domain/ticket"
	"ticketgate/internal/infra"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
)

type CheckInStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]ticket.Snapshot
	byCode  map[string]uuid.UUID
	failN   int
	down    bool
	commits int
}

func NewCheckInStore(snaps ...ticket.Snapshot) *CheckInStore {
	s := &CheckInStore{
		byID:   make(map[uuid.UUID]ticket.Snapshot),
		byCode: make(map[string]uuid.UUID),
	}
	for _, snap := range snaps {
		s.Put(snap)
	}
	return s
}

func (s *CheckInStore) Put(snap ticket.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[snap.ID] = snap
	s.byCode[snap.Code] = snap.ID
}

func (s *CheckInStore) Get(id uuid.UUID) (ticket.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[id]
	return snap, ok
}

// SetUnavailable makes every call fail with an UNAVAILABLE error until
// cleared, simulating a network partition.
func (s *CheckInStore) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// FailNext injects n transient failures before calls succeed again.
func (s *CheckInStore) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failN = n
}

func (s *CheckInStore) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *CheckInStore) failLocked() error {
	if s.down {
		return infra.WrapRepoErr("store unreachable", errs.New("connection refused"), infra.KindUnavailable)
	}
	if s.failN > 0 {
		s.failN--
		return infra.WrapRepoErr("store unreachable", errs.New("i/o timeout"), infra.KindUnavailable)
	}
	return nil
}

func (s *CheckInStore) FindByCode(_ context.Context, code string) (ticket.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return ticket.Snapshot{}, err
	}
	id, ok := s.byCode[code]
	if !ok {
		return ticket.Snapshot{}, infra.WrapRepoErr("ticket not found", errs.ErrTicketNotFound, infra.KindNotFound)
	}
	return s.byID[id], nil
}

func (s *CheckInStore) ListByEvent(_ context.Context, eventID uuid.UUID) ([]ticket.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return nil, err
	}
	var out []ticket.Snapshot
	for _, snap := range s.byID {
		if snap.EventID == eventID {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *CheckInStore) CommitCheckIn(_ context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return false, err
	}
	snap, ok := s.byID[ticketID]
	if !ok || snap.Validated {
		return false, nil
	}
	checkedIn := at
	device := deviceID
	snap.Validated = true
	snap.CheckedInAt = &checkedIn
	snap.CheckedInBy = &device
	s.byID[ticketID] = snap
	s.byCode[snap.Code] = ticketID
	s.commits++
	return true, nil
}

func (s *CheckInStore) CommitPaidCheckIn(_ context.Context, ticketID uuid.UUID, at time.Time, deviceID uuid.UUID, paymentRef string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failLocked(); err != nil {
		return false, err
	}
	snap, ok := s.byID[ticketID]
	if !ok || snap.Validated || !snap.PaymentStatus.AwaitingPayment() {
		return false, nil
	}
	checkedIn := at
	device := deviceID
	ref := paymentRef
	snap.Validated = true
	snap.CheckedInAt = &checkedIn
	snap.CheckedInBy = &device
	snap.PaymentStatus = ticket.PaymentPaid
	snap.PaymentRef = &ref
	s.byID[ticketID] = snap
	s.commits++
	return true, nil
}
