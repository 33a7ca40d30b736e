// Package connectivity exposes the online/offline state as an injectable
// port so the engine runs identically against real network probes and test
// doubles.
package connectivity

import "sync"

type Connectivity interface {
	Online() bool
	// Changes delivers a value whenever the state flips; true means
	// connectivity was regained. The channel is never closed.
	Changes() <-chan bool
}

// Switch is a manually toggled Connectivity, used both by hosts that learn
// network state from the platform and by tests.
type Switch struct {
	mu      sync.Mutex
	online  bool
	changes chan bool
}

func NewSwitch(online bool) *Switch {
	return &Switch{
		online:  online,
		changes: make(chan bool, 8),
	}
}

func (s *Switch) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *Switch) Changes() <-chan bool {
	return s.changes
}

// SetOnline flips the state and notifies listeners. A notification that
// nobody has drained yet is dropped rather than blocking the caller.
func (s *Switch) SetOnline(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if !changed {
		return
	}
	select {
	case s.changes <- online:
	default:
	}
}
