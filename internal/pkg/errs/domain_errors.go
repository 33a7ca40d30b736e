package errs

import "errors"

// Domain-specific sentinel errors for the check-in usecase layers
var (
	// Ticket errors
	ErrTicketNotFound = errors.New("ticket not found")

	// Store errors
	ErrStoreUnavailable = errors.New("check-in store unavailable")

	// Queue errors
	ErrDuplicateQueueEntry = errors.New("check-in already queued for this ticket")

	// Sync errors
	ErrSyncInProgress = errors.New("sync already in progress")
	ErrDeviceOffline  = errors.New("device is offline")
)
