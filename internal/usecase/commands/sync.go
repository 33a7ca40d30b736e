package commands

import (
	"context"
	"time"

	"ticketgate/internal/engine/reconcile"
)

// SyncStatus is the visible "offline/pending sync" indicator: a non-empty
// queue after reconnect is a reportable condition, never silently dropped.
type SyncStatus struct {
	Pending         int       `json:"pending"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
	Online          bool      `json:"online"`
}

type SyncCommands interface {
	SyncNow(ctx context.Context) (*reconcile.Report, error)
	Status() SyncStatus
}

type syncUseCaseImpl struct {
	reconciler *reconcile.Reconciler
	cache      TicketCache
	queue      OfflineQueue
	conn       Connectivity
}

func NewSyncCommands(reconciler *reconcile.Reconciler, ticketCache TicketCache, offlineQueue OfflineQueue, conn Connectivity) SyncCommands {
	return &syncUseCaseImpl{
		reconciler: reconciler,
		cache:      ticketCache,
		queue:      offlineQueue,
		conn:       conn,
	}
}

func (u *syncUseCaseImpl) SyncNow(ctx context.Context) (*reconcile.Report, error) {
	return u.reconciler.Drain(ctx)
}

func (u *syncUseCaseImpl) Status() SyncStatus {
	return SyncStatus{
		Pending:         u.queue.Len(),
		LastRefreshedAt: u.cache.LastRefreshedAt(),
		Online:          u.conn.Online(),
	}
}
