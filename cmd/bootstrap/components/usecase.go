package components

import (
	"log/slog"

	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/connectivity"
	"ticketgate/internal/engine/feedback"
	"ticketgate/internal/engine/queue"
	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/infra/checkinstore"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/usecase/commands"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		NewScanCommands,
		NewSyncCommands,
	),
)

func NewScanCommands(
	store *checkinstore.PostgresStore,
	ticketCache *cache.TicketCache,
	offlineQueue *queue.OfflineQueue,
	conn *connectivity.Switch,
	sink *feedback.SlogSink,
	clk clock.Clock,
	logger *slog.Logger,
	device Device,
	cfg config.Config,
) commands.ScanCommands {
	return commands.NewScanCommands(
		store,
		ticketCache,
		offlineQueue,
		conn,
		sink,
		clk,
		logger,
		device.ID,
		device.EventID,
		cfg.Sync.CommitTimeout,
	)
}

func NewSyncCommands(
	reconciler *reconcile.Reconciler,
	ticketCache *cache.TicketCache,
	offlineQueue *queue.OfflineQueue,
	conn *connectivity.Switch,
) commands.SyncCommands {
	return commands.NewSyncCommands(reconciler, ticketCache, offlineQueue, conn)
}
