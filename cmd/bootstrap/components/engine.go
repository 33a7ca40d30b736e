package components

import (
	"log/slog"

	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/connectivity"
	"ticketgate/internal/engine/feedback"
	"ticketgate/internal/engine/queue"
	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/infra/checkinstore"
	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/clock"
	"ticketgate/internal/pkg/config"
	"ticketgate/internal/pkg/errs"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// Device is this scanner's identity: both IDs come from provisioning, not
// from the operator's token.
type Device struct {
	ID      uuid.UUID
	EventID uuid.UUID
}

var EngineModule = fx.Module("engine",
	fx.Provide(
		NewDevice,
		NewConnectivity,
		NewTicketCache,
		NewOfflineQueue,
		NewFeedbackSink,
		NewReconciler,
	),
)

func NewDevice(cfg config.Config) (Device, error) {
	deviceID, err := uuid.Parse(cfg.Device.DeviceID)
	if err != nil {
		return Device{}, errs.Wrap(err, "invalid DEVICE_ID")
	}
	eventID, err := uuid.Parse(cfg.Device.EventID)
	if err != nil {
		return Device{}, errs.Wrap(err, "invalid EVENT_ID")
	}
	return Device{ID: deviceID, EventID: eventID}, nil
}

// NewConnectivity starts optimistic: a failed commit routes through the
// offline queue either way, and the host flips the switch when the platform
// reports link changes.
func NewConnectivity() *connectivity.Switch {
	return connectivity.NewSwitch(true)
}

func NewTicketCache(store *checkinstore.PostgresStore, local kv.Store, device Device, clk clock.Clock, logger *slog.Logger) *cache.TicketCache {
	return cache.New(store, local, device.EventID, clk, logger)
}

func NewOfflineQueue(local kv.Store, device Device, logger *slog.Logger) *queue.OfflineQueue {
	return queue.New(local, device.ID, logger)
}

func NewFeedbackSink(logger *slog.Logger) *feedback.SlogSink {
	return feedback.NewSlogSink(logger)
}

func NewReconciler(
	store *checkinstore.PostgresStore,
	ticketCache *cache.TicketCache,
	offlineQueue *queue.OfflineQueue,
	conn *connectivity.Switch,
	logger *slog.Logger,
	cfg config.Config,
) *reconcile.Reconciler {
	return reconcile.New(store, ticketCache, offlineQueue, conn, logger, reconcile.Config{
		CommitTimeout: cfg.Sync.CommitTimeout,
		BackoffBase:   cfg.Sync.BackoffBase,
		BackoffMax:    cfg.Sync.BackoffMax,
	})
}
