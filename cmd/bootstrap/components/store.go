package components

import (
	"fmt"

	"ticketgate/internal/infra/checkinstore"
	"ticketgate/internal/infra/kv"
	"ticketgate/internal/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewCheckInStore,
		NewLocalStore,
	),
)

func NewCheckInStore(pool *pgxpool.Pool) *checkinstore.PostgresStore {
	return checkinstore.New(pool)
}

// NewLocalStore picks the durable backend for device-local state.
func NewLocalStore(cfg config.Config) (kv.Store, error) {
	switch cfg.Local.Backend {
	case "file":
		return kv.NewFileStore(cfg.Local.Dir)
	case "redis":
		client, err := kv.NewRedisClient(cfg.Local.RedisURL)
		if err != nil {
			return nil, err
		}
		return kv.NewRedisStore(client, "ticketgate:"), nil
	default:
		return nil, fmt.Errorf("unknown local state backend %q", cfg.Local.Backend)
	}
}
