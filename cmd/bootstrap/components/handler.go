package components

import (
	"ticketgate/internal/handler/api"
	"ticketgate/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewScanHandler,
		api.NewSyncHandler,
		middleware.NewAuthMiddleware,
	),
)
