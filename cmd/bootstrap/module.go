package bootstrap

import (
	"ticketgate/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DBModule,
	JWTModule,
	components.StoreModule,
	components.EngineModule,
	components.UseCaseModule,
	components.HandlerModule,
)
