package main

import (
	"context"
	"log/slog"
	"os"

	"ticketgate/cmd/bootstrap"
	"ticketgate/internal/engine/cache"
	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/handler"
	"ticketgate/internal/handler/api"
	"ticketgate/internal/handler/middleware"
	"ticketgate/internal/infra/checkinstore"
	"ticketgate/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

func init() {
	// Fail safe: never expose debug output on a misconfigured gate device
	gin.SetMode(gin.ReleaseMode)

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}
}

func startServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, logger *slog.Logger, scanHandler *api.ScanHandler, syncHandler *api.SyncHandler, authMiddleware *middleware.AuthMiddleware, mwLogger *middleware.Logger) {
	handler.NewRouter(engine, cfg, mwLogger, scanHandler, syncHandler, authMiddleware)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			gin.EnableJsonDecoderDisallowUnknownFields()
			listenAddr := ":" + cfg.Server.Port
			logger.Info("starting gate server", "address", listenAddr, "mode", gin.Mode())
			go func() {
				if err := engine.Run(listenAddr); err != nil {
					logger.Error("gate server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			logger.Info("stopping gate server")
			return nil
		},
	})
}

// warmStore prepares the authoritative schema and the first cache load.
// Both are best effort: a device that boots offline serves scans from its
// restored cache and reconciles later.
func warmStore(lc fx.Lifecycle, pool *pgxpool.Pool, ticketCache *cache.TicketCache, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := checkinstore.EnsureSchema(ctx, pool); err != nil {
				logger.Warn("schema check skipped, store unreachable", "error", err)
				return nil
			}
			if err := ticketCache.Load(ctx); err != nil {
				logger.Warn("initial cache load failed, using restored snapshot", "error", err)
			}
			return nil
		},
	})
}

func startReconciler(lc fx.Lifecycle, reconciler *reconcile.Reconciler, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				reconciler.Run(ctx)
			}()
			logger.Info("reconciler started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func main() {
	app := fx.New(
		bootstrap.Module,
		fx.Provide(
			func() *gin.Engine {
				return gin.New()
			},
		),
		fx.Invoke(
			warmStore,
			startReconciler,
			startServer,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		slog.Error("failed to stop application cleanly", "error", err)
	}

	slog.Info("application stopped")
}
