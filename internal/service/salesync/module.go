package salesync

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/sistemact/internal/cache"
	"github.com/Additional-Code/sistemact/internal/config"
)

// Module provides the sync coordinator and engine to Fx.
var Module = fx.Options(
	fx.Provide(NewCoordinator, NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(fx.Hook{OnStop: engine.Shutdown})
	}),
)

// NewCoordinator selects the coordinator named by SYNC_COORDINATOR.
func NewCoordinator(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Coordinator, error) {
	switch cfg.Sync.Coordinator {
	case "memory":
		logger.Info("sync coordinator: in-process")
		return NewMemoryCoordinator(), nil
	case "redis":
		client := cache.NewRedisClient(cfg.Cache.Redis)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("ping redis for sync coordinator: %w", err)
				}
				logger.Info("sync coordinator: redis", zap.String("addr", cfg.Cache.Redis.Addr))
				return nil
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return NewRedisCoordinator(client, cfg.Sync.LockTTL), nil
	default:
		return nil, fmt.Errorf("unsupported sync coordinator: %s", cfg.Sync.Coordinator)
	}
}
