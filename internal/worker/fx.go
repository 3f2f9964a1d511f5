package worker

import (
	"context"

	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("worker",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			SyncInterval:     cfg.SyncInterval(),
			RetentionDays:    cfg.LogRetentionDays,
			NotifyRecipients: cfg.NotifyRecipients,
		}.withDefaults()
	}),
	fx.Provide(NewLock),
	fx.Provide(New),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, worker *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunSyncForever(ctx)
			go worker.RunFlushForever(ctx)
			go worker.RunRetentionForever(ctx)
			go worker.RunOutboxForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
