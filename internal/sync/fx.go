package sync

import (
	"github.com/smallbiznis/stocksync/internal/config"
	"github.com/smallbiznis/stocksync/internal/sync/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sync.service",
	fx.Provide(func(cfg config.Config) service.Config {
		return service.Config{
			Direction:   cfg.Direction(),
			Policy:      cfg.Policy(),
			BatchSize:   cfg.BatchSize,
			SyncOnOrder: cfg.SyncOnOrder,
		}
	}),
	fx.Provide(service.New),
)
