package alert

import (
	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("alert",
	fx.Provide(func(cfg config.Config) Config {
		recipients := cfg.NotifyRecipients
		if cfg.NotifyDistributors {
			recipients = append(append([]string(nil), recipients...), cfg.DistributorRecipients...)
		}
		return Config{
			DefaultThreshold: cfg.StockThreshold,
			Cooldown:         cfg.AlertCooldown,
			Recipients:       recipients,
		}
	}),
	fx.Provide(NewMonitor),
)
