package remote

import (
	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("remote",
	fx.Provide(func(cfg config.Config) InventoryClient {
		return NewClient(Config{
			BaseURL: cfg.RemoteBaseURL,
			OrgID:   cfg.RemoteOrgID,
			Token:   cfg.RemoteToken,
			Timeout: cfg.RemoteTimeout,
		})
	}),
)
