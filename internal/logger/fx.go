package logger

import (
	"context"

	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("logger",
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
		log, err := New(cfg.LogLevel, cfg.Environment)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
		return log, nil
	}),
)
