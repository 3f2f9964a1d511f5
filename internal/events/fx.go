package events

import (
	"context"
	"strings"

	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewOutbox),
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config, outbox *Outbox, log *zap.Logger) *Publisher {
		if strings.TrimSpace(cfg.KafkaBrokers) == "" {
			return nil
		}
		publisher := NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, outbox, log)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return publisher.Close()
			},
		})
		return publisher
	}),
)
