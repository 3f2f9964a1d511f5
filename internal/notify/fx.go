package notify

import (
	"github.com/smallbiznis/stocksync/internal/clock"
	"github.com/smallbiznis/stocksync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("notify",
	fx.Provide(func(cfg config.Config) Mailer {
		return NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom)
	}),
	fx.Provide(func(cfg config.Config, mailer Mailer, clk clock.Clock, log *zap.Logger) *Dispatcher {
		return NewDispatcher(Config{
			EmailEnabled: cfg.EmailNotifications,
			AdminEnabled: cfg.AdminNotifications,
			Batching:     cfg.BatchNotifications,
			BatchDelay:   cfg.BatchDelay,
		}, mailer, clk, log)
	}),
)
