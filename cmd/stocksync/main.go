package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stocksync/internal/alert"
	"github.com/smallbiznis/stocksync/internal/clock"
	"github.com/smallbiznis/stocksync/internal/commerce"
	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	"github.com/smallbiznis/stocksync/internal/config"
	"github.com/smallbiznis/stocksync/internal/events"
	"github.com/smallbiznis/stocksync/internal/ledger"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/logger"
	"github.com/smallbiznis/stocksync/internal/notify"
	"github.com/smallbiznis/stocksync/internal/observability/metrics"
	"github.com/smallbiznis/stocksync/internal/observability/tracing"
	"github.com/smallbiznis/stocksync/internal/remote"
	"github.com/smallbiznis/stocksync/internal/seed"
	"github.com/smallbiznis/stocksync/internal/server"
	syncmodule "github.com/smallbiznis/stocksync/internal/sync"
	"github.com/smallbiznis/stocksync/internal/worker"
	"github.com/smallbiznis/stocksync/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
			metrics.SyncWithConfig(metrics.Config{
				ServiceName: "stocksync",
				Environment: cfg.Environment,
			})
			_, err := tracing.NewProvider(lc, tracing.Config{
				Enabled:          cfg.TracingEnabled,
				ServiceName:      "stocksync",
				ServiceVersion:   version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.TracingEndpoint,
				ExporterProtocol: cfg.TracingProtocol,
				SamplingRatio:    cfg.TracingSampling,
			}, log)
			return err
		}),
		fx.Invoke(func(conn *gorm.DB) error {
			return conn.AutoMigrate(
				&commercedomain.Product{},
				&ledgerdomain.StockRecord{},
				&ledgerdomain.StockChangeEntry{},
				&ledgerdomain.StockAlert{},
				&events.StockEvent{},
				&worker.SyncLock{},
			)
		}),
		fx.Invoke(func(cfg config.Config, conn *gorm.DB, log *zap.Logger) error {
			if !cfg.SeedDemoData || cfg.IsProduction() {
				return nil
			}
			log.Info("seeding demo catalog")
			return seed.EnsureDemoCatalog(conn)
		}),
		ledger.Module,
		commerce.Module,
		remote.Module,
		events.Module,
		notify.Module,
		alert.Module,
		syncmodule.Module,
		worker.Module,
		server.Module,
	)
	app.Run()
}
