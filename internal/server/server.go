// Package server exposes the data boundary for collaborators: manual
// sync triggers, commerce-side events, alert and change log reads.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/stocksync/internal/actorctx"
	"github.com/smallbiznis/stocksync/internal/alert"
	"github.com/smallbiznis/stocksync/internal/config"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	syncdomain "github.com/smallbiznis/stocksync/internal/sync/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server holds the HTTP surface dependencies.
type Server struct {
	cfg     config.Config
	syncSvc syncdomain.Service
	monitor *alert.Monitor
	repo    ledgerdomain.Repository
	log     *zap.Logger
}

// Params collects the server dependencies.
type Params struct {
	fx.In

	Config  config.Config
	SyncSvc syncdomain.Service
	Monitor *alert.Monitor
	Repo    ledgerdomain.Repository
	Log     *zap.Logger
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:     p.Config,
		syncSvc: p.SyncSvc,
		monitor: p.Monitor,
		repo:    p.Repo,
		log:     p.Log.Named("server"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(actorContext())
	router.Use(requestLogger(s.log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sync/run", s.RunSync)
		v1.POST("/sync/products/:id", s.SyncProduct)
		v1.POST("/products/:id/stock", s.UpdateStock)
		v1.POST("/orders/completed", s.OrderCompleted)
		v1.GET("/alerts", s.ListAlerts)
		v1.POST("/alerts/:id/dismiss", s.DismissAlert)
		v1.GET("/changes", s.ListChanges)
	}
	return router
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(start),
)

func start(lc fx.Lifecycle, server *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + server.cfg.HTTPPort,
		Handler: server.Router(),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("port", server.cfg.HTTPPort))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// actorContext attributes ledger writes made through the API. Callers
// identify themselves with the X-Actor header; unattributed requests
// fall back to the system actor.
func actorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx = actorctx.WithActor(ctx, c.GetHeader("X-Actor"))
		ctx = actorctx.WithRequestID(ctx, c.GetHeader("X-Request-ID"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()))
		}
	}
}
