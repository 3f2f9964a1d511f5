// Package worker runs the scheduled jobs: full sync, notification queue
// flush, change-log retention and outbox drain.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/stocksync/internal/events"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/notify"
	syncdomain "github.com/smallbiznis/stocksync/internal/sync/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params collects the worker dependencies.
type Params struct {
	fx.In

	Sync       syncdomain.Service
	Dispatcher *notify.Dispatcher
	Repo       ledgerdomain.Repository
	Publisher  *events.Publisher `optional:"true"`
	Lock       *Lock             `optional:"true"`
	Config     Config            `optional:"true"`
	Log        *zap.Logger
}

// Worker drives the periodic jobs. Each loop is independent; jobs may
// overlap in wall-clock time with request-triggered syncs.
type Worker struct {
	sync       syncdomain.Service
	dispatcher *notify.Dispatcher
	repo       ledgerdomain.Repository
	publisher  *events.Publisher
	lock       *Lock
	cfg        Config
	log        *zap.Logger
}

func New(p Params) *Worker {
	return &Worker{
		sync:       p.Sync,
		dispatcher: p.Dispatcher,
		repo:       p.Repo,
		publisher:  p.Publisher,
		lock:       p.Lock,
		cfg:        p.Config.withDefaults(),
		log:        p.Log.Named("worker"),
	}
}

// RunSyncForever runs the scheduled full sync at the configured cadence.
func (w *Worker) RunSyncForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunSyncOnce(ctx); err != nil {
				w.log.Warn("scheduled sync failed", zap.Error(err))
			}
		}
	}
}

// RunSyncOnce triggers one scheduled full sync pass. With a lock
// configured only one instance runs the pass; the others skip.
func (w *Worker) RunSyncOnce(ctx context.Context) error {
	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx, fullSyncLock, w.cfg.LockTTL)
		if err != nil {
			return err
		}
		if !acquired {
			w.log.Info("full sync held by another instance, skipping")
			return nil
		}
		defer w.lock.Release(ctx, fullSyncLock)
	}
	summary, err := w.sync.SyncAll(ctx, syncdomain.TriggerScheduled)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		w.notifySyncFailures(ctx, summary)
	}
	return nil
}

// notifySyncFailures tells the admin recipients about a partially
// failed run. The dispatcher's gating decides whether anything is
// actually delivered.
func (w *Worker) notifySyncFailures(ctx context.Context, summary syncdomain.RunSummary) {
	message := fmt.Sprintf("Scheduled sync finished with %d failed of %d processed items.",
		summary.Failed, summary.Processed)
	for _, recipient := range w.cfg.NotifyRecipients {
		err := w.dispatcher.Send(ctx, notify.Notification{
			Type:      notify.TypeSyncFailed,
			Recipient: recipient,
			Data:      map[string]any{"message": message},
		})
		if err != nil {
			w.log.Warn("sync failure notification not delivered",
				zap.String("recipient", recipient),
				zap.Error(err))
		}
	}
}

// RunFlushForever polls the notification queue for an elapsed batch
// window.
func (w *Worker) RunFlushForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.FlushTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.dispatcher.FlushDue(ctx)
		}
	}
}

// RunRetentionForever purges change-log rows past the retention window.
func (w *Worker) RunRetentionForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.RetentionInterval)
	defer ticker.Stop()

	for {
		if err := w.RunRetentionOnce(ctx); err != nil {
			w.log.Warn("change log purge failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunRetentionOnce purges one retention window.
func (w *Worker) RunRetentionOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -w.cfg.RetentionDays)
	purged, err := w.repo.PurgeChangesBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		w.log.Info("purged change log entries",
			zap.Int64("purged", purged),
			zap.Time("cutoff", cutoff))
	}
	return nil
}

// RunOutboxForever drains pending stock events into kafka.
func (w *Worker) RunOutboxForever(ctx context.Context) {
	if w.publisher == nil {
		w.log.Info("no kafka brokers configured, outbox drain disabled")
		return
	}
	ticker := time.NewTicker(w.cfg.OutboxTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.publisher.Drain(ctx, w.cfg.OutboxBatch); err != nil {
				w.log.Warn("outbox drain failed", zap.Error(err))
			}
		}
	}
}
