package notify

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/stocksync/internal/clock"
	"github.com/smallbiznis/stocksync/internal/observability/metrics"
	"go.uber.org/zap"
)

// Config controls gating and batching of notifications.
type Config struct {
	EmailEnabled bool
	AdminEnabled bool
	Batching     bool
	BatchDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchDelay <= 0 {
		c.BatchDelay = 5 * time.Minute
	}
	return c
}

// Dispatcher owns the notification queue. When batching is enabled the
// first enqueued entry arms a one-shot flush window; FlushDue fires the
// flush once the window elapses.
type Dispatcher struct {
	cfg     Config
	mailer  Mailer
	clock   clock.Clock
	log     *zap.Logger
	metrics *metrics.SyncMetrics

	mu         sync.Mutex
	queue      []queueEntry
	flushDueAt time.Time
}

func NewDispatcher(cfg Config, mailer Mailer, clk clock.Clock, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg.withDefaults(),
		mailer:  mailer,
		clock:   clk,
		log:     log.Named("notify.dispatcher"),
		metrics: metrics.Sync(),
	}
}

// Send gates, then either delivers immediately or enqueues for the next
// batch flush. A suppressed notification is not an error.
func (d *Dispatcher) Send(ctx context.Context, n Notification) error {
	if _, err := subjectFor(n.Type); err != nil {
		d.log.Error("unknown notification type", zap.String("type", string(n.Type)))
		return err
	}
	if !d.cfg.EmailEnabled {
		d.metrics.IncNotification("suppressed")
		d.log.Debug("email notifications disabled", zap.String("type", string(n.Type)))
		return nil
	}
	if n.Type.adminOnly() && !d.cfg.AdminEnabled {
		d.metrics.IncNotification("suppressed")
		d.log.Debug("admin notifications disabled", zap.String("type", string(n.Type)))
		return nil
	}

	if d.cfg.Batching {
		d.enqueue(n)
		return nil
	}
	return d.deliver(n)
}

func (d *Dispatcher) enqueue(n Notification) {
	now := d.clock.Now()
	d.mu.Lock()
	if len(d.queue) == 0 {
		// One-shot window; later enqueues never reschedule it.
		d.flushDueAt = now.Add(d.cfg.BatchDelay)
	}
	d.queue = append(d.queue, queueEntry{Notification: n, EnqueuedAt: now})
	depth := len(d.queue)
	d.mu.Unlock()

	d.metrics.IncNotification("queued")
	d.metrics.SetQueueDepth(depth)
	d.log.Debug("notification queued",
		zap.String("type", string(n.Type)),
		zap.String("recipient", n.Recipient),
		zap.Int("queue_depth", depth))
}

func (d *Dispatcher) deliver(n Notification) error {
	subject, body, err := renderNotification(n, d.clock.Now())
	if err != nil {
		return err
	}
	if err := d.mailer.Send(n.Recipient, subject, body); err != nil {
		d.metrics.IncNotification("failed")
		d.log.Error("notification send failed",
			zap.String("type", string(n.Type)),
			zap.String("recipient", n.Recipient),
			zap.Error(err))
		return err
	}
	d.metrics.IncNotification("sent")
	return nil
}

// FlushDue flushes the queue when the batch window has elapsed. Called
// on a short tick by the worker.
func (d *Dispatcher) FlushDue(ctx context.Context) {
	d.mu.Lock()
	due := len(d.queue) > 0 && !d.clock.Now().Before(d.flushDueAt)
	d.mu.Unlock()
	if due {
		d.Flush(ctx)
	}
}

// Flush groups queued entries per recipient, sends one digest each and
// clears the queue unconditionally. A failed recipient does not block
// the others and failed entries are dropped, not retried.
func (d *Dispatcher) Flush(ctx context.Context) {
	d.mu.Lock()
	entries := d.queue
	d.queue = nil
	d.flushDueAt = time.Time{}
	d.mu.Unlock()

	d.metrics.SetQueueDepth(0)
	if len(entries) == 0 {
		return
	}

	grouped := make(map[string][]queueEntry)
	order := make([]string, 0)
	for _, entry := range entries {
		if _, seen := grouped[entry.Recipient]; !seen {
			order = append(order, entry.Recipient)
		}
		grouped[entry.Recipient] = append(grouped[entry.Recipient], entry)
	}

	for _, recipient := range order {
		batch := grouped[recipient]
		subject, body, err := renderDigest(batch)
		if err != nil {
			d.log.Error("digest render failed", zap.String("recipient", recipient), zap.Error(err))
			continue
		}
		if err := d.mailer.Send(recipient, subject, body); err != nil {
			d.metrics.IncNotification("failed")
			d.log.Error("digest send failed",
				zap.String("recipient", recipient),
				zap.Int("entries", len(batch)),
				zap.Error(err))
			continue
		}
		d.metrics.IncNotification("sent")
		d.log.Info("digest sent",
			zap.String("recipient", recipient),
			zap.Int("entries", len(batch)))
	}
}

// QueueDepth returns the number of entries waiting for the next flush.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
