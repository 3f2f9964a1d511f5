package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels applied to every metric.
type Config struct {
	ServiceName string
	Environment string
}

// SyncMetrics exposes counters and gauges for the stock sync engine,
// the low-stock monitor and the notification dispatcher.
type SyncMetrics struct {
	syncRuns          *prometheus.CounterVec
	syncItems         *prometheus.CounterVec
	syncRunDuration   prometheus.Histogram
	stockAlerts       *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	notificationQueue prometheus.Gauge
}

var (
	syncMetricsOnce sync.Once
	syncMetrics     *SyncMetrics
)

func Sync() *SyncMetrics {
	return SyncWithConfig(Config{})
}

func SyncWithConfig(cfg Config) *SyncMetrics {
	syncMetricsOnce.Do(func() {
		syncMetrics = newSyncMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return syncMetrics
}

func ResetSyncMetricsForTest() {
	syncMetricsOnce = sync.Once{}
	syncMetrics = nil
}

func newSyncMetrics(registerer prometheus.Registerer, cfg Config) *SyncMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "stocksync"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	syncRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "stocksync_sync_runs_total",
			Help:        "Total full sync runs by trigger.",
			ConstLabels: constLabels,
		},
		[]string{"trigger"}, // scheduled | manual
	)

	syncItems := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "stocksync_sync_items_total",
			Help:        "Products processed during sync by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // updated | unchanged | skipped | failed
	)

	syncRunDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "stocksync_sync_run_duration_seconds",
			Help:        "Wall-clock duration of full sync runs.",
			Buckets:     []float64{0.5, 1, 5, 15, 60, 300, 900},
			ConstLabels: constLabels,
		},
	)

	stockAlerts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "stocksync_stock_alerts_total",
			Help:        "Stock alerts raised by type.",
			ConstLabels: constLabels,
		},
		[]string{"type"}, // low_stock | out_of_stock
	)

	notifications := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "stocksync_notifications_total",
			Help:        "Notification deliveries by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // sent | queued | suppressed | failed
	)

	notificationQueue := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "stocksync_notification_queue_depth",
			Help:        "Entries currently waiting in the notification batch queue.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		syncRuns,
		syncItems,
		syncRunDuration,
		stockAlerts,
		notifications,
		notificationQueue,
	)

	return &SyncMetrics{
		syncRuns:          syncRuns,
		syncItems:         syncItems,
		syncRunDuration:   syncRunDuration,
		stockAlerts:       stockAlerts,
		notifications:     notifications,
		notificationQueue: notificationQueue,
	}
}

func (m *SyncMetrics) IncSyncRun(trigger string) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(trigger).Inc()
}

func (m *SyncMetrics) IncSyncItem(result string) {
	if m == nil {
		return
	}
	m.syncItems.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) ObserveSyncRun(duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRunDuration.Observe(duration.Seconds())
}

func (m *SyncMetrics) IncStockAlert(alertType string) {
	if m == nil {
		return
	}
	m.stockAlerts.WithLabelValues(alertType).Inc()
}

func (m *SyncMetrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *SyncMetrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.notificationQueue.Set(float64(depth))
}
