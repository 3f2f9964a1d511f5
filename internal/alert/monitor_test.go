package alert

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/ledger/repository"
	"github.com/smallbiznis/stocksync/internal/notify"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(recipient, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, subject)
	m.mu.Unlock()
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func setupMonitor(t *testing.T, cfg Config) (*Monitor, domain.Repository, *recordingMailer, *fakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Pin :memory: to one connection so every query sees the same database.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&domain.StockRecord{}, &domain.StockChangeEntry{}, &domain.StockAlert{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	repo := repository.New(db, node)
	mailer := &recordingMailer{}
	clk := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	dispatcher := notify.NewDispatcher(notify.Config{EmailEnabled: true, AdminEnabled: true}, mailer, clk, zap.NewNop())

	monitor := NewMonitor(Params{
		Config:     cfg,
		Repo:       repo,
		Dispatcher: dispatcher,
		Clock:      clk,
		Log:        zap.NewNop(),
	})
	return monitor, repo, mailer, clk
}

func TestEvaluateRaisesLowStockOnce(t *testing.T) {
	monitor, repo, mailer, _ := setupMonitor(t, Config{DefaultThreshold: 5, Cooldown: 24 * time.Hour, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 101, "Widget", 3)

	alert, err := repo.FindAlert(ctx, 101, domain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if alert.Status != domain.AlertStatusActive {
		t.Fatalf("status = %s, want active", alert.Status)
	}
	if alert.NotificationSentAt == nil {
		t.Fatal("notification_sent_at not set")
	}
	if mailer.count() != 1 {
		t.Fatalf("notifications = %d, want 1", mailer.count())
	}

	// Re-detection within cooldown: alert row updated, no second mail.
	monitor.Evaluate(ctx, 101, "Widget", 2)
	if mailer.count() != 1 {
		t.Fatalf("notifications after re-trigger = %d, want 1", mailer.count())
	}

	alerts, err := repo.ListAlerts(ctx, domain.AlertStatusActive, 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alert rows = %d, want 1", len(alerts))
	}
}

func TestCooldownExpiryAllowsNewNotification(t *testing.T) {
	monitor, _, mailer, clk := setupMonitor(t, Config{Cooldown: 24 * time.Hour, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 102, "Gadget", 4)
	clk.Advance(25 * time.Hour)
	monitor.Evaluate(ctx, 102, "Gadget", 3)

	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want 2 after cooldown expiry", mailer.count())
	}
}

func TestZeroQuantityIsOutOfStock(t *testing.T) {
	monitor, repo, _, _ := setupMonitor(t, Config{Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 103, "Sprocket", 0)

	if _, err := repo.FindAlert(ctx, 103, domain.AlertTypeOutOfStock); err != nil {
		t.Fatalf("out_of_stock alert missing: %v", err)
	}
	if _, err := repo.FindAlert(ctx, 103, domain.AlertTypeLowStock); err == nil {
		t.Fatal("low_stock alert should not exist for zero quantity")
	}
}

func TestThresholdOverrideWins(t *testing.T) {
	monitor, repo, _, _ := setupMonitor(t, Config{DefaultThreshold: 5, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	override := 20
	if err := repo.Upsert(ctx, &domain.StockRecord{
		ProductID:         104,
		LocalQuantity:     15,
		ThresholdOverride: &override,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// 15 is above the default threshold but below the override.
	monitor.Evaluate(ctx, 104, "Doohickey", 15)

	alert, err := repo.FindAlert(ctx, 104, domain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if alert.Threshold != 20 {
		t.Fatalf("threshold = %d, want 20", alert.Threshold)
	}
}

func TestReplenishNoticeWithoutAutoDismiss(t *testing.T) {
	monitor, repo, mailer, _ := setupMonitor(t, Config{DefaultThreshold: 5, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 105, "Widget", 2)
	if mailer.count() != 1 {
		t.Fatalf("notifications = %d, want 1", mailer.count())
	}

	monitor.Evaluate(ctx, 105, "Widget", 50)
	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want replenished notice", mailer.count())
	}

	// Staying healthy sends nothing more; one notice per recovery.
	monitor.Evaluate(ctx, 105, "Widget", 60)
	monitor.Evaluate(ctx, 105, "Widget", 55)
	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want no repeat notices while healthy", mailer.count())
	}

	// Recovery never dismisses; that is a manual action.
	alert, err := repo.FindAlert(ctx, 105, domain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if alert.Status != domain.AlertStatusActive {
		t.Fatalf("status = %s, want active after recovery", alert.Status)
	}
}

func TestReplenishNoticeRearmsOnNewBreach(t *testing.T) {
	monitor, _, mailer, _ := setupMonitor(t, Config{DefaultThreshold: 5, Cooldown: 24 * time.Hour, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 108, "Widget", 2)  // breach notification
	monitor.Evaluate(ctx, 108, "Widget", 50) // first recovery notice
	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want 2", mailer.count())
	}

	// The second breach is inside the cooldown, so no breach mail, but
	// it re-arms the recovery notice.
	monitor.Evaluate(ctx, 108, "Widget", 1)
	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want breach suppressed by cooldown", mailer.count())
	}
	monitor.Evaluate(ctx, 108, "Widget", 40)
	if mailer.count() != 3 {
		t.Fatalf("notifications = %d, want a notice for the second recovery", mailer.count())
	}
}

func TestOutOfStockRecoveryNotices(t *testing.T) {
	monitor, _, mailer, _ := setupMonitor(t, Config{DefaultThreshold: 5, Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 109, "Sprocket", 0)
	monitor.Evaluate(ctx, 109, "Sprocket", 30)
	if mailer.count() != 2 {
		t.Fatalf("notifications = %d, want out_of_stock breach plus recovery notice", mailer.count())
	}
}

func TestDismissedAlertReactivatesOnBreach(t *testing.T) {
	monitor, repo, _, clk := setupMonitor(t, Config{Recipients: []string{"ops@example.com"}})
	ctx := context.Background()

	monitor.Evaluate(ctx, 106, "Widget", 3)
	alert, err := repo.FindAlert(ctx, 106, domain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if err := monitor.Dismiss(ctx, alert.ID); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	clk.Advance(time.Hour)
	monitor.Evaluate(ctx, 106, "Widget", 1)

	alert, err = repo.FindAlert(ctx, 106, domain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if alert.Status != domain.AlertStatusActive {
		t.Fatalf("status = %s, want reactivated", alert.Status)
	}
}

func TestHealthyStockWithoutAlertIsQuiet(t *testing.T) {
	monitor, _, mailer, _ := setupMonitor(t, Config{Recipients: []string{"ops@example.com"}})

	monitor.Evaluate(context.Background(), 107, "Widget", 80)
	if mailer.count() != 0 {
		t.Fatalf("notifications = %d, want 0 for healthy stock", mailer.count())
	}
}
