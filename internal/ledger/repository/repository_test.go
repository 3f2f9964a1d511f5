package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRepo(t *testing.T) *Repository {
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
	if err := db.AutoMigrate(
		&ledgerdomain.StockRecord{},
		&ledgerdomain.StockChangeEntry{},
		&ledgerdomain.StockAlert{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return New(db, node)
}

func linked(id string) *string { return &id }

func TestListLinkedExcludesUnlinked(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	records := []*ledgerdomain.StockRecord{
		{ProductID: 1, RemoteItemID: linked("zi-1")},
		{ProductID: 2},
		{ProductID: 3, RemoteItemID: linked("zi-3")},
	}
	for _, record := range records {
		if err := repo.Upsert(ctx, record); err != nil {
			t.Fatalf("upsert product %d: %v", record.ProductID, err)
		}
	}

	page, err := repo.ListLinked(ctx, 1, 50)
	if err != nil {
		t.Fatalf("list linked: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("linked records = %d, want 2", len(page))
	}
	if page[0].ProductID != 1 || page[1].ProductID != 3 {
		t.Fatalf("unexpected order: %d, %d", page[0].ProductID, page[1].ProductID)
	}
}

func TestApplyQuantityCAS(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &ledgerdomain.StockRecord{ProductID: 7, RemoteItemID: linked("zi-7"), LocalQuantity: 10}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	now := time.Now().UTC()
	err := repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      7,
		ExpectedLocal:  10,
		LocalQuantity:  4,
		RemoteQuantity: 4,
		Status:         ledgerdomain.SyncStatusSynced,
		SyncedAt:       now,
	})
	if err != nil {
		t.Fatalf("apply quantity: %v", err)
	}

	// A second write against the stale expectation must not land.
	err = repo.ApplyQuantity(ctx, ledgerdomain.QuantityUpdate{
		ProductID:      7,
		ExpectedLocal:  10,
		LocalQuantity:  8,
		RemoteQuantity: 8,
		Status:         ledgerdomain.SyncStatusSynced,
		SyncedAt:       now,
	})
	if !errors.Is(err, ledgerdomain.ErrStaleQuantity) {
		t.Fatalf("expected ErrStaleQuantity, got %v", err)
	}

	record, err := repo.FindByProductID(ctx, 7)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if record.LocalQuantity != 4 {
		t.Fatalf("local quantity = %d, want 4", record.LocalQuantity)
	}
}

func TestApplyQuantityMissingRecord(t *testing.T) {
	repo := setupTestRepo(t)
	err := repo.ApplyQuantity(context.Background(), ledgerdomain.QuantityUpdate{ProductID: 99})
	if !errors.Is(err, ledgerdomain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestChangeLogAppendAndPurge(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -40)
	fresh := time.Now().UTC()
	entries := []*ledgerdomain.StockChangeEntry{
		{ProductID: 1, OldQuantity: 10, NewQuantity: 4, Source: ledgerdomain.SourceLocal, CreatedAt: old},
		{ProductID: 1, OldQuantity: 4, NewQuantity: 9, Source: ledgerdomain.SourceRemote, CreatedAt: fresh},
	}
	for _, entry := range entries {
		if err := repo.AppendChange(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	purged, err := repo.PurgeChangesBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	remaining, err := repo.ListChanges(ctx, 1, 10)
	if err != nil {
		t.Fatalf("list changes: %v", err)
	}
	if len(remaining) != 1 || remaining[0].NewQuantity != 9 {
		t.Fatalf("unexpected remaining entries: %+v", remaining)
	}
}

func TestAlertLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	alert := &ledgerdomain.StockAlert{
		ProductID:       5,
		AlertType:       ledgerdomain.AlertTypeLowStock,
		Threshold:       5,
		Status:          ledgerdomain.AlertStatusActive,
		LastTriggeredAt: now,
	}
	if err := repo.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	found, err := repo.FindAlert(ctx, 5, ledgerdomain.AlertTypeLowStock)
	if err != nil {
		t.Fatalf("find alert: %v", err)
	}
	if found.ID != alert.ID {
		t.Fatalf("alert id mismatch")
	}

	if err := repo.MarkNotified(ctx, alert.ID, now); err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	found, _ = repo.FindAlert(ctx, 5, ledgerdomain.AlertTypeLowStock)
	if found.NotificationSentAt == nil {
		t.Fatal("notification_sent_at not set")
	}

	if err := repo.DismissAlert(ctx, alert.ID, now); err != nil {
		t.Fatalf("dismiss: %v", err)
	}
	found, _ = repo.FindAlert(ctx, 5, ledgerdomain.AlertTypeLowStock)
	if found.Status != ledgerdomain.AlertStatusDismissed {
		t.Fatalf("status = %s, want dismissed", found.Status)
	}

	if _, err := repo.FindAlert(ctx, 5, ledgerdomain.AlertTypeOutOfStock); !errors.Is(err, ledgerdomain.ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}
