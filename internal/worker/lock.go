package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/stocksync/internal/clock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const fullSyncLock = "full_sync"

// SyncLock is one named lock row. A lock is held while locked_until is
// in the future; expiry doubles as crash recovery.
type SyncLock struct {
	Name        string    `gorm:"primaryKey"`
	LockedBy    string    `gorm:"type:text;not null"`
	LockedUntil time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (SyncLock) TableName() string { return "sync_locks" }

// Lock serializes scheduled jobs across instances through the database.
type Lock struct {
	db    *gorm.DB
	clock clock.Clock
	owner string
	log   *zap.Logger
}

func NewLock(db *gorm.DB, clk clock.Clock, log *zap.Logger) *Lock {
	return &Lock{
		db:    db,
		clock: clk,
		owner: uuid.NewString(),
		log:   log.Named("worker.lock"),
	}
}

// Acquire claims the named lock for ttl. It returns false without error
// when another live owner holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	now := l.clock.Now()
	acquired := false
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO sync_locks (name, locked_by, locked_until, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (name) DO NOTHING`,
			name, l.owner, now, now,
		).Error; err != nil {
			return err
		}
		result := tx.WithContext(ctx).Exec(
			`UPDATE sync_locks
			 SET locked_by = ?, locked_until = ?, updated_at = ?
			 WHERE name = ? AND (locked_by = ? OR locked_until <= ?)`,
			l.owner, now.Add(ttl), now, name, l.owner, now,
		)
		if result.Error != nil {
			return result.Error
		}
		acquired = result.RowsAffected > 0
		return nil
	})
	return acquired, err
}

// Release returns the named lock early. Only the current owner can
// release; an expired takeover is left alone.
func (l *Lock) Release(ctx context.Context, name string) {
	now := l.clock.Now()
	if err := l.db.WithContext(ctx).Exec(
		`UPDATE sync_locks
		 SET locked_until = ?, updated_at = ?
		 WHERE name = ? AND locked_by = ?`,
		now, now, name, l.owner,
	).Error; err != nil {
		l.log.Warn("lock release failed", zap.String("name", name), zap.Error(err))
	}
}
