package worker

import "time"

// Config controls the scheduled job loops. The core services expose
// plain entry points; all cadence lives here.
type Config struct {
	SyncInterval      time.Duration
	FlushTick         time.Duration
	RetentionInterval time.Duration
	RetentionDays     int
	OutboxTick        time.Duration
	OutboxBatch       int
	LockTTL           time.Duration
	NotifyRecipients  []string
}

func DefaultConfig() Config {
	return Config{
		SyncInterval:      time.Hour,
		FlushTick:         30 * time.Second,
		RetentionInterval: 24 * time.Hour,
		RetentionDays:     30,
		OutboxTick:        5 * time.Second,
		OutboxBatch:       100,
		LockTTL:           15 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SyncInterval <= 0 {
		c.SyncInterval = defaults.SyncInterval
	}
	if c.FlushTick <= 0 {
		c.FlushTick = defaults.FlushTick
	}
	if c.RetentionInterval <= 0 {
		c.RetentionInterval = defaults.RetentionInterval
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaults.RetentionDays
	}
	if c.OutboxTick <= 0 {
		c.OutboxTick = defaults.OutboxTick
	}
	if c.OutboxBatch <= 0 {
		c.OutboxBatch = defaults.OutboxBatch
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	return c
}
