package database

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tracker scopes transactions and reports the ones held open past a threshold.
// The timer is armed on checkout and disarmed on commit or rollback.
type Tracker struct {
	db        *gorm.DB
	threshold time.Duration
	logger    *zap.Logger
	slow      atomic.Int64
}

// NewTracker wraps db. A zero threshold disables slow reporting.
func NewTracker(db *gorm.DB, threshold time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{db: db, threshold: threshold, logger: logger}
}

// DB returns the underlying connection for non-transactional statements.
func (t *Tracker) DB() *gorm.DB {
	return t.db
}

// Transaction runs fn inside a transaction named for diagnostics.
// fn's error rolls the transaction back; a nil return commits it.
func (t *Tracker) Transaction(ctx context.Context, name string, fn func(tx *gorm.DB) error) error {
	start := time.Now()

	var timer *time.Timer
	if t.threshold > 0 {
		timer = time.AfterFunc(t.threshold, func() {
			t.slow.Add(1)
			t.logger.Warn("Transaction held past threshold",
				zap.String("tx", name),
				zap.Duration("threshold", t.threshold),
			)
		})
	}

	err := t.db.WithContext(ctx).Transaction(fn)

	if timer != nil {
		timer.Stop()
	}

	t.logger.Debug("Transaction released",
		zap.String("tx", name),
		zap.Duration("held", time.Since(start)),
		zap.Bool("committed", err == nil),
	)

	return err
}

// SlowCount returns how many transactions crossed the threshold.
func (t *Tracker) SlowCount() int64 {
	return t.slow.Load()
}
