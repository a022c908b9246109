package battlenet

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// LimiterConfig describes the scheduling constraints applied to every remote call.
type LimiterConfig struct {
	// ReservoirSize is the call budget per window; zero or less disables it.
	ReservoirSize int
	// ReservoirWindow is the refill period.
	ReservoirWindow time.Duration
	// MaxConcurrent caps in-flight calls; zero or less means one.
	MaxConcurrent int
	// MinTime is the minimum spacing between call starts.
	MinTime time.Duration
}

// Job is a unit of remote work.
type Job func(ctx context.Context) error

// Limiter schedules jobs under a reservoir, a concurrency cap and start spacing.
type Limiter struct {
	reservoir *reservoir
	sem       *semaphore.Weighted
	spacing   *rate.Limiter
	logger    *zap.Logger
}

// NewLimiter creates a limiter. A nil clock uses SystemClock.
func NewLimiter(cfg LimiterConfig, clock Clock, logger *zap.Logger) *Limiter {
	if clock == nil {
		clock = SystemClock
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	l := &Limiter{
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		logger: logger,
	}
	if cfg.ReservoirSize > 0 && cfg.ReservoirWindow > 0 {
		l.reservoir = newReservoir(cfg.ReservoirSize, cfg.ReservoirWindow, clock)
	}
	if cfg.MinTime > 0 {
		l.spacing = rate.NewLimiter(rate.Every(cfg.MinTime), 1)
	}
	return l
}

// Schedule waits for capacity and runs job under name.
func (l *Limiter) Schedule(ctx context.Context, name string, job Job) error {
	if l.reservoir != nil {
		if err := l.reservoir.take(ctx); err != nil {
			return err
		}
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)

	if l.spacing != nil {
		if err := l.spacing.Wait(ctx); err != nil {
			return err
		}
	}

	l.logger.Debug("Running job", zap.String("job", name))
	return job(ctx)
}

// Remaining returns the calls left in the current window, or -1 when unlimited.
func (l *Limiter) Remaining() int {
	if l.reservoir == nil {
		return -1
	}
	return l.reservoir.remaining()
}

// reservoir is a call budget that refills to full once per window.
type reservoir struct {
	size   int
	window time.Duration
	clock  Clock

	mu       sync.Mutex
	left     int
	refillAt time.Time
}

func newReservoir(size int, window time.Duration, clock Clock) *reservoir {
	return &reservoir{
		size:     size,
		window:   window,
		clock:    clock,
		left:     size,
		refillAt: clock.Now().Add(window),
	}
}

func (r *reservoir) take(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.clock.Now()
		if !now.Before(r.refillAt) {
			r.left = r.size
			r.refillAt = now.Add(r.window)
		}
		if r.left > 0 {
			r.left--
			r.mu.Unlock()
			return nil
		}
		wait := r.refillAt.Sub(now)
		r.mu.Unlock()

		if err := r.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *reservoir) remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.clock.Now().Before(r.refillAt) {
		return r.size
	}
	return r.left
}
