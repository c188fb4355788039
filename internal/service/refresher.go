package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/limbo/discipline/internal/repository"
)

// RefreshTarget is what the Refresher drives; *Coordinator implements it.
type RefreshTarget interface {
	Refresh(ctx context.Context, habitID uuid.UUID) error
	Flush(ctx context.Context) (int, error)
}

// HabitLister returns the habits that should be kept fresh.
type HabitLister func(ctx context.Context) ([]uuid.UUID, error)

// ActiveHabits lists active habit IDs from the habits repository.
func ActiveHabits(repo repository.HabitsRepositoryI) HabitLister {
	return func(ctx context.Context) ([]uuid.UUID, error) {
		habits, err := repo.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(habits))
		for _, h := range habits {
			ids = append(ids, h.ID)
		}
		return ids, nil
	}
}

// Ticker abstracts time.Ticker so tests can drive the loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func NewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Refresher periodically replays the outbox and refreshes every listed habit.
type Refresher struct {
	target    RefreshTarget
	list      HabitLister
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type RefresherOption func(*Refresher)

func WithTicker(newTicker func(time.Duration) Ticker) RefresherOption {
	return func(r *Refresher) { r.newTicker = newTicker }
}

func WithRefresherLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) { r.logger = l }
}

func NewRefresher(target RefreshTarget, list HabitLister, interval time.Duration, opts ...RefresherOption) *Refresher {
	if target == nil || list == nil {
		log.Fatal("on refresher provided nil dependencies")
	}
	if interval <= 0 {
		log.Fatal("refresher interval must be positive")
	}
	r := &Refresher{
		target:    target,
		list:      list,
		interval:  interval,
		newTicker: NewTicker,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce flushes the outbox and refreshes each habit. Errors of single
// habits don't stop the pass; they are returned joined.
func (r *Refresher) RunOnce(ctx context.Context) error {
	var errs []error
	if n, err := r.target.Flush(ctx); err != nil {
		r.logger.Warn("outbox flush failed", slog.Int("replayed", n), slog.String("error", err.Error()))
		errs = append(errs, err)
	} else if n > 0 {
		r.logger.Info("outbox flushed", slog.Int("replayed", n))
	}
	ids, err := r.list(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if err := r.target.Refresh(ctx, id); err != nil {
			r.logger.Warn("habit refresh failed", slog.String("habit_id", id.String()), slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start runs RunOnce on every tick until Stop or ctx is done. Starting a
// running refresher does nothing.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	ticker := r.newTicker(r.interval)
	go func(done chan struct{}) {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				_ = r.RunOnce(ctx)
			}
		}
	}(r.done)
}

// Stop ends the loop and waits for a running pass to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
