package service

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/limbo/discipline/internal/analytics"
	"github.com/limbo/discipline/internal/cache"
	errorvalues "github.com/limbo/discipline/internal/error_values"
	"github.com/limbo/discipline/internal/metrics"
	"github.com/limbo/discipline/internal/outbox"
	"github.com/limbo/discipline/internal/repository"
	"github.com/limbo/discipline/pkg/entity"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultWriteRetries = 3
	DefaultRetryBackoff = 200 * time.Millisecond
)

// Coordinator keeps per-habit analytics correct in the cache while check-in
// writes are in flight. Changes are applied to the cache first and either
// confirmed by the store, queued for later, or rolled back.
type Coordinator struct {
	habits    repository.HabitsRepositoryI
	checkIns  repository.CheckInsRepositoryI
	summaries repository.AnalyticsRepositoryI
	queue     outbox.Queue

	arena *cache.Arena
	locks *keyedLock
	loads singleflight.Group

	refreshMu sync.Mutex
	refreshes map[uuid.UUID]*refreshHandle

	now          func() time.Time
	logger       *slog.Logger
	metrics      *metrics.Recorder
	writeRetries int
	retryBackoff time.Duration
}

type refreshHandle struct {
	cancel context.CancelFunc
}

type Option func(*Coordinator)

// WithOutbox keeps writes that failed for availability reasons in q instead of
// rolling them back.
func WithOutbox(q outbox.Queue) Option {
	return func(c *Coordinator) { c.queue = q }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Coordinator) { c.metrics = r }
}

// WithWriteRetry sets how many times a failed store write is retried and the
// fixed pause between attempts.
func WithWriteRetry(retries int, interval time.Duration) Option {
	return func(c *Coordinator) {
		c.writeRetries = max(retries, 0)
		c.retryBackoff = interval
	}
}

func NewCoordinator(habits repository.HabitsRepositoryI, checkIns repository.CheckInsRepositoryI,
	summaries repository.AnalyticsRepositoryI, opts ...Option) *Coordinator {
	if habits == nil || checkIns == nil || summaries == nil {
		log.Fatal("on coordinator provided nil repos")
	}
	c := &Coordinator{
		habits:       habits,
		checkIns:     checkIns,
		summaries:    summaries,
		locks:        newKeyedLock(),
		refreshes:    make(map[uuid.UUID]*refreshHandle),
		now:          time.Now,
		logger:       slog.Default(),
		writeRetries: DefaultWriteRetries,
		retryBackoff: DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.arena = cache.New(c.recompute)
	InitValidator()
	return c
}

func (c *Coordinator) recompute(habit entity.Habit, checkIns entity.CheckInLog) entity.Analytics {
	started := time.Now()
	defer func() { c.metrics.Recalculated(time.Since(started)) }()
	return analytics.CalculateForLog(checkIns, startOf(habit, checkIns), "", c.now())
}

// startOf falls back to the earliest record for habits without a start date.
func startOf(habit entity.Habit, checkIns entity.CheckInLog) entity.DateKey {
	if habit.StartDate.Valid() {
		return habit.StartDate
	}
	var first entity.DateKey
	for k := range checkIns {
		if k.Valid() && (first == "" || k < first) {
			first = k
		}
	}
	return first
}

// Mutation is an optimistic change waiting for Commit or Rollback. The
// (habit, date key) it targets stays locked until then.
type Mutation struct {
	HabitID uuid.UUID
	Action  Action
	DateKey entity.DateKey
	// Optimistic is the cache entry right after the change was applied.
	Optimistic cache.Entry

	token    *cache.Token
	release  func()
	finished sync.Once
}

func (m *Mutation) State() cache.State {
	return m.token.State()
}

// BeginMutation validates action, waits for any pending mutation of the same
// (habit, date key), cancels an in-flight refresh of the habit and applies
// the change to the cache.
func (c *Coordinator) BeginMutation(ctx context.Context, habitID uuid.UUID, action Action) (*Mutation, error) {
	if err := ValidateAction(action); err != nil {
		return nil, c.reject(action, err)
	}
	entry, err := c.entry(ctx, habitID)
	if err != nil {
		return nil, &errorvalues.MutationError{Kind: errorvalues.Classify(err), Err: err}
	}
	now := c.now()
	date, err := targetDate(action, entry.Habit, now)
	if err != nil {
		return nil, c.reject(action, err)
	}
	release, err := c.locks.Lock(ctx, lockKey{habitID: habitID, date: date})
	if err != nil {
		return nil, &errorvalues.MutationError{Kind: errorvalues.Classify(err), Err: err}
	}
	c.cancelRefresh(habitID)

	// The previous holder of the lock may have changed this date.
	entry, err = c.entry(ctx, habitID)
	if err != nil {
		release()
		return nil, &errorvalues.MutationError{Kind: errorvalues.Classify(err), Err: err}
	}
	rec, err := applyAction(action, entry.Habit, entry.Log, date, now)
	if err != nil {
		release()
		return nil, c.reject(action, err)
	}
	token, optimistic, err := c.arena.Begin(habitID, date, rec)
	if err != nil {
		release()
		return nil, &errorvalues.MutationError{Kind: errorvalues.KindUnknown, Err: err}
	}
	c.metrics.Pending(1)
	c.logger.Debug("mutation started",
		slog.String("habit_id", habitID.String()),
		slog.String("date", date.String()),
		slog.String("action", string(action.Type)),
	)
	return &Mutation{
		HabitID:    habitID,
		Action:     action,
		DateKey:    date,
		Optimistic: optimistic,
		token:      token,
		release:    release,
	}, nil
}

func (c *Coordinator) reject(action Action, err error) error {
	c.metrics.Mutation(string(action.Type), metrics.OutcomeRejected)
	return &errorvalues.MutationError{Kind: errorvalues.KindValidation, Err: err}
}

// Commit writes the mutation to the store and settles the cache. On success
// the habit is refreshed from the store and its summary saved.
func (c *Coordinator) Commit(ctx context.Context, m *Mutation) error {
	if m == nil || m.token.State() != cache.StatePending {
		return errorvalues.ErrStaleToken
	}
	logger := c.logger.With(
		slog.String("habit_id", m.HabitID.String()),
		slog.String("date", m.DateKey.String()),
		slog.String("action", string(m.Action.Type)),
	)
	err := c.writeWithRetry(ctx, m.HabitID, m.DateKey, m.token.Record)
	if err == nil {
		// An older offline write of this date must not be replayed over this one.
		if c.queue != nil {
			if qErr := c.queue.RemoveKey(context.WithoutCancel(ctx), m.HabitID, m.DateKey); qErr != nil {
				logger.Error("dropping superseded queued write failed", slog.String("error", qErr.Error()))
			}
		}
		if err := c.arena.Commit(m.token); err != nil {
			c.finish(m)
			// Settled elsewhere while the write was in flight, but the store has it.
			if rErr := c.Refresh(ctx, m.HabitID); rErr != nil {
				logger.Warn("refresh after settled write failed", slog.String("error", rErr.Error()))
			}
			return err
		}
		c.settled(m, metrics.OutcomeConfirmed)
		c.afterConfirm(ctx, m.HabitID, logger)
		return nil
	}

	kind := errorvalues.Classify(err)
	if kind == errorvalues.KindAvailability && c.queue != nil {
		qErr := c.queue.Enqueue(context.WithoutCancel(ctx), outbox.Write{
			HabitID: m.HabitID,
			DateKey: m.DateKey,
			Record:  m.token.Record,
		})
		if qErr == nil && c.arena.MarkQueued(m.token) == nil {
			c.settled(m, metrics.OutcomeQueued)
			logger.Warn("store unavailable, write queued", slog.String("error", err.Error()))
			return &errorvalues.MutationError{Kind: kind, Err: err, Queued: true}
		}
		if qErr != nil {
			logger.Error("queueing write failed", slog.String("error", qErr.Error()))
		}
	}
	if _, rbErr := c.arena.Rollback(m.token); rbErr != nil {
		c.finish(m)
		return rbErr
	}
	c.settled(m, metrics.OutcomeRolledBack)
	logger.Warn("write failed, mutation rolled back",
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
	return &errorvalues.MutationError{Kind: kind, Err: err, RolledBack: true}
}

// Rollback abandons a mutation without writing it.
func (c *Coordinator) Rollback(m *Mutation) error {
	if m == nil {
		return errorvalues.ErrStaleToken
	}
	if _, err := c.arena.Rollback(m.token); err != nil {
		c.finish(m)
		return err
	}
	c.settled(m, metrics.OutcomeRolledBack)
	return nil
}

func (c *Coordinator) settled(m *Mutation, outcome string) {
	c.finish(m)
	c.metrics.Mutation(string(m.Action.Type), outcome)
}

// finish releases the date lock and the pending gauge once per mutation.
func (c *Coordinator) finish(m *Mutation) {
	m.finished.Do(func() {
		m.release()
		c.metrics.Pending(-1)
	})
}

// Mutate is BeginMutation followed by Commit.
func (c *Coordinator) Mutate(ctx context.Context, habitID uuid.UUID, action Action) error {
	m, err := c.BeginMutation(ctx, habitID, action)
	if err != nil {
		return err
	}
	return c.Commit(ctx, m)
}

func (c *Coordinator) afterConfirm(ctx context.Context, habitID uuid.UUID, logger *slog.Logger) {
	if err := c.Refresh(ctx, habitID); err != nil {
		logger.Warn("refresh after confirmed write failed", slog.String("error", err.Error()))
	}
	entry, _, ok := c.arena.Get(habitID)
	if !ok {
		return
	}
	if err := c.summaries.Save(ctx, habitID, entry.Analytics); err != nil {
		logger.Warn("saving analytics summary failed", slog.String("error", err.Error()))
	}
}

func (c *Coordinator) write(ctx context.Context, habitID uuid.UUID, date entity.DateKey, rec *entity.CheckIn) error {
	if rec == nil {
		err := c.checkIns.Delete(ctx, habitID, date)
		if errors.Is(err, errorvalues.ErrCheckNotFound) {
			return nil
		}
		return err
	}
	return c.checkIns.Upsert(ctx, *rec)
}

func (c *Coordinator) writeWithRetry(ctx context.Context, habitID uuid.UUID, date entity.DateKey, rec *entity.CheckIn) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryBackoff), uint64(c.writeRetries)),
		ctx,
	)
	return backoff.RetryNotify(func() error {
		err := c.write(ctx, habitID, date, rec)
		if err != nil && !errorvalues.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, next time.Duration) {
		c.metrics.Retry()
		c.logger.Debug("retrying check-in write",
			slog.String("habit_id", habitID.String()),
			slog.String("date", date.String()),
			slog.Duration("next", next),
			slog.String("error", err.Error()),
		)
	})
}

// entry returns the cached entry, loading it once for concurrent callers.
func (c *Coordinator) entry(ctx context.Context, habitID uuid.UUID) (cache.Entry, error) {
	if e, _, ok := c.arena.Get(habitID); ok {
		return e, nil
	}
	v, err, _ := c.loads.Do(habitID.String(), func() (any, error) {
		e, err := c.fetch(ctx, habitID)
		if err != nil {
			return nil, err
		}
		return c.arena.Load(habitID, e), nil
	})
	if err != nil {
		return cache.Entry{}, err
	}
	if e, _, ok := c.arena.Get(habitID); ok {
		return e, nil
	}
	return v.(cache.Entry), nil
}

// fetch reads the authoritative state and overlays writes still in the outbox.
func (c *Coordinator) fetch(ctx context.Context, habitID uuid.UUID) (cache.Entry, error) {
	habit, err := c.habits.GetByID(ctx, habitID)
	if err != nil {
		return cache.Entry{}, err
	}
	checkIns, err := c.checkIns.GetByHabit(ctx, habitID, nil)
	if err != nil {
		return cache.Entry{}, err
	}
	l := entity.NewCheckInLog(checkIns)
	if c.queue != nil {
		queued, err := c.queue.PendingFor(ctx, habitID)
		if err != nil {
			return cache.Entry{}, err
		}
		for _, w := range queued {
			l = l.With(w.DateKey, w.Record)
		}
	}
	return cache.Entry{Habit: *habit, Log: l, Analytics: c.recompute(*habit, l)}, nil
}

// Refresh reloads the habit from the store. The result is dropped when a
// mutation started meanwhile, so a slow refresh never overwrites a newer
// optimistic state.
func (c *Coordinator) Refresh(ctx context.Context, habitID uuid.UUID) error {
	refreshCtx, done := c.trackRefresh(ctx, habitID)
	defer done()
	version := c.arena.Version(habitID)
	e, err := c.fetch(refreshCtx, habitID)
	if err != nil {
		if ctx.Err() == nil && refreshCtx.Err() != nil {
			c.metrics.Refresh(metrics.RefreshSkipped)
			return nil
		}
		if errors.Is(err, errorvalues.ErrHabitNotFound) && c.arena.Invalidate(habitID) {
			c.logger.Info("habit is gone from the store, dropped from cache", slog.String("habit_id", habitID.String()))
		}
		c.metrics.Refresh(metrics.RefreshFailed)
		return err
	}
	if refreshCtx.Err() != nil || !c.arena.PutIfVersion(habitID, e, version) {
		c.metrics.Refresh(metrics.RefreshSkipped)
		c.logger.Debug("stale refresh discarded", slog.String("habit_id", habitID.String()))
		return nil
	}
	c.metrics.Refresh(metrics.RefreshApplied)
	return nil
}

// trackRefresh registers a cancellable refresh of habitID. A newer refresh
// replaces an older one.
func (c *Coordinator) trackRefresh(ctx context.Context, habitID uuid.UUID) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	h := &refreshHandle{cancel: cancel}
	c.refreshMu.Lock()
	if prev, ok := c.refreshes[habitID]; ok {
		prev.cancel()
	}
	c.refreshes[habitID] = h
	c.refreshMu.Unlock()
	return ctx, func() {
		c.refreshMu.Lock()
		if c.refreshes[habitID] == h {
			delete(c.refreshes, habitID)
		}
		c.refreshMu.Unlock()
		cancel()
	}
}

func (c *Coordinator) cancelRefresh(habitID uuid.UUID) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if h, ok := c.refreshes[habitID]; ok {
		h.cancel()
		delete(c.refreshes, habitID)
	}
}

func (c *Coordinator) GetAnalytics(ctx context.Context, habitID uuid.UUID) (entity.Analytics, error) {
	e, err := c.entry(ctx, habitID)
	if err != nil {
		return entity.Analytics{}, err
	}
	return e.Analytics, nil
}

func (c *Coordinator) GetInsights(ctx context.Context, habitID uuid.UUID) ([]entity.Insight, error) {
	e, err := c.entry(ctx, habitID)
	if err != nil {
		return nil, err
	}
	insights := analytics.GenerateInsights(e.Log.Slice(), e.Habit.Schedule)
	for _, in := range insights {
		c.metrics.Insight(string(in.Type))
	}
	return insights, nil
}

// Flush replays queued writes oldest first. It stops at the first write that
// fails for availability reasons, since the store is still unreachable.
// Writes the store will never accept are dropped and the habit is refreshed.
func (c *Coordinator) Flush(ctx context.Context) (int, error) {
	if c.queue == nil {
		return 0, nil
	}
	writes, err := c.queue.Pending(ctx)
	if err != nil {
		return 0, err
	}
	replayed := 0
	touched := make(map[uuid.UUID]struct{})
	defer func() {
		for id := range touched {
			if _, _, ok := c.arena.Get(id); !ok {
				continue
			}
			if err := c.Refresh(ctx, id); err != nil {
				c.logger.Warn("refresh after flush failed", slog.String("habit_id", id.String()), slog.String("error", err.Error()))
			}
		}
	}()
	for _, w := range writes {
		stop, err := c.replay(ctx, w, touched)
		if err == nil {
			replayed++
			continue
		}
		if stop {
			return replayed, err
		}
	}
	return replayed, nil
}

func (c *Coordinator) replay(ctx context.Context, w outbox.Write, touched map[uuid.UUID]struct{}) (bool, error) {
	release, err := c.locks.Lock(ctx, lockKey{habitID: w.HabitID, date: w.DateKey})
	if err != nil {
		return true, err
	}
	defer release()
	logger := c.logger.With(slog.String("habit_id", w.HabitID.String()), slog.String("date", w.DateKey.String()))

	err = c.writeWithRetry(ctx, w.HabitID, w.DateKey, w.Record)
	if err == nil {
		if rmErr := c.queue.Remove(ctx, w); rmErr != nil {
			logger.Error("removing replayed write failed", slog.String("error", rmErr.Error()))
		}
		touched[w.HabitID] = struct{}{}
		c.metrics.Replay(true)
		return false, nil
	}
	c.metrics.Replay(false)
	switch errorvalues.Classify(err) {
	case errorvalues.KindAvailability:
		if mErr := c.queue.MarkAttempt(ctx, w); mErr != nil {
			logger.Error("marking replay attempt failed", slog.String("error", mErr.Error()))
		}
		return true, err
	case errorvalues.KindAuthorization, errorvalues.KindNotFound, errorvalues.KindValidation:
		logger.Warn("dropping queued write the store refuses", slog.String("error", err.Error()))
		if rmErr := c.queue.Remove(ctx, w); rmErr != nil {
			logger.Error("removing refused write failed", slog.String("error", rmErr.Error()))
		}
		touched[w.HabitID] = struct{}{}
		return false, err
	default:
		if errors.Is(err, context.Canceled) {
			return true, err
		}
		if mErr := c.queue.MarkAttempt(ctx, w); mErr != nil {
			logger.Error("marking replay attempt failed", slog.String("error", mErr.Error()))
		}
		logger.Warn("replaying queued write failed", slog.String("error", err.Error()))
		return false, err
	}
}
