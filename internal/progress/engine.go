// Package progress owns a user's progression record and applies workout updates to it.
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/observability"
)

// Gateway loads and stores the whole record. Load returns nil, nil when nothing is stored.
type Gateway interface {
	Load(ctx context.Context) (*domain.ProgressionRecord, error)
	Save(ctx context.Context, record domain.ProgressionRecord) error
	Clear(ctx context.Context) error
}

// WorkoutLogAppender is implemented by gateways that keep an append-only workout log.
type WorkoutLogAppender interface {
	AppendWorkoutLog(ctx context.Context, entry domain.WorkoutLog) error
}

// Catalog is the read-only workout list consulted by the engine.
type Catalog interface {
	ListAll() []domain.WorkoutDefinition
	Find(workoutID string) (domain.WorkoutDefinition, bool)
	DefaultUnlocked() []string
}

// Observer is notified after every successful mutation, before persistence completes.
// Observers must not call mutating engine methods.
type Observer interface {
	OnRecordChanged(record domain.ProgressionRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(domain.ProgressionRecord)

// OnRecordChanged calls f(record).
func (f ObserverFunc) OnRecordChanged(record domain.ProgressionRecord) { f(record) }

// Status is the load state of an engine.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
	StatusClosed        Status = "closed"
)

// Option configures optional engine behaviour.
type Option func(*Engine)

// WithLogger overrides the logger used to report storage failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the clock that decides "today" for streaks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithConsecutiveStreaks restarts the streak when a calendar day is skipped.
func WithConsecutiveStreaks() Option {
	return func(e *Engine) {
		e.consecutive = true
	}
}

// WithPersistTimeout bounds each individual storage write.
func WithPersistTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.persistTimeout = d
	}
}

// WithUserID sets the user recorded on workout log entries.
func WithUserID(userID string) Option {
	return func(e *Engine) {
		e.userID = userID
	}
}

// Engine is the single owner of one user's ProgressionRecord.
type Engine struct {
	catalog        Catalog
	gateway        Gateway
	logger         logrus.FieldLogger
	now            func() time.Time
	consecutive    bool
	persistTimeout time.Duration
	userID         string

	mu      sync.RWMutex
	status  Status
	record  domain.ProgressionRecord
	initial domain.ProgressionRecord
	loadErr error

	persister *persister

	// notifyMu keeps observer delivery in mutation order.
	notifyMu    sync.Mutex
	observersMu sync.RWMutex
	observers   map[int]Observer
	nextObsID   int
}

// NewEngine constructs an Engine. Initialize must complete before mutations are accepted.
func NewEngine(catalog Catalog, gateway Gateway, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		gateway:   gateway,
		logger:    logrus.StandardLogger().WithField("component", "progress"),
		now:       time.Now,
		status:    StatusUninitialized,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.userID != "" {
		e.logger = e.logger.WithField("user_id", e.userID)
	}
	e.initial = domain.InitialRecord(catalog.DefaultUnlocked())
	e.record = e.initial.Clone()
	return e
}

// Initialize loads the stored record. A missing record or a storage failure leaves the
// engine ready with the initial record; failures are logged and kept in LoadErr.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	if e.status != StatusUninitialized {
		e.mu.Unlock()
		return
	}
	e.status = StatusLoading
	e.mu.Unlock()

	stored, err := e.gateway.Load(ctx)

	e.mu.Lock()
	if e.status == StatusClosed {
		e.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		e.loadErr = fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		observability.RecordPersistFailure("load")
		e.logger.WithError(e.loadErr).Warn("loading progress failed, starting from the initial record")
		e.record = e.initial.Clone()
	case stored == nil:
		e.record = e.initial.Clone()
	default:
		rec := stored.Clone()
		normalize(&rec)
		e.record = rec
	}
	e.persister = newPersister(e.gateway, e.logger, e.persistTimeout)
	e.status = StatusReady
	snapshot := e.record.Clone()
	e.notifyMu.Lock()
	e.mu.Unlock()
	e.notify(snapshot)
	e.notifyMu.Unlock()
}

// Status returns the engine's load state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// LoadErr returns the storage failure that forced the fallback to the initial record, if any.
func (e *Engine) LoadErr() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadErr
}

// CurrentRecord returns a copy of the in-memory record. It never touches storage.
func (e *Engine) CurrentRecord() domain.ProgressionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.record.Clone()
}

// InitialRecord returns the record a fresh or reset profile starts from.
func (e *Engine) InitialRecord() domain.ProgressionRecord {
	return e.initial.Clone()
}

// Subscribe registers an observer and returns a function that removes it.
func (e *Engine) Subscribe(obs Observer) func() {
	e.observersMu.Lock()
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = obs
	e.observersMu.Unlock()

	return func() {
		e.observersMu.Lock()
		delete(e.observers, id)
		e.observersMu.Unlock()
	}
}

// AwardExperience adds amount experience, levelling up as many times as needed. Negative
// amounts and amounts that would overflow the experience counter are rejected.
func (e *Engine) AwardExperience(amount int) (domain.ProgressionRecord, error) {
	return e.mutate(func(rec *domain.ProgressionRecord) (*domain.WorkoutLog, error) {
		if !canAward(rec.CurrentXP, amount) {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
		}
		e.award(rec, amount)
		return nil, nil
	})
}

// LogWorkoutCompletion records a completed workout dated by the engine's clock.
func (e *Engine) LogWorkoutCompletion(workoutID string) (domain.ProgressionRecord, error) {
	return e.LogWorkoutCompletionOn(workoutID, e.now())
}

// LogWorkoutCompletionOn records a completed workout on the given day. The update order is
// fixed: experience (and level), total workouts, streak, stats, muscle group, overall progress.
func (e *Engine) LogWorkoutCompletionOn(workoutID string, day time.Time) (domain.ProgressionRecord, error) {
	return e.mutate(func(rec *domain.ProgressionRecord) (*domain.WorkoutLog, error) {
		workout, ok := e.catalog.Find(workoutID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkout, workoutID)
		}

		e.award(rec, workout.XPReward)
		rec.TotalWorkouts++
		applyStreak(rec, day, e.consecutive)
		applyTraining(rec, workout)
		for _, id := range applyUnlocks(rec, workout.ID, e.catalog.ListAll()) {
			e.logger.WithField("workout_id", id).Info("workout unlocked")
		}
		observability.RecordWorkoutLogged(workout.MuscleGroup)

		return &domain.WorkoutLog{
			ID:        uuid.NewString(),
			UserID:    e.userID,
			WorkoutID: workout.ID,
			Date:      day.Format(domain.DateLayout),
		}, nil
	})
}

// LogSetCompletion grants floor(xpReward/sets) experience for one finished set. It never
// touches workout counters, streak, stats or muscle groups.
func (e *Engine) LogSetCompletion(workoutID string) (domain.ProgressionRecord, error) {
	return e.mutate(func(rec *domain.ProgressionRecord) (*domain.WorkoutLog, error) {
		workout, ok := e.catalog.Find(workoutID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkout, workoutID)
		}
		e.award(rec, workout.XPPerSet())
		return nil, nil
	})
}

// ResetProgress restores the initial record and clears storage. Storage failures are
// logged only. The revision keeps counting up so that later saves still supersede a
// record the clear failed to remove.
func (e *Engine) ResetProgress() (domain.ProgressionRecord, error) {
	e.mu.Lock()
	if e.status != StatusReady {
		e.mu.Unlock()
		return domain.ProgressionRecord{}, domain.ErrNotInitialized
	}
	rec := e.initial.Clone()
	rec.Revision = e.record.Revision + 1
	e.record = rec
	e.persister.clear()
	snapshot := e.record.Clone()
	e.notifyMu.Lock()
	e.mu.Unlock()

	e.logger.Info("progress reset")
	e.notify(snapshot)
	e.notifyMu.Unlock()
	return snapshot, nil
}

// Flush waits until every write queued so far has been attempted.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.RLock()
	p := e.persister
	e.mu.RUnlock()
	if p == nil {
		return nil
	}
	return p.Flush(ctx)
}

// Close rejects further mutations and drains pending writes.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.status == StatusClosed {
		e.mu.Unlock()
		return nil
	}
	p := e.persister
	e.status = StatusClosed
	e.mu.Unlock()

	if p == nil {
		return nil
	}
	return p.close(ctx)
}

func (e *Engine) award(rec *domain.ProgressionRecord, amount int) {
	levels := applyExperience(rec, amount)
	observability.RecordXPAwarded(amount)
	if levels > 0 {
		observability.RecordLevelUps(levels)
		e.logger.WithFields(logrus.Fields{"level": rec.Level, "title": rec.Title}).Info("level up")
	}
}

// mutate applies fn to a copy of the record and, on success, installs it, queues
// persistence and notifies observers.
func (e *Engine) mutate(fn func(rec *domain.ProgressionRecord) (*domain.WorkoutLog, error)) (domain.ProgressionRecord, error) {
	e.mu.Lock()
	if e.status != StatusReady {
		e.mu.Unlock()
		return domain.ProgressionRecord{}, domain.ErrNotInitialized
	}

	next := e.record.Clone()
	entry, err := fn(&next)
	if err != nil {
		e.mu.Unlock()
		return domain.ProgressionRecord{}, err
	}
	next.Revision = e.record.Revision + 1
	e.record = next

	e.persister.save(next.Clone())
	if entry != nil {
		e.persister.appendLog(*entry)
	}

	snapshot := next.Clone()
	e.notifyMu.Lock()
	e.mu.Unlock()
	e.notify(snapshot)
	e.notifyMu.Unlock()
	return snapshot, nil
}

func (e *Engine) notify(rec domain.ProgressionRecord) {
	e.observersMu.RLock()
	observers := make([]Observer, 0, len(e.observers))
	for _, obs := range e.observers {
		observers = append(observers, obs)
	}
	e.observersMu.RUnlock()

	for _, obs := range observers {
		obs.OnRecordChanged(rec.Clone())
	}
}
