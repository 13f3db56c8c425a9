package progress

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"example.com/progression/internal/observability"
)

// GatewayFactory returns the persistence gateway for one user.
type GatewayFactory func(userID string) Gateway

// Registry hands out exactly one initialized Engine per user id. Engines left unused
// for a while can be closed and dropped with EvictIdle; the next request for that user
// reloads the record from storage.
type Registry struct {
	catalog Catalog
	factory GatewayFactory
	opts    []Option
	now     func() time.Time

	mu      sync.Mutex
	engines map[string]*registryEntry
	// draining holds, per user, a channel closed once an evicted engine finished closing.
	draining map[string]chan struct{}
}

type registryEntry struct {
	once     sync.Once
	engine   *Engine
	lastUsed time.Time
	previous <-chan struct{}
}

// NewRegistry constructs a Registry. opts are applied to every engine it creates.
func NewRegistry(catalog Catalog, factory GatewayFactory, opts ...Option) *Registry {
	return &Registry{
		catalog:  catalog,
		factory:  factory,
		opts:     opts,
		now:      time.Now,
		engines:  make(map[string]*registryEntry),
		draining: make(map[string]chan struct{}),
	}
}

// Engine returns the engine for userID, creating and initializing it on first use.
func (r *Registry) Engine(ctx context.Context, userID string) (*Engine, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrMissingUserID
	}

	r.mu.Lock()
	entry, ok := r.engines[userID]
	if !ok {
		opts := append(append([]Option{}, r.opts...), WithUserID(userID))
		entry = &registryEntry{
			engine:   NewEngine(r.catalog, r.factory(userID), opts...),
			previous: r.draining[userID],
		}
		r.engines[userID] = entry
		observability.SetActiveEngines(len(r.engines))
	}
	entry.lastUsed = r.now()
	r.mu.Unlock()

	entry.once.Do(func() {
		if entry.previous != nil {
			// the evicted engine's last save must land before the reload
			<-entry.previous
		}
		// the engine outlives the request that created it
		entry.engine.Initialize(context.WithoutCancel(ctx))
	})
	return entry.engine, nil
}

// Len reports how many engines are currently held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

// EvictIdle closes and drops every engine not handed out within maxIdle. It returns the
// number of engines evicted.
func (r *Registry) EvictIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	evicted := make(map[string]*Engine)
	for userID, entry := range r.engines {
		if entry.lastUsed.Before(cutoff) {
			evicted[userID] = entry.engine
			delete(r.engines, userID)
		}
	}
	done := make(map[string]chan struct{}, len(evicted))
	for userID := range evicted {
		finished := make(chan struct{})
		done[userID] = finished
		r.draining[userID] = finished
	}
	observability.SetActiveEngines(len(r.engines))
	r.mu.Unlock()

	if len(evicted) == 0 {
		return 0, nil
	}

	err := closeAll(ctx, evicted, func(userID string) {
		r.mu.Lock()
		if r.draining[userID] == done[userID] {
			delete(r.draining, userID)
		}
		r.mu.Unlock()
		close(done[userID])
	})
	return len(evicted), err
}

// Close drains every engine concurrently, including engines still closing after an
// eviction.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	engines := make(map[string]*Engine, len(r.engines))
	for userID, entry := range r.engines {
		engines[userID] = entry.engine
	}
	draining := make([]chan struct{}, 0, len(r.draining))
	for _, finished := range r.draining {
		draining = append(draining, finished)
	}
	r.engines = make(map[string]*registryEntry)
	observability.SetActiveEngines(0)
	r.mu.Unlock()

	errs := closeAll(ctx, engines, nil)
	for _, finished := range draining {
		select {
		case <-finished:
		case <-ctx.Done():
			return multierr.Append(errs, ctx.Err())
		}
	}
	return errs
}

func closeAll(ctx context.Context, engines map[string]*Engine, closed func(userID string)) error {
	var (
		g      errgroup.Group
		errsMu sync.Mutex
		errs   error
	)
	for userID, engine := range engines {
		g.Go(func() error {
			err := engine.Close(ctx)
			if closed != nil {
				closed(userID)
			}
			if err != nil {
				errsMu.Lock()
				errs = multierr.Append(errs, err)
				errsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
