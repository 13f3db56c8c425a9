// Package memory stores progression records in process memory for local development and tests.
package memory

import (
	"context"
	"sync"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/storage"
)

// Store keeps records and workout logs for many users.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressionRecord
	logs    map[string][]domain.WorkoutLog
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]domain.ProgressionRecord),
		logs:    make(map[string][]domain.WorkoutLog),
	}
}

// ForUser returns a gateway scoped to userID.
func (s *Store) ForUser(userID string) *Gateway {
	return &Gateway{store: s, userID: userID}
}

// WorkoutLogs returns the log entries stored for userID, oldest first.
func (s *Store) WorkoutLogs(userID string) []domain.WorkoutLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.WorkoutLog(nil), s.logs[userID]...)
}

// ListWorkoutLogs returns a page of userID's workout logs, newest first.
func (s *Store) ListWorkoutLogs(ctx context.Context, userID string, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	page, next := storage.PageLogs(s.WorkoutLogs(userID), cursor, limit)
	return page, next, nil
}

// Gateway implements progress.Gateway and progress.WorkoutLogAppender for one user.
type Gateway struct {
	store  *Store
	userID string
}

// Load returns the stored record or nil when none exists.
func (g *Gateway) Load(ctx context.Context) (*domain.ProgressionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.store.mu.RLock()
	defer g.store.mu.RUnlock()

	rec, ok := g.store.records[g.userID]
	if !ok {
		return nil, nil
	}
	clone := rec.Clone()
	return &clone, nil
}

// Save stores the record unless a newer revision is already present.
func (g *Gateway) Save(ctx context.Context, record domain.ProgressionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	if existing, ok := g.store.records[g.userID]; ok && existing.Revision > record.Revision {
		return nil
	}
	g.store.records[g.userID] = record.Clone()
	return nil
}

// Clear removes the record and workout logs.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	delete(g.store.records, g.userID)
	delete(g.store.logs, g.userID)
	return nil
}

// AppendWorkoutLog appends one workout log entry.
func (g *Gateway) AppendWorkoutLog(ctx context.Context, entry domain.WorkoutLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.store.mu.Lock()
	defer g.store.mu.Unlock()

	g.store.logs[g.userID] = append(g.store.logs[g.userID], entry)
	return nil
}
