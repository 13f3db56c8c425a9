// Package rediskv keeps progression records in Redis as JSON values.
package rediskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/storage"
)

const keyPrefix = "progress::"

// RecordKey is the key holding userID's record.
func RecordKey(userID string) string {
	return keyPrefix + userID + "::record"
}

// LogKey is the list holding userID's workout log entries.
func LogKey(userID string) string {
	return keyPrefix + userID + "::workout_logs"
}

// Store wraps a Redis client shared by every user gateway.
type Store struct {
	rdb redis.Cmdable
}

// NewStore constructs a Store.
func NewStore(rdb redis.Cmdable) *Store {
	return &Store{rdb: rdb}
}

// ForUser returns a gateway scoped to userID.
func (s *Store) ForUser(userID string) *Gateway {
	return &Gateway{rdb: s.rdb, userID: userID}
}

// ListWorkoutLogs returns a page of userID's workout logs, newest first.
func (s *Store) ListWorkoutLogs(ctx context.Context, userID string, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor, error) {
	raw, err := s.rdb.LRange(ctx, LogKey(userID), 0, -1).Result()
	if err != nil {
		return nil, nil, err
	}

	logs := make([]domain.WorkoutLog, 0, len(raw))
	for _, item := range raw {
		var entry domain.WorkoutLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, nil, fmt.Errorf("decode workout log: %w", err)
		}
		logs = append(logs, entry)
	}
	page, next := storage.PageLogs(logs, cursor, limit)
	return page, next, nil
}

// Gateway implements progress.Gateway and progress.WorkoutLogAppender for one user.
type Gateway struct {
	rdb    redis.Cmdable
	userID string
}

// Load returns the stored record or nil when the key does not exist.
func (g *Gateway) Load(ctx context.Context) (*domain.ProgressionRecord, error) {
	payload, err := g.rdb.Get(ctx, RecordKey(g.userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.ProgressionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// Save overwrites the stored record. Writes arrive already serialized by the engine, so
// the last write wins.
func (g *Gateway) Save(ctx context.Context, record domain.ProgressionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return g.rdb.Set(ctx, RecordKey(g.userID), payload, 0).Err()
}

// Clear deletes the record and the workout log list.
func (g *Gateway) Clear(ctx context.Context) error {
	return g.rdb.Del(ctx, RecordKey(g.userID), LogKey(g.userID)).Err()
}

// AppendWorkoutLog pushes the entry onto the user's log list.
func (g *Gateway) AppendWorkoutLog(ctx context.Context, entry domain.WorkoutLog) error {
	entry.UserID = g.userID
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode workout log: %w", err)
	}
	return g.rdb.RPush(ctx, LogKey(g.userID), payload).Err()
}
