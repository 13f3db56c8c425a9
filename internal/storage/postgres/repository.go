// Package postgres is the backend-synced progression gateway. Every write records an
// outbox event in the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/storage"
	"example.com/progression/pkg/events"
)

// Repository provides Postgres-backed persistence for progress profiles, workout logs and outbox events.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// ForUser returns a gateway scoped to userID.
func (r *Repository) ForUser(userID string) *Gateway {
	return &Gateway{repo: r, userID: userID}
}

// Gateway implements progress.Gateway and progress.WorkoutLogAppender for one user.
type Gateway struct {
	repo   *Repository
	userID string
}

// Load fetches the profile row, returning nil when the user has none.
func (g *Gateway) Load(ctx context.Context) (*domain.ProgressionRecord, error) {
	const query = `SELECT record FROM progress_profiles WHERE user_id=$1`

	var payload []byte
	if err := g.repo.pool.QueryRow(ctx, query, g.userID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var rec domain.ProgressionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &rec, nil
}

// Save upserts the profile when record's revision is not older than the stored one and
// records a progress.updated event.
func (g *Gateway) Save(ctx context.Context, record domain.ProgressionRecord) (err error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	tx, err := g.repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const upsert = `INSERT INTO progress_profiles (user_id, revision, level, total_workouts, record, updated_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
        ON CONFLICT (user_id) DO UPDATE
           SET revision=EXCLUDED.revision, level=EXCLUDED.level, total_workouts=EXCLUDED.total_workouts,
               record=EXCLUDED.record, updated_at=EXCLUDED.updated_at
         WHERE progress_profiles.revision <= EXCLUDED.revision`

	tag, err := tx.Exec(ctx, upsert, g.userID, int64(record.Revision), record.Level, record.TotalWorkouts, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// a newer revision is already stored
		return tx.Commit(ctx)
	}

	if err = insertOutbox(ctx, tx, g.userID, events.TypeProgressUpdated, events.ProgressUpdated{
		UserID:          g.userID,
		Revision:        record.Revision,
		Level:           record.Level,
		Title:           record.Title,
		CurrentXP:       record.CurrentXP,
		XPToNextLevel:   record.XPToNextLevel,
		StreakDays:      record.StreakDays,
		TotalWorkouts:   record.TotalWorkouts,
		OverallProgress: record.OverallProgress,
		OccurredAt:      g.repo.now().UTC(),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Clear deletes the profile and workout logs and records a progress.reset event.
func (g *Gateway) Clear(ctx context.Context) (err error) {
	tx, err := g.repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM progress_profiles WHERE user_id=$1`, g.userID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM workout_logs WHERE user_id=$1`, g.userID); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, g.userID, events.TypeProgressReset, events.ProgressReset{
		UserID:     g.userID,
		OccurredAt: g.repo.now().UTC(),
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AppendWorkoutLog inserts the workout_logs row and its progress.workout_logged event.
func (g *Gateway) AppendWorkoutLog(ctx context.Context, entry domain.WorkoutLog) (err error) {
	tx, err := g.repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO workout_logs (log_id, user_id, workout_id, workout_date)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (log_id) DO NOTHING`
	if _, err = tx.Exec(ctx, insert, entry.ID, g.userID, entry.WorkoutID, entry.Date); err != nil {
		return err
	}
	if err = insertOutbox(ctx, tx, g.userID, events.TypeWorkoutLogged, events.WorkoutLogged{
		LogID:      entry.ID,
		UserID:     g.userID,
		WorkoutID:  entry.WorkoutID,
		Date:       entry.Date,
		OccurredAt: g.repo.now().UTC(),
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListWorkoutLogs returns a page of userID's workout logs, newest first.
func (r *Repository) ListWorkoutLogs(ctx context.Context, userID string, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT log_id, user_id, workout_id, to_char(workout_date, 'YYYY-MM-DD')
        FROM workout_logs WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (workout_date, log_id) < ($3::date, $4)`
		args = append(args, cursor.Date, cursor.ID)
	}

	query += ` ORDER BY workout_date DESC, log_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	results := make([]domain.WorkoutLog, 0, limit)
	for rows.Next() {
		var entry domain.WorkoutLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.WorkoutID, &entry.Date); err != nil {
			return nil, nil, err
		}
		results = append(results, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return results, storage.PageCursor(results, limit), nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, userID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		"progress",
		userID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeProgressUpdated: {Topic: events.TopicProgress, SchemaSubject: events.TopicProgress + "-ProgressUpdated"},
	events.TypeProgressReset:   {Topic: events.TopicProgress, SchemaSubject: events.TopicProgress + "-ProgressReset"},
	events.TypeWorkoutLogged:   {Topic: events.TopicWorkoutLogs, SchemaSubject: events.TopicWorkoutLogs + "-value"},
}
