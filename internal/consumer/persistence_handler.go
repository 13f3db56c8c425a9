package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/progression/pkg/events"
)

// PersistenceHandler records every consumed event in progression_event_log and keeps
// progress_projection, a per-user summary read model, in step with it. Redelivered records
// (same topic, partition and offset) are ignored.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler returns a handler on pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores msg and applies it to the projection in one transaction.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	return pgx.BeginFunc(ctx, h.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO progression_event_log (event_type, user_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
             ON CONFLICT (topic, partition, record_offset) DO NOTHING`,
			msg.EventType, msg.UserID, msg.SchemaID, msg.SchemaSubject,
			msg.Topic, msg.Partition, msg.Offset, msg.Payload, msg.Timestamp,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		return applyProjection(ctx, tx, msg)
	})
}

func applyProjection(ctx context.Context, tx pgx.Tx, msg Message) error {
	switch msg.EventType {
	case events.TypeProgressUpdated:
		var evt events.ProgressUpdated
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return fmt.Errorf("decode %s: %w", msg.EventType, err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO progress_projection (user_id, revision, level, title, current_xp, streak_days, total_workouts, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
             ON CONFLICT (user_id) DO UPDATE
                SET revision=EXCLUDED.revision, level=EXCLUDED.level, title=EXCLUDED.title,
                    current_xp=EXCLUDED.current_xp, streak_days=EXCLUDED.streak_days,
                    total_workouts=EXCLUDED.total_workouts, updated_at=EXCLUDED.updated_at
              WHERE progress_projection.revision < EXCLUDED.revision`,
			msg.UserID, int64(evt.Revision), evt.Level, evt.Title, evt.CurrentXP, evt.StreakDays, evt.TotalWorkouts, evt.OccurredAt,
		)
		return err
	case events.TypeProgressReset:
		_, err := tx.Exec(ctx, `DELETE FROM progress_projection WHERE user_id=$1`, msg.UserID)
		return err
	}
	// workout log events only feed the audit table
	return nil
}
