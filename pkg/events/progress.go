// Package events defines the progression event payloads shared by producer and consumer.
package events

import "time"

// Event type names, also used as outbox event_type values.
const (
	TypeProgressUpdated = "progress.updated"
	TypeWorkoutLogged   = "progress.workout_logged"
	TypeProgressReset   = "progress.reset"
)

// Kafka headers set on every published record.
const (
	HeaderEventType     = "event_type"
	HeaderUserID        = "user_id"
	HeaderSchemaSubject = "schema_subject"
)

// Known reports whether eventType is one of the event types above.
func Known(eventType string) bool {
	switch eventType {
	case TypeProgressUpdated, TypeWorkoutLogged, TypeProgressReset:
		return true
	}
	return false
}

// Kafka topics the outbox dispatcher publishes to.
const (
	TopicProgress    = "progress_events"
	TopicWorkoutLogs = "workout_logs"
)

// ProgressUpdated is emitted whenever a new revision of a user's record is stored.
type ProgressUpdated struct {
	UserID          string    `json:"user_id"`
	Revision        uint64    `json:"revision"`
	Level           int       `json:"level"`
	Title           string    `json:"title"`
	CurrentXP       int       `json:"current_xp"`
	XPToNextLevel   int       `json:"xp_to_next_level"`
	StreakDays      int       `json:"streak_days"`
	TotalWorkouts   int       `json:"total_workouts"`
	OverallProgress int       `json:"overall_progress"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// WorkoutLogged mirrors an appended workout_logs row.
type WorkoutLogged struct {
	LogID      string    `json:"log_id"`
	UserID     string    `json:"user_id"`
	WorkoutID  string    `json:"workout_id"`
	Date       string    `json:"date"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ProgressReset is emitted when a user's progress is wiped.
type ProgressReset struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
