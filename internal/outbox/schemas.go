package outbox

import "example.com/progression/pkg/events"

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeProgressUpdated: {Schema: progressUpdatedSchema},
	events.TypeWorkoutLogged:   {Schema: workoutLoggedSchema},
	events.TypeProgressReset:   {Schema: progressResetSchema},
}

const progressUpdatedSchema = `{
  "type": "object",
  "title": "ProgressUpdated",
  "properties": {
    "user_id": {"type": "string"},
    "revision": {"type": "integer", "minimum": 0},
    "level": {"type": "integer", "minimum": 1},
    "title": {"type": "string"},
    "current_xp": {"type": "integer", "minimum": 0},
    "xp_to_next_level": {"type": "integer", "minimum": 1},
    "streak_days": {"type": "integer", "minimum": 0},
    "total_workouts": {"type": "integer", "minimum": 0},
    "overall_progress": {"type": "integer", "minimum": 0, "maximum": 100},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "revision", "level", "title", "current_xp", "xp_to_next_level", "streak_days", "total_workouts", "overall_progress", "occurred_at"],
  "additionalProperties": false
}`

const workoutLoggedSchema = `{
  "type": "object",
  "title": "WorkoutLogged",
  "properties": {
    "log_id": {"type": "string"},
    "user_id": {"type": "string"},
    "workout_id": {"type": "string"},
    "date": {"type": "string", "format": "date"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["log_id", "user_id", "workout_id", "date", "occurred_at"],
  "additionalProperties": false
}`

const progressResetSchema = `{
  "type": "object",
  "title": "ProgressReset",
  "properties": {
    "user_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "occurred_at"],
  "additionalProperties": false
}`
