package domain

// UnlockRule describes the completions needed before a workout becomes available.
type UnlockRule struct {
	RequiresWorkoutID string `json:"requires_workout_id"`
	Completions       int    `json:"completions"`
}

// WorkoutDefinition is an immutable catalog entry.
type WorkoutDefinition struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	MuscleGroup       string      `json:"muscle_group"`
	Difficulty        string      `json:"difficulty"`
	Sets              int         `json:"sets"`
	Reps              int         `json:"reps"`
	XPReward          int         `json:"xp_reward"`
	UnlockedByDefault bool        `json:"unlocked_by_default"`
	UnlockCondition   string      `json:"unlock_condition,omitempty"`
	Unlock            *UnlockRule `json:"-"`
}

// XPPerSet is the partial credit granted for one finished set.
func (w WorkoutDefinition) XPPerSet() int {
	if w.Sets <= 0 {
		return w.XPReward
	}
	return w.XPReward / w.Sets
}

// WorkoutLog is the append-only row written per completed workout by synced gateways.
type WorkoutLog struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	WorkoutID string `json:"workout_id"`
	Date      string `json:"date"`
}

// LogCursor positions a page of workout logs, newest first.
type LogCursor struct {
	Date string
	ID   string
}
