// Package domain defines the progression record and the catalog types it is built from.
package domain

import (
	"slices"
	"strings"
)

// DateLayout is the calendar-date format used for workout history entries.
const DateLayout = "2006-01-02"

// Stats holds the fixed attribute percentages shown on the profile screen.
type Stats struct {
	Strength   int `json:"strength"`
	Endurance  int `json:"endurance"`
	Discipline int `json:"discipline"`
	Mobility   int `json:"mobility"`
}

// MuscleGroups holds the per-region mastery percentages.
type MuscleGroups struct {
	Chest     int `json:"chest"`
	Shoulders int `json:"shoulders"`
	Back      int `json:"back"`
	Legs      int `json:"legs"`
	Arms      int `json:"arms"`
}

// MuscleGroupNames lists the known muscle group keys in display order.
var MuscleGroupNames = []string{"chest", "shoulders", "back", "legs", "arms"}

// Lookup returns a pointer to the field matching label, compared case-insensitively.
// Unknown labels return nil.
func (m *MuscleGroups) Lookup(label string) *int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "chest":
		return &m.Chest
	case "shoulders":
		return &m.Shoulders
	case "back":
		return &m.Back
	case "legs":
		return &m.Legs
	case "arms":
		return &m.Arms
	}
	return nil
}

// ProgressionRecord is the canonical, durable progress state of one user.
type ProgressionRecord struct {
	Level               int            `json:"level"`
	CurrentXP           int            `json:"current_xp"`
	XPToNextLevel       int            `json:"xp_to_next_level"`
	Title               string         `json:"title"`
	StreakDays          int            `json:"streak_days"`
	TotalWorkouts       int            `json:"total_workouts"`
	OverallProgress     int            `json:"overall_progress"`
	Stats               Stats          `json:"stats"`
	MuscleGroups        MuscleGroups   `json:"muscle_groups"`
	UnlockedWorkoutIDs  []string       `json:"unlocked_workout_ids"`
	WorkoutHistoryDates []string       `json:"workout_history_dates"`
	WorkoutCompletions  map[string]int `json:"workout_completions,omitempty"`
	Revision            uint64         `json:"revision"`
}

// Clone returns a deep copy so callers can hold it without sharing slices or maps.
func (r ProgressionRecord) Clone() ProgressionRecord {
	out := r
	out.UnlockedWorkoutIDs = slices.Clone(r.UnlockedWorkoutIDs)
	out.WorkoutHistoryDates = slices.Clone(r.WorkoutHistoryDates)
	if r.WorkoutCompletions != nil {
		out.WorkoutCompletions = make(map[string]int, len(r.WorkoutCompletions))
		for id, n := range r.WorkoutCompletions {
			out.WorkoutCompletions[id] = n
		}
	}
	return out
}

// IsUnlocked reports whether workoutID is in the unlocked set.
func (r ProgressionRecord) IsUnlocked(workoutID string) bool {
	return slices.Contains(r.UnlockedWorkoutIDs, workoutID)
}

// LastWorkoutDate returns the most recent history date, or "" when there is none.
func (r ProgressionRecord) LastWorkoutDate() string {
	if len(r.WorkoutHistoryDates) == 0 {
		return ""
	}
	return r.WorkoutHistoryDates[len(r.WorkoutHistoryDates)-1]
}

// InitialXPThreshold is the experience needed to leave level 1.
const InitialXPThreshold = 100

// InitialRecord returns the fixed starting record with the given workouts unlocked.
func InitialRecord(unlocked []string) ProgressionRecord {
	return ProgressionRecord{
		Level:               1,
		XPToNextLevel:       InitialXPThreshold,
		Title:               TitleForLevel(1),
		UnlockedWorkoutIDs:  append([]string{}, unlocked...),
		WorkoutHistoryDates: []string{},
	}
}
