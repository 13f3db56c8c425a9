package progress

import (
	"math"
	"time"

	"example.com/progression/internal/domain"
)

// Progression constants. The threshold grows by GrowthNumerator/GrowthDenominator (1.3)
// on every level-up, rounded down.
const (
	GrowthNumerator   = 13
	GrowthDenominator = 10

	StrengthIncrement        = 2
	DisciplineIncrement      = 3
	MuscleGroupIncrement     = 5
	OverallProgressIncrement = 1

	MaxPercent = 100
)

// nextThreshold returns floor(threshold * 1.3). The result always exceeds threshold and
// saturates at math.MaxInt.
func nextThreshold(threshold int) int {
	if threshold >= math.MaxInt/GrowthNumerator {
		return math.MaxInt
	}
	next := threshold * GrowthNumerator / GrowthDenominator
	if next <= threshold {
		return threshold + 1
	}
	return next
}

// canAward reports whether amount can be added to currentXP without overflowing.
func canAward(currentXP, amount int) bool {
	return amount >= 0 && amount <= math.MaxInt-currentXP
}

// applyExperience adds amount and settles every level threshold crossed. It returns the
// number of levels gained. amount must be non-negative; a sum past math.MaxInt saturates.
func applyExperience(rec *domain.ProgressionRecord, amount int) int {
	if canAward(rec.CurrentXP, amount) {
		rec.CurrentXP += amount
	} else {
		rec.CurrentXP = math.MaxInt
	}
	gained := 0
	for rec.CurrentXP >= rec.XPToNextLevel {
		rec.CurrentXP -= rec.XPToNextLevel
		if rec.Level < math.MaxInt {
			rec.Level++
		}
		rec.XPToNextLevel = nextThreshold(rec.XPToNextLevel)
		gained++
	}
	if gained > 0 {
		rec.Title = domain.TitleForLevel(rec.Level)
	}
	return gained
}

// applyStreak records day in the history and advances the streak when day is the first
// completion on a new date. Back-dated completions (on or before the last recorded date)
// leave the streak untouched. With consecutive set, a gap of more than one day restarts
// the streak at 1.
func applyStreak(rec *domain.ProgressionRecord, day time.Time, consecutive bool) bool {
	date := day.Format(domain.DateLayout)
	last := rec.LastWorkoutDate()
	if last != "" && date <= last {
		return false
	}

	yesterday := day.AddDate(0, 0, -1).Format(domain.DateLayout)
	if consecutive && last != "" && last != yesterday {
		rec.StreakDays = 1
	} else {
		rec.StreakDays++
	}
	rec.WorkoutHistoryDates = append(rec.WorkoutHistoryDates, date)
	return true
}

// applyTraining bumps the stats, the workout's muscle group and overall progress.
// A muscle group label that matches no known group is dropped silently.
func applyTraining(rec *domain.ProgressionRecord, workout domain.WorkoutDefinition) {
	rec.Stats.Strength = clampPercent(rec.Stats.Strength + StrengthIncrement)
	rec.Stats.Discipline = clampPercent(rec.Stats.Discipline + DisciplineIncrement)
	if group := rec.MuscleGroups.Lookup(workout.MuscleGroup); group != nil {
		*group = clampPercent(*group + MuscleGroupIncrement)
	}
	rec.OverallProgress = clampPercent(rec.OverallProgress + OverallProgressIncrement)
}

// applyUnlocks counts the completion and unlocks every workout whose rule is now met.
// It returns the newly unlocked ids.
func applyUnlocks(rec *domain.ProgressionRecord, workoutID string, workouts []domain.WorkoutDefinition) []string {
	if rec.WorkoutCompletions == nil {
		rec.WorkoutCompletions = make(map[string]int)
	}
	rec.WorkoutCompletions[workoutID]++

	var unlocked []string
	for _, w := range workouts {
		if w.Unlock == nil || rec.IsUnlocked(w.ID) {
			continue
		}
		if rec.WorkoutCompletions[w.Unlock.RequiresWorkoutID] >= w.Unlock.Completions {
			rec.UnlockedWorkoutIDs = append(rec.UnlockedWorkoutIDs, w.ID)
			unlocked = append(unlocked, w.ID)
		}
	}
	return unlocked
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}

// normalize repairs a record read from storage so every invariant holds: level and
// threshold are positive, leftover experience is settled, percentages are clamped and
// the title matches the level.
func normalize(rec *domain.ProgressionRecord) {
	if rec.Level < 1 {
		rec.Level = 1
	}
	if rec.XPToNextLevel < 1 {
		rec.XPToNextLevel = domain.InitialXPThreshold
	}
	if rec.CurrentXP < 0 {
		rec.CurrentXP = 0
	}
	if rec.StreakDays < 0 {
		rec.StreakDays = 0
	}
	if rec.TotalWorkouts < 0 {
		rec.TotalWorkouts = 0
	}
	applyExperience(rec, 0)
	rec.Title = domain.TitleForLevel(rec.Level)

	rec.OverallProgress = clampPercent(rec.OverallProgress)
	rec.Stats = domain.Stats{
		Strength:   clampPercent(rec.Stats.Strength),
		Endurance:  clampPercent(rec.Stats.Endurance),
		Discipline: clampPercent(rec.Stats.Discipline),
		Mobility:   clampPercent(rec.Stats.Mobility),
	}
	rec.MuscleGroups = domain.MuscleGroups{
		Chest:     clampPercent(rec.MuscleGroups.Chest),
		Shoulders: clampPercent(rec.MuscleGroups.Shoulders),
		Back:      clampPercent(rec.MuscleGroups.Back),
		Legs:      clampPercent(rec.MuscleGroups.Legs),
		Arms:      clampPercent(rec.MuscleGroups.Arms),
	}
	if rec.UnlockedWorkoutIDs == nil {
		rec.UnlockedWorkoutIDs = []string{}
	}
	if rec.WorkoutHistoryDates == nil {
		rec.WorkoutHistoryDates = []string{}
	}
}
