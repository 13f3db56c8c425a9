package progress

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/progression/internal/domain"
)

func TestNextThresholdRoundsDown(t *testing.T) {
	require.Equal(t, 130, nextThreshold(100))
	require.Equal(t, 169, nextThreshold(130))
	require.Equal(t, 219, nextThreshold(169))
	require.Equal(t, 2, nextThreshold(1))
	require.Equal(t, 4, nextThreshold(3))
}

func TestNextThresholdSaturates(t *testing.T) {
	require.Equal(t, math.MaxInt, nextThreshold(math.MaxInt/GrowthNumerator))
	require.Equal(t, math.MaxInt, nextThreshold(math.MaxInt))
	require.Greater(t, nextThreshold(math.MaxInt/GrowthNumerator-1), math.MaxInt/GrowthNumerator-1)
}

func TestApplyExperienceHugeAmountTerminates(t *testing.T) {
	rec := domain.InitialRecord(nil)

	gained := applyExperience(&rec, math.MaxInt)

	require.Positive(t, gained)
	require.Equal(t, 1+gained, rec.Level)
	require.GreaterOrEqual(t, rec.CurrentXP, 0)
	require.Less(t, rec.CurrentXP, rec.XPToNextLevel)
	require.Equal(t, domain.TitleForLevel(rec.Level), rec.Title)
}

func TestApplyExperienceSaturatesOnOverflow(t *testing.T) {
	rec := domain.InitialRecord(nil)
	rec.CurrentXP = 50

	applyExperience(&rec, math.MaxInt)

	require.GreaterOrEqual(t, rec.CurrentXP, 0)
	require.Less(t, rec.CurrentXP, rec.XPToNextLevel)
	require.Greater(t, rec.Level, 1)
}

func TestApplyExperienceSettlesEveryThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		rec := domain.InitialRecord(nil)
		for j := 0; j < 5; j++ {
			amount := rng.Intn(2000)

			wantLevels, wantXP, wantThreshold := 0, rec.CurrentXP+amount, rec.XPToNextLevel
			for wantXP >= wantThreshold {
				wantXP -= wantThreshold
				wantThreshold = wantThreshold * 13 / 10
				wantLevels++
			}

			before := rec.Level
			gained := applyExperience(&rec, amount)

			require.Equal(t, wantLevels, gained)
			require.Equal(t, before+wantLevels, rec.Level)
			require.Equal(t, wantXP, rec.CurrentXP)
			require.Equal(t, wantThreshold, rec.XPToNextLevel)
			require.GreaterOrEqual(t, rec.CurrentXP, 0)
			require.Less(t, rec.CurrentXP, rec.XPToNextLevel)
			require.Equal(t, domain.TitleForLevel(rec.Level), rec.Title)
		}
	}
}

func TestApplyStreak(t *testing.T) {
	day := time.Date(2025, time.October, 27, 9, 0, 0, 0, time.UTC)

	t.Run("first completion of a day advances", func(t *testing.T) {
		rec := domain.InitialRecord(nil)
		require.True(t, applyStreak(&rec, day, false))
		require.False(t, applyStreak(&rec, day.Add(30*time.Minute), false))
		require.True(t, applyStreak(&rec, day.AddDate(0, 0, 1), false))
		require.Equal(t, 2, rec.StreakDays)
		require.Equal(t, []string{"2025-10-27", "2025-10-28"}, rec.WorkoutHistoryDates)
	})

	t.Run("back-dated completion is ignored", func(t *testing.T) {
		rec := domain.InitialRecord(nil)
		applyStreak(&rec, day, false)
		require.False(t, applyStreak(&rec, day.AddDate(0, 0, -3), false))
		require.Equal(t, 1, rec.StreakDays)
		require.Len(t, rec.WorkoutHistoryDates, 1)
	})

	t.Run("gap keeps counting without consecutive policy", func(t *testing.T) {
		rec := domain.InitialRecord(nil)
		applyStreak(&rec, day, false)
		applyStreak(&rec, day.AddDate(0, 0, 5), false)
		require.Equal(t, 2, rec.StreakDays)
	})

	t.Run("gap restarts with consecutive policy", func(t *testing.T) {
		rec := domain.InitialRecord(nil)
		applyStreak(&rec, day, true)
		applyStreak(&rec, day.AddDate(0, 0, 1), true)
		require.Equal(t, 2, rec.StreakDays)
		applyStreak(&rec, day.AddDate(0, 0, 4), true)
		require.Equal(t, 1, rec.StreakDays)
	})
}

func TestApplyTrainingClampsAndDropsUnknownGroups(t *testing.T) {
	rec := domain.InitialRecord(nil)
	rec.Stats.Strength = 99
	rec.Stats.Discipline = 98
	rec.MuscleGroups.Chest = 97
	rec.OverallProgress = 100

	applyTraining(&rec, domain.WorkoutDefinition{MuscleGroup: "CHEST"})
	require.Equal(t, 100, rec.Stats.Strength)
	require.Equal(t, 100, rec.Stats.Discipline)
	require.Equal(t, 100, rec.MuscleGroups.Chest)
	require.Equal(t, 100, rec.OverallProgress)

	before := rec.MuscleGroups
	applyTraining(&rec, domain.WorkoutDefinition{MuscleGroup: "Core"})
	require.Equal(t, before, rec.MuscleGroups)
}

func TestApplyUnlocks(t *testing.T) {
	workouts := testCatalog().ListAll()
	rec := domain.InitialRecord([]string{"w1"})

	require.Empty(t, applyUnlocks(&rec, "w1", workouts))
	require.Empty(t, applyUnlocks(&rec, "w1", workouts))
	require.Equal(t, []string{"w1-advanced"}, applyUnlocks(&rec, "w1", workouts))
	require.Empty(t, applyUnlocks(&rec, "w1", workouts))
	require.True(t, rec.IsUnlocked("w1-advanced"))
	require.Equal(t, 4, rec.WorkoutCompletions["w1"])
}

func TestNormalizeRepairsStoredRecord(t *testing.T) {
	rec := domain.ProgressionRecord{
		Level:           0,
		CurrentXP:       250,
		XPToNextLevel:   100,
		Title:           "stale",
		OverallProgress: 140,
		Stats:           domain.Stats{Strength: -4, Mobility: 300},
		MuscleGroups:    domain.MuscleGroups{Arms: 101},
	}

	normalize(&rec)

	require.Equal(t, 3, rec.Level)
	require.Equal(t, 20, rec.CurrentXP)
	require.Equal(t, 169, rec.XPToNextLevel)
	require.Equal(t, domain.TitleForLevel(3), rec.Title)
	require.Equal(t, 100, rec.OverallProgress)
	require.Equal(t, 0, rec.Stats.Strength)
	require.Equal(t, 100, rec.Stats.Mobility)
	require.Equal(t, 100, rec.MuscleGroups.Arms)
	require.NotNil(t, rec.UnlockedWorkoutIDs)
	require.NotNil(t, rec.WorkoutHistoryDates)
}

func TestNormalizeTinyThresholdWithHugeExperience(t *testing.T) {
	rec := domain.ProgressionRecord{Level: 1, CurrentXP: math.MaxInt, XPToNextLevel: 1}

	normalize(&rec)

	require.GreaterOrEqual(t, rec.CurrentXP, 0)
	require.Less(t, rec.CurrentXP, rec.XPToNextLevel)
	require.Greater(t, rec.Level, 1)
}
