package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMuscleGroupLookupIsCaseInsensitive(t *testing.T) {
	var groups MuscleGroups

	*groups.Lookup("Chest") += 5
	*groups.Lookup(" LEGS ") += 3

	require.Equal(t, 5, groups.Chest)
	require.Equal(t, 3, groups.Legs)
	require.Nil(t, groups.Lookup("Core"))
}

func TestCloneDoesNotShareSlicesOrMaps(t *testing.T) {
	rec := InitialRecord([]string{"chest-press"})
	rec.WorkoutCompletions = map[string]int{"chest-press": 1}

	clone := rec.Clone()
	clone.UnlockedWorkoutIDs[0] = "changed"
	clone.WorkoutCompletions["chest-press"] = 9

	require.Equal(t, "chest-press", rec.UnlockedWorkoutIDs[0])
	require.Equal(t, 1, rec.WorkoutCompletions["chest-press"])
}

func TestTitleForLevel(t *testing.T) {
	cases := map[int]string{
		0:   "Beginner",
		1:   "Beginner",
		4:   "Beginner",
		5:   "Rookie Lifter",
		10:  "Iron Regular",
		20:  "Gym Veteran",
		35:  "Elite Athlete",
		50:  "Legend",
		120: "Legend",
	}
	for level, want := range cases {
		require.Equal(t, want, TitleForLevel(level), "level %d", level)
	}
}

func TestDuelHelpers(t *testing.T) {
	duel := DuelRecord{YourProgress: 2, OpponentProgress: 1, Goal: 3}
	require.True(t, duel.Leading())
	require.False(t, duel.Complete())
	require.Equal(t, 66, duel.Percent(duel.YourProgress))
	require.Equal(t, 100, duel.Percent(7))

	duel.OpponentProgress = 3
	require.True(t, duel.Complete())
}

func TestXPPerSetRoundsDown(t *testing.T) {
	w := WorkoutDefinition{Sets: 3, XPReward: 20}
	require.Equal(t, 6, w.XPPerSet())
}
