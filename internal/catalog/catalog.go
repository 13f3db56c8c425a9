// Package catalog provides the static workout catalog and duel board.
package catalog

import (
	"strings"

	"example.com/progression/internal/domain"
)

// Catalog is a read-only, ordered set of workout definitions.
type Catalog struct {
	workouts []domain.WorkoutDefinition
	byID     map[string]int
}

// New builds a Catalog from the supplied definitions, preserving order.
// Later duplicates of an id are ignored.
func New(workouts []domain.WorkoutDefinition) *Catalog {
	c := &Catalog{
		workouts: make([]domain.WorkoutDefinition, 0, len(workouts)),
		byID:     make(map[string]int, len(workouts)),
	}
	for _, w := range workouts {
		id := strings.TrimSpace(w.ID)
		if id == "" {
			continue
		}
		if _, exists := c.byID[id]; exists {
			continue
		}
		w.ID = id
		c.byID[id] = len(c.workouts)
		c.workouts = append(c.workouts, w)
	}
	return c
}

// Default returns the catalog shipped with the client.
func Default() *Catalog {
	return New(defaultWorkouts)
}

// ListAll returns the workouts in catalog order.
func (c *Catalog) ListAll() []domain.WorkoutDefinition {
	out := make([]domain.WorkoutDefinition, len(c.workouts))
	copy(out, c.workouts)
	return out
}

// Find returns the workout with the given id.
func (c *Catalog) Find(workoutID string) (domain.WorkoutDefinition, bool) {
	idx, ok := c.byID[workoutID]
	if !ok {
		return domain.WorkoutDefinition{}, false
	}
	return c.workouts[idx], true
}

// DefaultUnlocked lists the ids available to a fresh profile.
func (c *Catalog) DefaultUnlocked() []string {
	ids := make([]string, 0, len(c.workouts))
	for _, w := range c.workouts {
		if w.UnlockedByDefault {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

// GroupByMuscle returns workouts keyed by muscle group label along with the label order.
func (c *Catalog) GroupByMuscle() ([]string, map[string][]domain.WorkoutDefinition) {
	order := make([]string, 0)
	groups := make(map[string][]domain.WorkoutDefinition)
	for _, w := range c.workouts {
		if _, seen := groups[w.MuscleGroup]; !seen {
			order = append(order, w.MuscleGroup)
		}
		groups[w.MuscleGroup] = append(groups[w.MuscleGroup], w)
	}
	return order, groups
}

var defaultWorkouts = []domain.WorkoutDefinition{
	{ID: "chest-press", Name: "Chest Press", MuscleGroup: "Chest", Difficulty: "Beginner", Sets: 3, Reps: 10, XPReward: 15, UnlockedByDefault: true},
	{
		ID: "incline-press", Name: "Incline Press", MuscleGroup: "Chest", Difficulty: "Beginner", Sets: 3, Reps: 10, XPReward: 20,
		UnlockCondition: "Complete Chest Press 3 times",
		Unlock:          &domain.UnlockRule{RequiresWorkoutID: "chest-press", Completions: 3},
	},
	{ID: "shoulder-press", Name: "Shoulder Press", MuscleGroup: "Shoulders", Difficulty: "Beginner", Sets: 3, Reps: 10, XPReward: 15, UnlockedByDefault: true},
	{
		ID: "lateral-raise", Name: "Lateral Raise", MuscleGroup: "Shoulders", Difficulty: "Beginner", Sets: 3, Reps: 12, XPReward: 18,
		UnlockCondition: "Complete Shoulder Press 3 times",
		Unlock:          &domain.UnlockRule{RequiresWorkoutID: "shoulder-press", Completions: 3},
	},
	{ID: "lat-pulldown", Name: "Lat Pulldown", MuscleGroup: "Back", Difficulty: "Beginner", Sets: 3, Reps: 10, XPReward: 15, UnlockedByDefault: true},
	{ID: "leg-press", Name: "Leg Press", MuscleGroup: "Legs", Difficulty: "Beginner", Sets: 3, Reps: 12, XPReward: 20, UnlockedByDefault: true},
	{ID: "bicep-curl", Name: "Bicep Curl", MuscleGroup: "Arms", Difficulty: "Beginner", Sets: 3, Reps: 10, XPReward: 12, UnlockedByDefault: true},
}
