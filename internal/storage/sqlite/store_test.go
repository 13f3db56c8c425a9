package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/progression/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "progress.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestLoadMissingRecordReturnsNil(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.ForUser("alice").Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := openTestStore(t).ForUser("alice")

	rec := domain.InitialRecord([]string{"chest-press", "leg-press"})
	rec.Level = 2
	rec.CurrentXP = 50
	rec.XPToNextLevel = 130
	rec.MuscleGroups.Chest = 10
	rec.WorkoutHistoryDates = []string{"2025-10-26", "2025-10-27"}
	rec.WorkoutCompletions = map[string]int{"chest-press": 2}
	rec.Revision = 4
	require.NoError(t, gw.Save(ctx, rec))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, rec, *loaded)
}

func TestSaveIgnoresOlderRevision(t *testing.T) {
	ctx := context.Background()
	gw := openTestStore(t).ForUser("alice")

	newer := domain.InitialRecord(nil)
	newer.Revision = 7
	newer.TotalWorkouts = 7
	require.NoError(t, gw.Save(ctx, newer))

	older := domain.InitialRecord(nil)
	older.Revision = 6
	older.TotalWorkouts = 6
	require.NoError(t, gw.Save(ctx, older))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, loaded.TotalWorkouts)
}

func TestClearRemovesRecordAndLogs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	gw := store.ForUser("alice")
	other := store.ForUser("bob")

	require.NoError(t, gw.Save(ctx, domain.InitialRecord(nil)))
	require.NoError(t, gw.AppendWorkoutLog(ctx, domain.WorkoutLog{ID: "a1", WorkoutID: "chest-press", Date: "2025-10-27"}))
	require.NoError(t, other.AppendWorkoutLog(ctx, domain.WorkoutLog{ID: "b1", WorkoutID: "leg-press", Date: "2025-10-27"}))

	logs, _, err := store.ListWorkoutLogs(ctx, "alice", nil, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "alice", logs[0].UserID)

	require.NoError(t, gw.Clear(ctx))

	rec, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	logs, _, err = store.ListWorkoutLogs(ctx, "alice", nil, 10)
	require.NoError(t, err)
	require.Empty(t, logs)

	logs, _, err = store.ListWorkoutLogs(ctx, "bob", nil, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestListWorkoutLogsPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	gw := store.ForUser("alice")

	for _, entry := range []domain.WorkoutLog{
		{ID: "a", WorkoutID: "chest-press", Date: "2025-10-25"},
		{ID: "b", WorkoutID: "leg-press", Date: "2025-10-26"},
		{ID: "c", WorkoutID: "bicep-curl", Date: "2025-10-27"},
	} {
		require.NoError(t, gw.AppendWorkoutLog(ctx, entry))
	}

	page, next, err := store.ListWorkoutLogs(ctx, "alice", nil, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, logIDs(page))
	require.NotNil(t, next)

	page, next, err = store.ListWorkoutLogs(ctx, "alice", next, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, logIDs(page))
	require.Nil(t, next)
}

func logIDs(logs []domain.WorkoutLog) []string {
	ids := make([]string, 0, len(logs))
	for _, entry := range logs {
		ids = append(ids, entry.ID)
	}
	return ids
}
