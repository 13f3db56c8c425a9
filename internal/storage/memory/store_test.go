package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/progression/internal/domain"
)

func TestGatewayRoundTripAndIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	alice := store.ForUser("alice")
	bob := store.ForUser("bob")

	rec, err := alice.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	saved := domain.InitialRecord([]string{"chest-press"})
	saved.CurrentXP = 40
	saved.Revision = 2
	require.NoError(t, alice.Save(ctx, saved))

	loaded, err := alice.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, saved, *loaded)

	other, err := bob.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestSaveKeepsNewerRevision(t *testing.T) {
	ctx := context.Background()
	gw := NewStore().ForUser("alice")

	newer := domain.InitialRecord(nil)
	newer.Revision = 5
	newer.CurrentXP = 50
	older := domain.InitialRecord(nil)
	older.Revision = 3

	require.NoError(t, gw.Save(ctx, newer))
	require.NoError(t, gw.Save(ctx, older))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), loaded.Revision)
	require.Equal(t, 50, loaded.CurrentXP)
}

func TestClearRemovesRecordAndLogs(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	gw := store.ForUser("alice")

	require.NoError(t, gw.Save(ctx, domain.InitialRecord(nil)))
	require.NoError(t, gw.AppendWorkoutLog(ctx, domain.WorkoutLog{ID: "1", UserID: "alice", WorkoutID: "w1", Date: "2025-10-27"}))
	require.Len(t, store.WorkoutLogs("alice"), 1)

	require.NoError(t, gw.Clear(ctx))

	rec, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Empty(t, store.WorkoutLogs("alice"))
}

func TestListWorkoutLogsPaginatesNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	gw := store.ForUser("alice")
	for _, entry := range []domain.WorkoutLog{
		{ID: "a", Date: "2025-10-25"},
		{ID: "b", Date: "2025-10-26"},
		{ID: "c", Date: "2025-10-26"},
	} {
		require.NoError(t, gw.AppendWorkoutLog(ctx, entry))
	}

	page, next, err := store.ListWorkoutLogs(ctx, "alice", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "c", page[0].ID)
	require.Equal(t, "b", page[1].ID)
	require.NotNil(t, next)

	page, next, err = store.ListWorkoutLogs(ctx, "alice", next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "a", page[0].ID)
	require.Nil(t, next)
}
