//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/progression/internal/domain"
)

func TestGatewayPersistsProfilesAndOutbox(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	gw := repo.ForUser(userID)

	rec, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	saved := domain.InitialRecord([]string{"chest-press"})
	saved.CurrentXP = 40
	saved.TotalWorkouts = 2
	saved.Revision = 2
	require.NoError(t, gw.Save(ctx, saved))

	stale := saved
	stale.Revision = 1
	stale.CurrentXP = 5
	require.NoError(t, gw.Save(ctx, stale))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, 40, loaded.CurrentXP, "older revisions must not overwrite newer ones")

	require.Equal(t, 1, countOutbox(t, ctx, pool, userID, "progress.updated"))
}

func TestGatewayWorkoutLogsAndClear(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t, ctx)

	repo := NewRepository(pool)
	userID := uuid.NewString()
	gw := repo.ForUser(userID)

	for i, date := range []string{"2025-10-25", "2025-10-26", "2025-10-27"} {
		require.NoError(t, gw.AppendWorkoutLog(ctx, domain.WorkoutLog{
			ID:        uuid.NewString(),
			WorkoutID: []string{"chest-press", "leg-press", "bicep-curl"}[i],
			Date:      date,
		}))
	}

	page, next, err := repo.ListWorkoutLogs(ctx, userID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "2025-10-27", page[0].Date)
	require.NotNil(t, next)

	page, next, err = repo.ListWorkoutLogs(ctx, userID, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "2025-10-25", page[0].Date)
	require.Nil(t, next)

	require.NoError(t, gw.Save(ctx, domain.InitialRecord(nil)))
	require.NoError(t, gw.Clear(ctx))

	rec, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, rec)

	page, _, err = repo.ListWorkoutLogs(ctx, userID, nil, 10)
	require.NoError(t, err)
	require.Empty(t, page)

	require.Equal(t, 3, countOutbox(t, ctx, pool, userID, "progress.workout_logged"))
	require.Equal(t, 1, countOutbox(t, ctx, pool, userID, "progress.reset"))
}

func startPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("progression"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	contents, err := os.ReadFile(resolvePath(t, "../../../db/postgres/migrations/0001_init.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)

	return pool
}

func countOutbox(t *testing.T, ctx context.Context, pool *pgxpool.Pool, userID, eventType string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id=$1 AND event_type=$2`, userID, eventType).Scan(&n)
	require.NoError(t, err)
	return n
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
