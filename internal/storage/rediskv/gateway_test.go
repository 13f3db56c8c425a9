package rediskv

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/require"

	"example.com/progression/internal/domain"
)

func TestLoadMissingKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(RecordKey("alice")).SetErr(redis.Nil)

	rec, err := NewStore(db).ForUser("alice").Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDecodesRecord(t *testing.T) {
	stored := domain.InitialRecord([]string{"chest-press"})
	stored.Level = 3
	stored.Revision = 9
	payload, err := json.Marshal(stored)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectGet(RecordKey("alice")).SetVal(string(payload))

	rec, err := NewStore(db).ForUser("alice").Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, stored, *rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPropagatesErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(RecordKey("alice")).SetErr(errors.New("connection refused"))

	_, err := NewStore(db).ForUser("alice").Load(context.Background())
	require.Error(t, err)
}

func TestSaveWritesJSON(t *testing.T) {
	rec := domain.InitialRecord(nil)
	rec.CurrentXP = 40
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectSet(RecordKey("alice"), payload, 0).SetVal("OK")

	require.NoError(t, NewStore(db).ForUser("alice").Save(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearDeletesRecordAndLogs(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectDel(RecordKey("alice"), LogKey("alice")).SetVal(2)

	require.NoError(t, NewStore(db).ForUser("alice").Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendWorkoutLogPushesEntry(t *testing.T) {
	entry := domain.WorkoutLog{ID: "l1", UserID: "alice", WorkoutID: "chest-press", Date: "2025-10-27"}
	payload, err := json.Marshal(entry)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectRPush(LogKey("alice"), payload).SetVal(1)

	entry.UserID = ""
	require.NoError(t, NewStore(db).ForUser("alice").AppendWorkoutLog(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWorkoutLogsPagesNewestFirst(t *testing.T) {
	var raw []string
	for _, entry := range []domain.WorkoutLog{
		{ID: "l1", UserID: "alice", WorkoutID: "chest-press", Date: "2025-10-25"},
		{ID: "l2", UserID: "alice", WorkoutID: "leg-press", Date: "2025-10-27"},
		{ID: "l3", UserID: "alice", WorkoutID: "bicep-curl", Date: "2025-10-26"},
	} {
		payload, err := json.Marshal(entry)
		require.NoError(t, err)
		raw = append(raw, string(payload))
	}

	db, mock := redismock.NewClientMock()
	mock.ExpectLRange(LogKey("alice"), 0, -1).SetVal(raw)

	page, next, err := NewStore(db).ListWorkoutLogs(context.Background(), "alice", nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "l2", page[0].ID)
	require.Equal(t, "l3", page[1].ID)
	require.Equal(t, &domain.LogCursor{Date: "2025-10-26", ID: "l3"}, next)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWorkoutLogsRejectsCorruptEntries(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectLRange(LogKey("alice"), 0, -1).SetVal([]string{"{not json"})

	_, _, err := NewStore(db).ListWorkoutLogs(context.Background(), "alice", nil, 10)
	require.ErrorContains(t, err, "decode workout log")
}
