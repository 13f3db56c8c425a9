package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/progression/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	in := &domain.LogCursor{Date: "2025-10-27", ID: "4f6c"}
	out, err := DecodeCursor(EncodeCursor(in))
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeCursorBlank(t *testing.T) {
	c, err := DecodeCursor(" ")
	require.NoError(t, err)
	require.Nil(t, c)
	require.Equal(t, "", EncodeCursor(nil))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!!")
	require.Error(t, err)

	_, err = DecodeCursor(EncodeCursor(&domain.LogCursor{Date: "yesterday", ID: "x"}))
	require.Error(t, err)
}

func TestPageCursor(t *testing.T) {
	logs := []domain.WorkoutLog{{ID: "a", Date: "2025-10-27"}, {ID: "b", Date: "2025-10-26"}}
	require.Nil(t, PageCursor(logs, 3))
	require.Equal(t, &domain.LogCursor{Date: "2025-10-26", ID: "b"}, PageCursor(logs, 2))
}

func TestPageLogs(t *testing.T) {
	logs := []domain.WorkoutLog{
		{ID: "a", Date: "2025-10-25"},
		{ID: "c", Date: "2025-10-27"},
		{ID: "b", Date: "2025-10-27"},
		{ID: "d", Date: "2025-10-26"},
	}

	page, next := PageLogs(logs, nil, 2)
	require.Equal(t, []string{"c", "b"}, ids(page))
	require.Equal(t, &domain.LogCursor{Date: "2025-10-27", ID: "b"}, next)

	page, next = PageLogs(logs, next, 2)
	require.Equal(t, []string{"d", "a"}, ids(page))
	require.NotNil(t, next)

	page, next = PageLogs(logs, next, 2)
	require.Empty(t, page)
	require.Nil(t, next)

	page, next = PageLogs(logs, nil, 0)
	require.Empty(t, page)
	require.Nil(t, next)
}

func ids(logs []domain.WorkoutLog) []string {
	out := make([]string, 0, len(logs))
	for _, entry := range logs {
		out = append(out, entry.ID)
	}
	return out
}
