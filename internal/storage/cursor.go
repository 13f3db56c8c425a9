// Package storage contains helpers shared by the gateway implementations.
package storage

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"time"

	"example.com/progression/internal/domain"
)

// EncodeCursor serialises the cursor to an opaque token.
func EncodeCursor(c *domain.LogCursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.Date, c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. A blank token yields nil.
func DecodeCursor(token string) (*domain.LogCursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}
	if _, err := time.Parse(domain.DateLayout, parts[0]); err != nil {
		return nil, fmt.Errorf("invalid cursor date: %w", err)
	}
	return &domain.LogCursor{Date: parts[0], ID: parts[1]}, nil
}

// PageCursor returns the cursor for the next page when the page is full.
func PageCursor(logs []domain.WorkoutLog, limit int) *domain.LogCursor {
	if limit <= 0 || len(logs) < limit {
		return nil
	}
	last := logs[len(logs)-1]
	return &domain.LogCursor{Date: last.Date, ID: last.ID}
}

// PageLogs sorts logs newest first (date, then id, descending) and returns the page that
// follows cursor along with the cursor for the page after it. logs is reordered in place.
func PageLogs(logs []domain.WorkoutLog, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor) {
	if limit <= 0 {
		return []domain.WorkoutLog{}, nil
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].Date != logs[j].Date {
			return logs[i].Date > logs[j].Date
		}
		return logs[i].ID > logs[j].ID
	})

	page := make([]domain.WorkoutLog, 0, limit)
	for _, entry := range logs {
		if len(page) == limit {
			break
		}
		if cursor != nil && !olderThan(entry, *cursor) {
			continue
		}
		page = append(page, entry)
	}
	return page, PageCursor(page, limit)
}

func olderThan(entry domain.WorkoutLog, cursor domain.LogCursor) bool {
	if entry.Date != cursor.Date {
		return entry.Date < cursor.Date
	}
	return entry.ID < cursor.ID
}
