// Package sqlite persists progression records in an on-device SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"example.com/progression/internal/domain"
	"example.com/progression/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS progress_records (
	user_id    TEXT PRIMARY KEY,
	revision   INTEGER NOT NULL,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS workout_logs (
	log_id       TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	workout_id   TEXT NOT NULL,
	workout_date TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS workout_logs_user_idx ON workout_logs (user_id, workout_date);
`

// Store persists progress state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ForUser returns a gateway scoped to userID.
func (s *Store) ForUser(userID string) *Gateway {
	return &Gateway{store: s, userID: userID}
}

// ListWorkoutLogs returns a page of userID's workout logs, newest first.
func (s *Store) ListWorkoutLogs(ctx context.Context, userID string, cursor *domain.LogCursor, limit int) ([]domain.WorkoutLog, *domain.LogCursor, error) {
	args := []any{userID}
	query := `SELECT log_id, user_id, workout_id, workout_date FROM workout_logs WHERE user_id = ?`
	if cursor != nil {
		query += ` AND (workout_date, log_id) < (?, ?)`
		args = append(args, cursor.Date, cursor.ID)
	}
	query += ` ORDER BY workout_date DESC, log_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.WorkoutLog, 0, limit)
	for rows.Next() {
		var entry domain.WorkoutLog
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.WorkoutID, &entry.Date); err != nil {
			return nil, nil, fmt.Errorf("scan workout log: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return logs, storage.PageCursor(logs, limit), nil
}

// Gateway implements progress.Gateway and progress.WorkoutLogAppender for one user.
type Gateway struct {
	store  *Store
	userID string
}

// Load returns the stored record or nil when none exists.
func (g *Gateway) Load(ctx context.Context) (*domain.ProgressionRecord, error) {
	var payload string
	err := g.store.sqlDB.QueryRowContext(ctx,
		`SELECT payload FROM progress_records WHERE user_id = ?`, g.userID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progress record: %w", err)
	}

	var rec domain.ProgressionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("decode progress record: %w", err)
	}
	return &rec, nil
}

// Save upserts the record. A stored row with a higher revision is left in place.
func (g *Gateway) Save(ctx context.Context, record domain.ProgressionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode progress record: %w", err)
	}
	_, err = g.store.sqlDB.ExecContext(ctx,
		`INSERT INTO progress_records (user_id, revision, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET revision = excluded.revision, payload = excluded.payload, updated_at = excluded.updated_at
		 WHERE excluded.revision >= progress_records.revision`,
		g.userID, int64(record.Revision), string(payload), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save progress record: %w", err)
	}
	return nil
}

// Clear deletes the record and the workout log of the user.
func (g *Gateway) Clear(ctx context.Context) error {
	tx, err := g.store.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM progress_records WHERE user_id = ?`, g.userID); err != nil {
		return fmt.Errorf("clear progress record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_logs WHERE user_id = ?`, g.userID); err != nil {
		return fmt.Errorf("clear workout logs: %w", err)
	}
	return tx.Commit()
}

// AppendWorkoutLog inserts one workout log row.
func (g *Gateway) AppendWorkoutLog(ctx context.Context, entry domain.WorkoutLog) error {
	_, err := g.store.sqlDB.ExecContext(ctx,
		`INSERT INTO workout_logs (log_id, user_id, workout_id, workout_date) VALUES (?, ?, ?, ?)`,
		entry.ID, g.userID, entry.WorkoutID, entry.Date,
	)
	if err != nil {
		return fmt.Errorf("append workout log: %w", err)
	}
	return nil
}
