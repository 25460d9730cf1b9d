package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

// CreateLog persists a new completion attempt.
func (s *SQLiteStore) CreateLog(ctx context.Context, log *models.Log) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (id, group_id, user_id, task_id, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.GroupID, log.UserID, log.TaskID, log.Status, log.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert log: %w", err)
	}
	return nil
}

// GetLog retrieves a log by ID.
func (s *SQLiteStore) GetLog(ctx context.Context, logID string) (*models.Log, error) {
	log := &models.Log{}
	var ts int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, user_id, task_id, status, timestamp FROM logs WHERE id = ?",
		logID,
	).Scan(&log.ID, &log.GroupID, &log.UserID, &log.TaskID, &log.Status, &ts)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("log %s: %w", logID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	log.Timestamp = time.Unix(ts, 0)
	return log, nil
}

// CompleteLog transitions a pending log to completed, overwriting its
// timestamp with the confirmation moment.
func (s *SQLiteStore) CompleteLog(ctx context.Context, logID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE logs SET status = ?, timestamp = ? WHERE id = ? AND status = ?",
		models.LogCompleted, at.Unix(), logID, models.LogPending,
	)
	if err != nil {
		return fmt.Errorf("failed to complete log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check log update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending log %s: %w", logID, storage.ErrNotFound)
	}
	return nil
}

// DeletePendingLog removes a pending log (rejection). Completed logs are
// immutable history and cannot be deleted.
func (s *SQLiteStore) DeletePendingLog(ctx context.Context, logID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM logs WHERE id = ? AND status = ?", logID, models.LogPending)
	if err != nil {
		return fmt.Errorf("failed to delete pending log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check log delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pending log %s: %w", logID, storage.ErrNotFound)
	}
	return nil
}

// ListLogs retrieves a group's logs whose timestamps fall inside the
// [from, to] window of whole days, inclusive.
func (s *SQLiteStore) ListLogs(ctx context.Context, groupID string, from, to time.Time) ([]models.Log, error) {
	lo := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	hi := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, user_id, task_id, status, timestamp
		 FROM logs WHERE group_id = ? AND timestamp >= ? AND timestamp < ?
		 ORDER BY timestamp`,
		groupID, lo.Unix(), hi.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var logs []models.Log
	for rows.Next() {
		var log models.Log
		var ts int64
		if err := rows.Scan(&log.ID, &log.GroupID, &log.UserID, &log.TaskID, &log.Status, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		log.Timestamp = time.Unix(ts, 0)
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", err)
	}
	return logs, nil
}

// CountCompletions counts a task's completed logs inside the window.
func (s *SQLiteStore) CountCompletions(ctx context.Context, taskID string, from, to time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM logs
		 WHERE task_id = ? AND status = ? AND timestamp >= ? AND timestamp <= ?`,
		taskID, models.LogCompleted, from.Unix(), to.Unix(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	return count, nil
}
