package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

// CreateTask persists a new task to the database.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt == 0 {
		task.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, group_id, title, frequency, cost, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.GroupID, task.Title, task.Frequency, task.Cost.String(),
		boolToInt(task.Active), task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func scanTask(row interface{ Scan(...any) error }) (*models.Task, error) {
	task := &models.Task{}
	var cost string
	var active int
	err := row.Scan(&task.ID, &task.GroupID, &task.Title, &task.Frequency, &cost, &active, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	task.Cost, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task cost: %w", err)
	}
	task.Active = active != 0
	return task, nil
}

// GetTask retrieves a task by ID, active or not.
func (s *SQLiteStore) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx,
		"SELECT id, group_id, title, frequency, cost, active, created_at FROM tasks WHERE id = ?",
		taskID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask updates a task's title, frequency and cost.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *models.Task) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, frequency = ?, cost = ? WHERE id = ?",
		task.Title, task.Frequency, task.Cost.String(), task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check task update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", task.ID, storage.ErrNotFound)
	}
	return nil
}

// ListActiveTasks retrieves a group's tasks that have not been soft-deleted.
func (s *SQLiteStore) ListActiveTasks(ctx context.Context, groupID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, title, frequency, cost, active, created_at
		 FROM tasks WHERE group_id = ? AND active = 1 ORDER BY created_at`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

// DeactivateTask soft-deletes a task. Its logs stay queryable.
func (s *SQLiteStore) DeactivateTask(ctx context.Context, taskID string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE tasks SET active = 0 WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("failed to deactivate task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check task update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", taskID, storage.ErrNotFound)
	}
	return nil
}

// DeactivateGroupTasks soft-deletes every active task of a group.
func (s *SQLiteStore) DeactivateGroupTasks(ctx context.Context, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET active = 0 WHERE group_id = ? AND active = 1", groupID)
	if err != nil {
		return fmt.Errorf("failed to deactivate group tasks: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
