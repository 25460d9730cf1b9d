package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/sprint"
	"github.com/ykarpov/chorebank/internal/storage"
	"github.com/ykarpov/chorebank/internal/tokens"
)

// TaskService manages a group's chores and their completion logs.
type TaskService struct {
	store  storage.Store
	codes  tokens.Store
	logger *slog.Logger
}

// NewTaskService creates a task service.
func NewTaskService(store storage.Store, codes tokens.Store, logger *slog.Logger) *TaskService {
	return &TaskService{store: store, codes: codes, logger: logger}
}

// AddTask creates an active task in the caller's group.
func (s *TaskService) AddTask(ctx context.Context, userID int64, title string, cost decimal.Decimal, frequency int) (*models.Task, error) {
	_, group, err := memberOf(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	if !cost.IsPositive() {
		return nil, ErrBadAmount
	}
	if frequency < 1 {
		return nil, fmt.Errorf("frequency must be at least 1")
	}

	task := &models.Task{
		GroupID:   group.ID,
		Title:     title,
		Frequency: frequency,
		Cost:      cost,
		Active:    true,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Info("task added", "group_id", group.ID, "task_id", task.ID, "title", title)
	return task, nil
}

// EditTask updates a task's title, cost and frequency.
func (s *TaskService) EditTask(ctx context.Context, userID int64, taskID, title string, cost decimal.Decimal, frequency int) error {
	task, err := s.groupTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if !cost.IsPositive() {
		return ErrBadAmount
	}
	if frequency < 1 {
		return fmt.Errorf("frequency must be at least 1")
	}

	task.Title = title
	task.Cost = cost
	task.Frequency = frequency
	return s.store.UpdateTask(ctx, task)
}

// AdjustFrequency bumps a task's per-sprint target up or down, floor 1.
// Any member may adjust live.
func (s *TaskService) AdjustFrequency(ctx context.Context, userID int64, taskID string, delta int) (int, error) {
	task, err := s.groupTask(ctx, userID, taskID)
	if err != nil {
		return 0, err
	}

	next := task.Frequency + delta
	if next < 1 {
		next = 1
	}
	task.Frequency = next
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return 0, err
	}
	return next, nil
}

// RemoveTask soft-deletes a task. Its historical logs stay queryable.
func (s *TaskService) RemoveTask(ctx context.Context, userID int64, taskID string) error {
	task, err := s.groupTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateTask(ctx, task.ID); err != nil {
		return err
	}
	s.logger.Info("task removed", "group_id", task.GroupID, "task_id", task.ID)
	return nil
}

// TaskStatus is one open task with its remaining completions for the
// current sprint window.
type TaskStatus struct {
	Task      models.Task
	Remaining int
}

// OpenTasks lists the group's active tasks that still have completions left
// in the current window.
func (s *TaskService) OpenTasks(ctx context.Context, userID int64, now time.Time) ([]TaskStatus, error) {
	_, group, err := memberOf(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}

	start, err := sprint.StartDate(group.StartDay, now)
	if err != nil {
		return nil, err
	}
	end, err := sprint.EndDate(group.StartDay, group.SprintDuration, now)
	if err != nil {
		return nil, err
	}

	tasks, err := s.store.ListActiveTasks(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	var open []TaskStatus
	for _, task := range tasks {
		done, err := s.store.CountCompletions(ctx, task.ID, start, end.AddDate(0, 0, 1))
		if err != nil {
			return nil, err
		}
		if done < task.Frequency {
			open = append(open, TaskStatus{Task: task, Remaining: task.Frequency - done})
		}
	}
	return open, nil
}

// LogCompletion records a completion attempt. A sole group member completes
// immediately; otherwise the log is pending until a co-member confirms.
// The returned bool reports whether the log is already completed.
func (s *TaskService) LogCompletion(ctx context.Context, userID int64, taskID string) (*models.Log, bool, error) {
	task, err := s.groupTask(ctx, userID, taskID)
	if err != nil {
		return nil, false, err
	}

	members, err := s.store.ListGroupUsers(ctx, task.GroupID)
	if err != nil {
		return nil, false, err
	}

	status := models.LogPending
	if len(members) == 1 {
		status = models.LogCompleted
	}

	log := &models.Log{
		GroupID:   task.GroupID,
		UserID:    userID,
		TaskID:    task.ID,
		Status:    status,
		Timestamp: time.Now(),
	}
	if err := s.store.CreateLog(ctx, log); err != nil {
		return nil, false, fmt.Errorf("create log: %w", err)
	}

	s.logger.Info("completion logged",
		"group_id", task.GroupID, "task_id", task.ID, "user_id", userID, "status", status)
	return log, status == models.LogCompleted, nil
}

// ConfirmLog approves a pending completion. The confirmer must be a
// co-member of the author's group and not the author. The log's timestamp
// is overwritten with the confirmation moment.
func (s *TaskService) ConfirmLog(ctx context.Context, confirmerID int64, logID string) error {
	log, err := s.pendingLogFor(ctx, confirmerID, logID)
	if err != nil {
		return err
	}
	if err := s.store.CompleteLog(ctx, log.ID, time.Now()); err != nil {
		return err
	}
	s.logger.Info("completion confirmed",
		"group_id", log.GroupID, "log_id", log.ID, "confirmer_id", confirmerID)
	return nil
}

// RejectLog discards a pending completion. No terminal rejected status is
// persisted; the row is deleted.
func (s *TaskService) RejectLog(ctx context.Context, rejecterID int64, logID string) error {
	log, err := s.pendingLogFor(ctx, rejecterID, logID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePendingLog(ctx, log.ID); err != nil {
		return err
	}
	s.logger.Info("completion rejected",
		"group_id", log.GroupID, "log_id", log.ID, "rejecter_id", rejecterID)
	return nil
}

// RequestKillTasks issues a confirmation code for deactivating every task
// in the caller's group.
func (s *TaskService) RequestKillTasks(ctx context.Context, userID int64) (string, error) {
	if _, _, err := memberOf(ctx, s.store, userID); err != nil {
		return "", err
	}

	code, err := tokens.NewCode()
	if err != nil {
		return "", err
	}
	if err := s.codes.Issue(ctx, userID, tokens.PurposeKillTasks, code); err != nil {
		return "", fmt.Errorf("issue confirmation code: %w", err)
	}
	return code, nil
}

// ConfirmKillTasks deactivates every active task once the code matches.
func (s *TaskService) ConfirmKillTasks(ctx context.Context, userID int64, code string) error {
	_, group, err := memberOf(ctx, s.store, userID)
	if err != nil {
		return err
	}

	ok, err := s.codes.Redeem(ctx, userID, tokens.PurposeKillTasks, code)
	if err != nil {
		return fmt.Errorf("redeem confirmation code: %w", err)
	}
	if !ok {
		return ErrBadCode
	}

	if err := s.store.DeactivateGroupTasks(ctx, group.ID); err != nil {
		return err
	}
	s.logger.Info("all tasks deactivated", "group_id", group.ID, "user_id", userID)
	return nil
}

// groupTask loads a task and checks it belongs to the caller's group.
func (s *TaskService) groupTask(ctx context.Context, userID int64, taskID string) (*models.Task, error) {
	_, group, err := memberOf(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBadTask
		}
		return nil, err
	}
	if task.GroupID != group.ID {
		return nil, ErrBadTask
	}
	return task, nil
}

// pendingLogFor loads a pending log and checks the caller may decide it:
// same group, different author.
func (s *TaskService) pendingLogFor(ctx context.Context, deciderID int64, logID string) (*models.Log, error) {
	_, group, err := memberOf(ctx, s.store, deciderID)
	if err != nil {
		return nil, err
	}
	log, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if log.GroupID != group.ID {
		return nil, ErrNotMember
	}
	if log.UserID == deciderID {
		return nil, ErrOwnConfirm
	}
	return log, nil
}
