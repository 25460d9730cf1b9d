package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/service"
)

func TestAddTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	if _, err := env.tasks.AddTask(ctx, 999, "dishes", decimal.NewFromInt(10), 5); !errors.Is(err, service.ErrNotInGroup) {
		t.Errorf("outsider error = %v, want ErrNotInGroup", err)
	}
	if _, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.Zero, 5); !errors.Is(err, service.ErrBadAmount) {
		t.Errorf("zero cost error = %v, want ErrBadAmount", err)
	}
	if _, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 0); err == nil {
		t.Error("zero frequency accepted")
	}

	task, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if task.ID == "" || !task.Active {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestAdjustFrequencyFloor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	task, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 3)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	next, err := env.tasks.AdjustFrequency(ctx, memberID, task.ID, 2)
	if err != nil {
		t.Fatalf("AdjustFrequency failed: %v", err)
	}
	if next != 5 {
		t.Errorf("frequency = %d, want 5", next)
	}

	next, err = env.tasks.AdjustFrequency(ctx, memberID, task.ID, -10)
	if err != nil {
		t.Fatalf("AdjustFrequency failed: %v", err)
	}
	if next != 1 {
		t.Errorf("frequency = %d, want floor 1", next)
	}
}

func TestTaskGroupIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	if _, err := env.groups.CreateGroup(ctx, 500, "E", "other", "secret123", "среда", 7); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	foreign, err := env.tasks.AddTask(ctx, 500, "windows", decimal.NewFromInt(20), 1)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if _, err := env.tasks.AdjustFrequency(ctx, ownerID, foreign.ID, 1); !errors.Is(err, service.ErrBadTask) {
		t.Errorf("cross-group adjust error = %v, want ErrBadTask", err)
	}
	if err := env.tasks.RemoveTask(ctx, ownerID, foreign.ID); !errors.Is(err, service.ErrBadTask) {
		t.Errorf("cross-group remove error = %v, want ErrBadTask", err)
	}
	if _, _, err := env.tasks.LogCompletion(ctx, ownerID, foreign.ID); !errors.Is(err, service.ErrBadTask) {
		t.Errorf("cross-group log error = %v, want ErrBadTask", err)
	}
}

func TestLogCompletionPeerConfirmation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	task, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	log, completed, err := env.tasks.LogCompletion(ctx, ownerID, task.ID)
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if completed {
		t.Error("completion auto-confirmed in a two-member group")
	}
	if log.Status != models.LogPending {
		t.Errorf("status = %s, want pending", log.Status)
	}

	// The author cannot confirm their own work.
	if err := env.tasks.ConfirmLog(ctx, ownerID, log.ID); !errors.Is(err, service.ErrOwnConfirm) {
		t.Errorf("self-confirm error = %v, want ErrOwnConfirm", err)
	}
	// An outsider cannot decide it either.
	if _, err := env.groups.CreateGroup(ctx, 500, "E", "other", "secret123", "среда", 7); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := env.tasks.ConfirmLog(ctx, 500, log.ID); !errors.Is(err, service.ErrNotMember) {
		t.Errorf("outsider confirm error = %v, want ErrNotMember", err)
	}

	if err := env.tasks.ConfirmLog(ctx, memberID, log.ID); err != nil {
		t.Fatalf("ConfirmLog failed: %v", err)
	}
	got, err := env.store.GetLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if got.Status != models.LogCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestLogCompletionSoleMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.groups.CreateGroup(ctx, ownerID, "Anna", "flat", "secret123", "понедельник", 7); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	task, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	log, completed, err := env.tasks.LogCompletion(ctx, ownerID, task.ID)
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if !completed || log.Status != models.LogCompleted {
		t.Errorf("sole member completion not auto-confirmed: %+v", log)
	}
}

func TestRejectLogDeletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	task, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 5)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	log, _, err := env.tasks.LogCompletion(ctx, ownerID, task.ID)
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}

	if err := env.tasks.RejectLog(ctx, memberID, log.ID); err != nil {
		t.Fatalf("RejectLog failed: %v", err)
	}
	// No rejected state is kept; the row is gone.
	if _, err := env.store.GetLog(ctx, log.ID); err == nil {
		t.Error("rejected log still exists")
	}
}

func TestOpenTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createFlat(t, env)

	done, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 1)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	open, err := env.tasks.AddTask(ctx, ownerID, "floors", decimal.NewFromInt(15), 3)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	log, _, err := env.tasks.LogCompletion(ctx, ownerID, done.ID)
	if err != nil {
		t.Fatalf("LogCompletion failed: %v", err)
	}
	if err := env.tasks.ConfirmLog(ctx, memberID, log.ID); err != nil {
		t.Fatalf("ConfirmLog failed: %v", err)
	}

	statuses, err := env.tasks.OpenTasks(ctx, ownerID, time.Now())
	if err != nil {
		t.Fatalf("OpenTasks failed: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("open tasks = %d, want 1", len(statuses))
	}
	if statuses[0].Task.ID != open.ID || statuses[0].Remaining != 3 {
		t.Errorf("unexpected open task: %+v", statuses[0])
	}
}

func TestKillTasksFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	group := createFlat(t, env)

	if _, err := env.tasks.AddTask(ctx, ownerID, "dishes", decimal.NewFromInt(10), 5); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := env.tasks.AddTask(ctx, ownerID, "floors", decimal.NewFromInt(15), 3); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	code, err := env.tasks.RequestKillTasks(ctx, ownerID)
	if err != nil {
		t.Fatalf("RequestKillTasks failed: %v", err)
	}
	if err := env.tasks.ConfirmKillTasks(ctx, ownerID, "not-a-code"); !errors.Is(err, service.ErrBadCode) {
		t.Errorf("wrong code error = %v, want ErrBadCode", err)
	}
	if err := env.tasks.ConfirmKillTasks(ctx, ownerID, code); err != nil {
		t.Fatalf("ConfirmKillTasks failed: %v", err)
	}

	tasks, err := env.store.ListActiveTasks(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListActiveTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("active tasks after kill = %d, want 0", len(tasks))
	}
}
