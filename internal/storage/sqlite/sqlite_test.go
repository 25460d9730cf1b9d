package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedGroup(t *testing.T, store *SQLiteStore, name string, ownerID int64) *models.Group {
	t.Helper()
	ctx := context.Background()

	group := &models.Group{
		Name:           name,
		SecretHash:     "hash",
		StartDay:       "понедельник",
		SprintDuration: 7,
		OwnerID:        ownerID,
		Weights:        models.Weights{ownerID: 100},
	}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.UpsertUser(ctx, &models.User{ID: ownerID, FirstName: "Owner"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := store.SetUserGroup(ctx, ownerID, group.ID); err != nil {
		t.Fatalf("SetUserGroup failed: %v", err)
	}
	return group
}

func TestGroupRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.Name != "flat" || got.StartDay != "понедельник" || got.SprintDuration != 7 {
		t.Errorf("unexpected group: %+v", got)
	}
	if got.Weights[1] != 100 {
		t.Errorf("weights = %v, want owner at 100", got.Weights)
	}
	if !got.GroupBalance.Equal(decimal.Zero) {
		t.Errorf("new group balance = %s, want 0", got.GroupBalance)
	}

	byName, err := store.GetGroupByName(ctx, "flat")
	if err != nil {
		t.Fatalf("GetGroupByName failed: %v", err)
	}
	if byName.ID != group.ID {
		t.Errorf("GetGroupByName returned %s, want %s", byName.ID, group.ID)
	}

	_, err = store.GetGroup(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetGroup(missing) error = %v, want ErrNotFound", err)
	}
}

func TestGroupUpdateWeightsAndOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	group.Weights = models.Weights{1: 60, 2: 40}
	group.OwnerID = 2

	if err := store.UpdateGroup(ctx, group); err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if got.OwnerID != 2 || got.Weights[1] != 60 || got.Weights[2] != 40 {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUserMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	if err := store.UpsertUser(ctx, &models.User{ID: 2, FirstName: "B"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := store.SetUserGroup(ctx, 2, group.ID); err != nil {
		t.Fatalf("SetUserGroup failed: %v", err)
	}

	users, err := store.ListGroupUsers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListGroupUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("members = %d, want 2", len(users))
	}

	// Leaving clears membership without deleting the user.
	if err := store.SetUserGroup(ctx, 2, ""); err != nil {
		t.Fatalf("SetUserGroup(clear) failed: %v", err)
	}
	user, err := store.GetUser(ctx, 2)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user.GroupID != "" {
		t.Errorf("group id = %q, want empty after leave", user.GroupID)
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	task := &models.Task{
		GroupID: group.ID, Title: "dishes", Frequency: 5, Cost: dec("10"), Active: true,
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	task.Frequency = 6
	task.Cost = dec("12.5")
	if err := store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	tasks, err := store.ListActiveTasks(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListActiveTasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Frequency != 6 || !tasks[0].Cost.Equal(dec("12.5")) {
		t.Errorf("unexpected tasks: %+v", tasks)
	}

	if err := store.DeactivateTask(ctx, task.ID); err != nil {
		t.Fatalf("DeactivateTask failed: %v", err)
	}
	tasks, err = store.ListActiveTasks(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListActiveTasks failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("deactivated task still listed: %+v", tasks)
	}

	// Soft-deleted, not gone.
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Active {
		t.Error("task still active after deactivation")
	}
}

func TestLogTransitions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	task := &models.Task{GroupID: group.ID, Title: "dishes", Frequency: 5, Cost: dec("10"), Active: true}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	created := time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC)
	log := &models.Log{
		GroupID: group.ID, UserID: 1, TaskID: task.ID,
		Status: models.LogPending, Timestamp: created,
	}
	if err := store.CreateLog(ctx, log); err != nil {
		t.Fatalf("CreateLog failed: %v", err)
	}

	confirmed := created.Add(3 * time.Hour)
	if err := store.CompleteLog(ctx, log.ID, confirmed); err != nil {
		t.Fatalf("CompleteLog failed: %v", err)
	}

	got, err := store.GetLog(ctx, log.ID)
	if err != nil {
		t.Fatalf("GetLog failed: %v", err)
	}
	if got.Status != models.LogCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if !got.Timestamp.Equal(confirmed) {
		t.Errorf("timestamp = %v, want overwritten to %v", got.Timestamp, confirmed)
	}

	// The transition is one-way.
	if err := store.CompleteLog(ctx, log.ID, confirmed); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second CompleteLog error = %v, want ErrNotFound", err)
	}
	// Completed history cannot be deleted.
	if err := store.DeletePendingLog(ctx, log.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeletePendingLog on completed log error = %v, want ErrNotFound", err)
	}
}

func TestListLogsWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	task := &models.Task{GroupID: group.ID, Title: "dishes", Frequency: 5, Cost: dec("10"), Active: true}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)
	stamps := []time.Time{
		start.Add(-time.Hour),               // before
		start.Add(time.Hour),                // inside
		end.Add(23*time.Hour + time.Minute), // inside, last day
		end.AddDate(0, 0, 1),                // after
	}
	for _, ts := range stamps {
		log := &models.Log{
			GroupID: group.ID, UserID: 1, TaskID: task.ID,
			Status: models.LogCompleted, Timestamp: ts,
		}
		if err := store.CreateLog(ctx, log); err != nil {
			t.Fatalf("CreateLog failed: %v", err)
		}
	}

	logs, err := store.ListLogs(ctx, group.ID, start, end)
	if err != nil {
		t.Fatalf("ListLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("logs in window = %d, want 2", len(logs))
	}

	count, err := store.CountCompletions(ctx, task.ID, start, end.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("CountCompletions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("completions = %d, want 3", count)
	}
}

func TestBalancesAndTransfer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	if err := store.UpsertUser(ctx, &models.User{ID: 2, FirstName: "B"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := store.SetUserGroup(ctx, 2, group.ID); err != nil {
		t.Fatalf("SetUserGroup failed: %v", err)
	}

	// Missing rows read as zero.
	bal, err := store.GetBalance(ctx, 1, group.ID)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !bal.Units.Equal(decimal.Zero) {
		t.Errorf("fresh balance = %s, want 0", bal.Units)
	}

	if err := store.EnsureBalance(ctx, 1, group.ID); err != nil {
		t.Fatalf("EnsureBalance failed: %v", err)
	}
	// Idempotent.
	if err := store.EnsureBalance(ctx, 1, group.ID); err != nil {
		t.Fatalf("second EnsureBalance failed: %v", err)
	}

	// Fund user 1 through a settlement, then transfer.
	_, err = store.SettleGroup(ctx, group.ID, "2025-06-22", dec("0"),
		map[int64]decimal.Decimal{1: dec("30")})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}

	if err := store.TransferUnits(ctx, group.ID, 1, 2, dec("10")); err != nil {
		t.Fatalf("TransferUnits failed: %v", err)
	}

	from, _ := store.GetBalance(ctx, 1, group.ID)
	to, _ := store.GetBalance(ctx, 2, group.ID)
	if !from.Units.Equal(dec("20")) || !to.Units.Equal(dec("10")) {
		t.Errorf("after transfer: from = %s, to = %s, want 20 and 10", from.Units, to.Units)
	}

	err = store.TransferUnits(ctx, group.ID, 1, 2, dec("100"))
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Errorf("overdraft error = %v, want ErrInsufficientFunds", err)
	}
}

func TestSettleGroupAtomicity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := seedGroup(t, store, "flat", 1)
	if err := store.UpsertUser(ctx, &models.User{ID: 2, FirstName: "B"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	updated, err := store.SettleGroup(ctx, group.ID, "2025-06-22", dec("-10.5"),
		map[int64]decimal.Decimal{
			1: dec("27.504"), // rounds to 27.5
			2: dec("-15"),
		})
	if err != nil {
		t.Fatalf("SettleGroup failed: %v", err)
	}
	if !updated[1].Equal(dec("27.5")) || !updated[2].Equal(dec("-15")) {
		t.Errorf("updated balances = %v, want rounded 27.5 and -15", updated)
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if !got.GroupBalance.Equal(dec("-10.5")) {
		t.Errorf("group balance = %s, want -10.5", got.GroupBalance)
	}
	if got.LastSettledOn != "2025-06-22" {
		t.Errorf("last settled on = %q, want 2025-06-22", got.LastSettledOn)
	}

	// Settling an unknown group changes nothing and reports not found.
	_, err = store.SettleGroup(ctx, "missing", "2025-06-22", dec("0"), nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("SettleGroup(missing) error = %v, want ErrNotFound", err)
	}
}
