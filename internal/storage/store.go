// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientFunds is returned by TransferUnits when the sender's
// balance does not cover the amount.
var ErrInsufficientFunds = errors.New("insufficient balance")

// Store defines the persistence operations used by the services and the
// settlement engine. This abstraction allows swapping storage backends
// (SQLite, PostgreSQL, etc.) without changing the callers.
type Store interface {
	// Groups.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, groupID string) error

	// Users.
	UpsertUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListGroupUsers(ctx context.Context, groupID string) ([]models.User, error)
	SetUserGroup(ctx context.Context, userID int64, groupID string) error

	// Tasks.
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	ListActiveTasks(ctx context.Context, groupID string) ([]models.Task, error)
	DeactivateTask(ctx context.Context, taskID string) error
	DeactivateGroupTasks(ctx context.Context, groupID string) error

	// Logs. History is append-only: completed logs are never deleted, the
	// only mutation is the pending→completed transition.
	CreateLog(ctx context.Context, log *models.Log) error
	GetLog(ctx context.Context, logID string) (*models.Log, error)
	CompleteLog(ctx context.Context, logID string, at time.Time) error
	DeletePendingLog(ctx context.Context, logID string) error
	ListLogs(ctx context.Context, groupID string, from, to time.Time) ([]models.Log, error)
	CountCompletions(ctx context.Context, taskID string, from, to time.Time) (int, error)

	// Balances.
	GetBalance(ctx context.Context, userID int64, groupID string) (*models.Balance, error)
	EnsureBalance(ctx context.Context, userID int64, groupID string) error
	TransferUnits(ctx context.Context, groupID string, fromUserID, toUserID int64, amount decimal.Decimal) error

	// SettleGroup commits one sprint settlement atomically: the group
	// balance snapshot, the settled-on marker and all member deltas.
	// It returns each member's new balance rounded to two places.
	SettleGroup(ctx context.Context, groupID, settledOn string, groupBalance decimal.Decimal, deltas map[int64]decimal.Decimal) (map[int64]decimal.Decimal, error)

	// Close releases any resources held by the store.
	Close() error
}
