package models

import "github.com/shopspring/decimal"

// Task represents a recurring chore owned by exactly one group.
type Task struct {
	// ID is the unique identifier for the task (UUID format).
	ID string

	// GroupID is the owning group.
	GroupID string

	// Title is the human-readable chore name.
	Title string

	// Frequency is the target number of completions per sprint. Members may
	// adjust it up and down live.
	Frequency int

	// Cost is the number of units awarded per confirmed completion.
	Cost decimal.Decimal

	// Active is the soft-delete flag. Inactive tasks are excluded from all
	// aggregation but never physically removed, so historical logs keep
	// their referential integrity.
	Active bool

	// CreatedAt is the Unix timestamp when the task was created.
	CreatedAt int64
}

// PlanValue is the task's full planned contribution for one sprint
// (cost times frequency).
func (t Task) PlanValue() decimal.Decimal {
	return t.Cost.Mul(decimal.NewFromInt(int64(t.Frequency)))
}
