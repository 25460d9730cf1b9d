package sprint

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
)

// Result holds one member's aggregated figures for a window.
type Result struct {
	// Plan is the member's expected unit contribution: the group's total
	// task value scaled by the member's load share. Tasks are not assigned
	// per member; any member may complete any task.
	Plan decimal.Decimal

	// Fact is the member's actually earned units from completed logs inside
	// the window.
	Fact decimal.Decimal

	// Efficiency is 100 * fact / plan, or 0 when plan is 0. A member with
	// zero weight reports 0% even with positive fact; that quirk is part of
	// the model, not suppressed here.
	Efficiency float64
}

// Aggregate computes plan, fact and efficiency per member for the window
// [windowStart, windowEnd] (whole days, inclusive). It is a pure function of
// its arguments: identical inputs always produce identical results.
//
// Only the supplied tasks participate, so passing the group's active tasks
// excludes soft-deleted ones from both plan and fact. Logs referencing tasks
// outside that set are skipped. Members missing from the weights map default
// to a 0 share.
func Aggregate(group *models.Group, tasks []models.Task, logs []models.Log, users []models.User, windowStart, windowEnd time.Time) map[int64]Result {
	totalValue := decimal.Zero
	costByTask := make(map[string]decimal.Decimal, len(tasks))
	for _, t := range tasks {
		totalValue = totalValue.Add(t.PlanValue())
		costByTask[t.ID] = t.Cost
	}

	factByUser := make(map[int64]decimal.Decimal, len(users))
	lo := midnight(windowStart)
	hi := midnight(windowEnd).AddDate(0, 0, 1)
	for _, log := range logs {
		if log.Status != models.LogCompleted {
			continue
		}
		if log.Timestamp.Before(lo) || !log.Timestamp.Before(hi) {
			continue
		}
		cost, ok := costByTask[log.TaskID]
		if !ok {
			continue
		}
		factByUser[log.UserID] = factByUser[log.UserID].Add(cost)
	}

	results := make(map[int64]Result, len(users))
	for _, u := range users {
		plan := totalValue.Mul(group.Weights.Fraction(u.ID))
		fact := factByUser[u.ID]

		efficiency := 0.0
		if plan.IsPositive() {
			efficiency, _ = fact.Div(plan).Mul(decimal.NewFromInt(100)).Float64()
		}

		results[u.ID] = Result{Plan: plan, Fact: fact, Efficiency: efficiency}
	}
	return results
}
