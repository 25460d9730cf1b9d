package sprint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
)

// dateLayout is the calendar-day format recorded in Group.LastSettledOn.
const dateLayout = "2006-01-02"

// bonusRate is the flat group-wide bonus pool awarded when the group meets
// or exceeds its aggregate plan. There is no partial or graduated bonus.
var bonusRate = decimal.NewFromFloat(0.25)

// Store is the persistence surface the settlement engine needs.
// The sqlite store satisfies it.
type Store interface {
	ListGroups(ctx context.Context) ([]*models.Group, error)
	ListActiveTasks(ctx context.Context, groupID string) ([]models.Task, error)
	ListLogs(ctx context.Context, groupID string, from, to time.Time) ([]models.Log, error)
	ListGroupUsers(ctx context.Context, groupID string) ([]models.User, error)

	// SettleGroup commits one group's settlement as a single transaction:
	// the group balance snapshot, the settled-on marker and every member's
	// balance delta (rounded to two places after addition). It returns the
	// new balance per member.
	SettleGroup(ctx context.Context, groupID, settledOn string, groupBalance decimal.Decimal, deltas map[int64]decimal.Decimal) (map[int64]decimal.Decimal, error)
}

// Notifier delivers chat messages. Delivery is best-effort: the settler logs
// failures and moves on, balances are already committed.
type Notifier interface {
	SendDirect(ctx context.Context, userID int64, text string) error
}

// Settler closes sprint windows: once per tick it scans all groups, detects
// which ones hit their boundary today, aggregates the elapsed window,
// commits balance deltas and fans out reports.
type Settler struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewSettler creates a settlement engine over the given store and notifier.
func NewSettler(store Store, notifier Notifier, logger *slog.Logger) *Settler {
	return &Settler{store: store, notifier: notifier, logger: logger}
}

// RunOnce evaluates every group once against "now". Each group settles
// independently: an error in one is logged and counted, the rest proceed.
// Nothing propagates to the caller.
func (s *Settler) RunOnce(ctx context.Context, now time.Time) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		s.logger.Error("settlement pass failed to list groups", "error", err)
		settlementErrors.Inc()
		return
	}

	for _, group := range groups {
		settled, err := s.settleGroup(ctx, group, now)
		if err != nil {
			s.logger.Error("group settlement failed",
				"group_id", group.ID,
				"group", group.Name,
				"error", err,
			)
			settlementErrors.Inc()
			continue
		}
		if settled {
			settlements.Inc()
		}
	}
}

// settleGroup runs the boundary check and, when today closes the group's
// window, commits the settlement and sends reports. It returns whether a
// settlement was committed.
func (s *Settler) settleGroup(ctx context.Context, group *models.Group, now time.Time) (bool, error) {
	end, err := EndDate(group.StartDay, group.SprintDuration, now)
	if err != nil {
		return false, fmt.Errorf("bad group configuration: %w", err)
	}
	if !sameDate(now, end) {
		return false, nil
	}

	today := now.Format(dateLayout)
	if group.LastSettledOn == today {
		return false, nil
	}

	// The window whose end just elapsed starts at the most recent start-day
	// occurrence; with today on the boundary that is the previous sprint's
	// own start.
	start, err := StartDate(group.StartDay, now)
	if err != nil {
		return false, fmt.Errorf("bad group configuration: %w", err)
	}

	tasks, err := s.store.ListActiveTasks(ctx, group.ID)
	if err != nil {
		return false, fmt.Errorf("list tasks: %w", err)
	}
	logs, err := s.store.ListLogs(ctx, group.ID, start, end)
	if err != nil {
		return false, fmt.Errorf("list logs: %w", err)
	}
	users, err := s.store.ListGroupUsers(ctx, group.ID)
	if err != nil {
		return false, fmt.Errorf("list users: %w", err)
	}

	results := Aggregate(group, tasks, logs, users, start, end)

	totalPlan, totalFact := decimal.Zero, decimal.Zero
	for _, r := range results {
		totalPlan = totalPlan.Add(r.Plan)
		totalFact = totalFact.Add(r.Fact)
	}

	bonus := decimal.Zero
	if totalFact.Cmp(totalPlan) >= 0 {
		bonus = bonusRate.Mul(totalPlan)
	}

	deltas := make(map[int64]decimal.Decimal, len(results))
	for userID, r := range results {
		deltas[userID] = r.Fact.Sub(r.Plan).Add(bonus.Mul(group.Weights.Fraction(userID)))
	}

	// Snapshot of this sprint's net surplus/deficit; overwrites the
	// previous value.
	groupBalance := totalFact.Sub(totalPlan)

	balances, err := s.store.SettleGroup(ctx, group.ID, today, groupBalance, deltas)
	if err != nil {
		return false, fmt.Errorf("commit settlement: %w", err)
	}

	s.logger.Info("sprint settled",
		"group_id", group.ID,
		"group", group.Name,
		"window_start", start.Format(dateLayout),
		"window_end", end.Format(dateLayout),
		"total_plan", totalPlan.String(),
		"total_fact", totalFact.String(),
		"bonus", bonus.String(),
	)

	s.fanOut(ctx, group, users, results, balances, bonus)
	return true, nil
}

// fanOut sends the per-member report and the owner summary. Every delivery
// failure is swallowed after logging.
func (s *Settler) fanOut(ctx context.Context, group *models.Group, users []models.User, results map[int64]Result, balances map[int64]decimal.Decimal, bonus decimal.Decimal) {
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FirstName
	}

	ids := make([]int64, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var summary strings.Builder
	fmt.Fprintf(&summary, "📢 Итоги группы:\n\nРезультат группы %s ю.\n", bonus.String())

	for _, userID := range ids {
		r := results[userID]
		name := names[userID]
		if name == "" {
			name = "Неизвестный"
		}

		text := fmt.Sprintf(
			"📊 Итоги спринта:\n\n👤 %s\n🔹 План: %s юнитов\n✅ Факт: %s юнитов\n📈 Эффективность: %.1f%%\n💰 Новый баланс: %s юнитов",
			name, r.Plan.String(), r.Fact.String(), r.Efficiency, balances[userID].StringFixed(2),
		)
		if err := s.notifier.SendDirect(ctx, userID, text); err != nil {
			s.logger.Warn("sprint report delivery failed",
				"group_id", group.ID, "user_id", userID, "error", err)
			deliveryErrors.Inc()
		}

		fmt.Fprintf(&summary, "👤 %s: %s/%s юнитов (%.1f%%)\n",
			name, r.Fact.String(), r.Plan.String(), r.Efficiency)
	}

	if err := s.notifier.SendDirect(ctx, group.OwnerID, summary.String()); err != nil {
		s.logger.Warn("sprint summary delivery failed",
			"group_id", group.ID, "owner_id", group.OwnerID, "error", err)
		deliveryErrors.Inc()
	}
}
