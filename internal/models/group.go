package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Weights maps a member's user ID to their load-share percentage of the
// group's total planned workload. Values are whole percents and must sum to
// 100 across the group's members; Validate runs at every mutation site.
type Weights map[int64]int

// Of returns the member's percentage, defaulting to 0 for unknown members.
func (w Weights) Of(userID int64) int {
	return w[userID]
}

// Fraction returns the member's share as a decimal fraction (weight / 100).
func (w Weights) Fraction(userID int64) decimal.Decimal {
	return decimal.NewFromInt(int64(w[userID])).Div(decimal.NewFromInt(100))
}

// Validate checks the sum-to-100 invariant and that every entry belongs to
// one of the given members.
func (w Weights) Validate(memberIDs []int64) error {
	members := make(map[int64]bool, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = true
	}

	sum := 0
	for id, pct := range w {
		if pct < 0 || pct > 100 {
			return fmt.Errorf("weight for user %d out of range: %d", id, pct)
		}
		if !members[id] {
			return fmt.Errorf("weight assigned to non-member %d", id)
		}
		sum += pct
	}
	if sum != 100 {
		return fmt.Errorf("weights must sum to 100, got %d", sum)
	}
	return nil
}

// MarshalJSON encodes weights as an object keyed by the member ID rendered
// as a string, which is how the weights column is stored.
func (w Weights) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(w))
	for id, pct := range w {
		m[strconv.FormatInt(id, 10)] = pct
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the string-keyed object form.
func (w *Weights) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(Weights, len(m))
	for key, pct := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid weight key %q: %w", key, err)
		}
		out[id] = pct
	}
	*w = out
	return nil
}

// Group represents a household-like group of members sharing chores.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the unique display name of the group.
	Name string

	// SecretHash is the bcrypt hash of the join secret.
	SecretHash string

	// StartDay is the weekday name anchoring the sprint window.
	// One of the seven names accepted by the sprint package.
	StartDay string

	// SprintDuration is the sprint length in days. Creation-time validation
	// requires a positive multiple of 7; settlement tolerates any positive
	// value.
	SprintDuration int

	// OwnerID is the member who receives sprint summaries and may edit
	// group settings. Reassigned when the owner leaves.
	OwnerID int64

	// GroupBalance is a snapshot of the last settled sprint's net
	// surplus/deficit (total fact minus total plan). It is overwritten at
	// each settlement, not accumulated.
	GroupBalance decimal.Decimal

	// Weights is the per-member load-share map.
	Weights Weights

	// LastSettledOn is the date ("2006-01-02") of the most recent
	// settlement, empty if the group has never settled. Guards against a
	// boundary date being settled twice.
	LastSettledOn string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
