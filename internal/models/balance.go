package models

import "github.com/shopspring/decimal"

// Balance is the signed unit accumulator for one (user, group) pair.
// Rows are created lazily on first join or contribution and updated
// additively at each settlement; they outlive any single sprint.
type Balance struct {
	// UserID and GroupID identify the pair.
	UserID  int64
	GroupID string

	// Units is the current signed balance, rounded to two places.
	Units decimal.Decimal
}
