package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

// GetBalance retrieves the balance row for a (user, group) pair. A missing
// row reads as zero units; rows are created lazily.
func (s *SQLiteStore) GetBalance(ctx context.Context, userID int64, groupID string) (*models.Balance, error) {
	var units string
	err := s.db.QueryRowContext(ctx,
		"SELECT units FROM balances WHERE user_id = ? AND group_id = ?",
		userID, groupID,
	).Scan(&units)
	if err == sql.ErrNoRows {
		return &models.Balance{UserID: userID, GroupID: groupID, Units: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	value, err := decimal.NewFromString(units)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	return &models.Balance{UserID: userID, GroupID: groupID, Units: value}, nil
}

// EnsureBalance creates the zero balance row for a pair if it does not exist.
func (s *SQLiteStore) EnsureBalance(ctx context.Context, userID int64, groupID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO balances (user_id, group_id, units) VALUES (?, ?, '0')
		 ON CONFLICT(user_id, group_id) DO NOTHING`,
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure balance: %w", err)
	}
	return nil
}

// TransferUnits moves units between two members of the same group inside one
// transaction, failing when the sender's balance does not cover the amount.
// The read-check-write sequence is transactional so a concurrent settlement
// cannot interleave a lost update.
func (s *SQLiteStore) TransferUnits(ctx context.Context, groupID string, fromUserID, toUserID int64, amount decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	from, err := balanceInTx(ctx, tx, fromUserID, groupID)
	if err != nil {
		return err
	}
	if from.Cmp(amount) < 0 {
		return storage.ErrInsufficientFunds
	}
	to, err := balanceInTx(ctx, tx, toUserID, groupID)
	if err != nil {
		return err
	}

	if err := upsertBalanceInTx(ctx, tx, fromUserID, groupID, from.Sub(amount)); err != nil {
		return err
	}
	if err := upsertBalanceInTx(ctx, tx, toUserID, groupID, to.Add(amount)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}
	return nil
}

// SettleGroup commits one sprint settlement atomically: the group balance
// snapshot, the settled-on marker and every member delta. Balances are read,
// added to and rounded to two places inside the same transaction.
func (s *SQLiteStore) SettleGroup(ctx context.Context, groupID, settledOn string, groupBalance decimal.Decimal, deltas map[int64]decimal.Decimal) (map[int64]decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET group_balance = ?, last_settled_on = ? WHERE id = ?",
		groupBalance.String(), settledOn, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update group balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check group update: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	updated := make(map[int64]decimal.Decimal, len(deltas))
	for userID, delta := range deltas {
		current, err := balanceInTx(ctx, tx, userID, groupID)
		if err != nil {
			return nil, err
		}
		next := current.Add(delta).Round(2)
		if err := upsertBalanceInTx(ctx, tx, userID, groupID, next); err != nil {
			return nil, err
		}
		updated[userID] = next
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return updated, nil
}

func balanceInTx(ctx context.Context, tx *sql.Tx, userID int64, groupID string) (decimal.Decimal, error) {
	var units string
	err := tx.QueryRowContext(ctx,
		"SELECT units FROM balances WHERE user_id = ? AND group_id = ?",
		userID, groupID,
	).Scan(&units)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	value, err := decimal.NewFromString(units)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse balance: %w", err)
	}
	return value, nil
}

func upsertBalanceInTx(ctx context.Context, tx *sql.Tx, userID int64, groupID string, units decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO balances (user_id, group_id, units) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, group_id) DO UPDATE SET units = excluded.units`,
		userID, groupID, units.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to write balance: %w", err)
	}
	return nil
}
