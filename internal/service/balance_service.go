package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ykarpov/chorebank/internal/models"
	"github.com/ykarpov/chorebank/internal/storage"
)

// BalanceService exposes member balances and live transfers between them.
type BalanceService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewBalanceService creates a balance service.
func NewBalanceService(store storage.Store, logger *slog.Logger) *BalanceService {
	return &BalanceService{store: store, logger: logger}
}

// Balance returns the caller's balance in their group. A pair with no row
// yet reads as zero.
func (s *BalanceService) Balance(ctx context.Context, userID int64) (*models.Balance, error) {
	_, group, err := memberOf(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.store.GetBalance(ctx, userID, group.ID)
}

// Transfer moves units from the caller to another member of the same group.
// The whole read-check-write runs in one store transaction, so a concurrent
// settlement cannot produce a lost update.
func (s *BalanceService) Transfer(ctx context.Context, fromUserID, toUserID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrBadAmount
	}

	_, group, err := memberOf(ctx, s.store, fromUserID)
	if err != nil {
		return err
	}
	recipient, err := s.store.GetUser(ctx, toUserID)
	if err != nil || recipient.GroupID != group.ID {
		return ErrNotMember
	}

	if err := s.store.TransferUnits(ctx, group.ID, fromUserID, toUserID, amount); err != nil {
		return err
	}

	s.logger.Info("units transferred",
		"group_id", group.ID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
		"amount", amount.String(),
	)
	return nil
}
