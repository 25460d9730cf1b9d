// Package tokens stores short-lived, single-use confirmation codes for
// destructive operations (leaving a group, deactivating every task).
//
// Codes are keyed by user ID and scoped to a purpose. Re-issuing a code for
// the same (user, purpose) overwrites the previous one; redeeming consumes
// it. Codes expire on their own after the configured TTL.
package tokens

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Purposes scope a code to the operation it confirms.
const (
	PurposeLeaveGroup = "leave_group"
	PurposeKillTasks  = "kill_tasks"
)

// Store is the confirmation-code boundary. Implementations: in-memory
// (single process) and Redis.
type Store interface {
	// Issue stores a code for (userID, purpose), replacing any previous one.
	Issue(ctx context.Context, userID int64, purpose, code string) error

	// Redeem consumes the stored code if it matches. It returns true only
	// when a live code existed and matched; a wrong guess leaves the stored
	// code in place.
	Redeem(ctx context.Context, userID int64, purpose, code string) (bool, error)
}

// NewCode generates a four-digit confirmation code.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}

func key(userID int64, purpose string) string {
	return fmt.Sprintf("confirm:%s:%d", purpose, userID)
}
