// Package notify defines the chat-delivery boundary.
package notify

import (
	"context"
	"errors"
)

// ErrDelivery wraps any per-recipient delivery failure. Delivery is
// best-effort throughout: callers log and move on.
var ErrDelivery = errors.New("delivery failed")

// Notifier sends a direct message to a chat account.
type Notifier interface {
	SendDirect(ctx context.Context, userID int64, text string) error
}

// Discard is a Notifier that drops every message. Used in tests and when no
// bot token is configured.
type Discard struct{}

func (Discard) SendDirect(context.Context, int64, string) error { return nil }
