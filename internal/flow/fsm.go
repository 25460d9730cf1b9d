// Package flow tracks multi-step conversational state per user.
//
// Each dialog (create group, edit weights, confirm exit, ...) declares its
// states and legal transitions up front. The tracker keys state by (user,
// conversation) and guarantees a Cancel transition back to idle from every
// state, so no user can get stuck mid-dialog.
package flow

import (
	"errors"
	"fmt"
	"sync"
)

// State names a step inside a conversation. Idle is the implicit resting
// state of every conversation.
type State string

const Idle State = ""

var ErrBadTransition = errors.New("transition not allowed")

// Conversation declares a dialog's legal transitions.
type Conversation struct {
	Name        string
	Transitions map[State][]State
}

// allowed reports whether from→to is declared. Cancelling to Idle is always
// allowed.
func (c *Conversation) allowed(from, to State) bool {
	if to == Idle {
		return true
	}
	for _, next := range c.Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type flowKey struct {
	userID       int64
	conversation string
}

// Tracker holds every user's current dialog state in memory. A user runs at
// most one step of one conversation at a time per key, so two users never
// share state; two dialogs of the same user are isolated by conversation
// name.
type Tracker struct {
	mu     sync.Mutex
	states map[flowKey]State
}

// NewTracker creates an empty dialog tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[flowKey]State)}
}

// Current returns the user's state in the conversation, Idle when none.
func (t *Tracker) Current(userID int64, conv *Conversation) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[flowKey{userID, conv.Name}]
}

// Advance moves the user to the next state if the conversation declares the
// transition.
func (t *Tracker) Advance(userID int64, conv *Conversation, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := flowKey{userID, conv.Name}
	from := t.states[k]
	if !conv.allowed(from, to) {
		return fmt.Errorf("%w: %s: %q -> %q", ErrBadTransition, conv.Name, from, to)
	}
	if to == Idle {
		delete(t.states, k)
		return nil
	}
	t.states[k] = to
	return nil
}

// Cancel returns the user to Idle regardless of current state.
func (t *Tracker) Cancel(userID int64, conv *Conversation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, flowKey{userID, conv.Name})
}
