package models

import "time"

// Log status values. A pending log awaits confirmation from a group
// co-member; rejection deletes the row rather than persisting a terminal
// status.
const (
	LogPending   = "pending"
	LogCompleted = "completed"
)

// Log is one completion attempt of a task. Once completed it is immutable:
// only the pending→completed transition touches Status and Timestamp, and no
// log is ever deleted by settlement.
type Log struct {
	// ID is the unique identifier for the log (UUID format).
	ID string

	// GroupID is the group the completion belongs to.
	GroupID string

	// UserID is the member claiming the completion.
	UserID int64

	// TaskID is the completed task.
	TaskID string

	// Status is LogPending or LogCompleted.
	Status string

	// Timestamp is the moment of creation or of confirmation, whichever
	// happened most recently; confirmation overwrites it.
	Timestamp time.Time
}
