package domain

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Entity types carried by command and event messages.
const (
	EntityTask  = "task"
	EntityLabel = "label"
)

// TaskID identifies a task aggregate.
type TaskID string

// NewTaskID returns a random task identifier.
func NewTaskID() TaskID { return TaskID(uuid.NewString()) }

// TaskStatus is the lifecycle state of a task. The zero value means the task
// has not been created yet.
type TaskStatus string

const (
	TaskStatusUndefined TaskStatus = ""
	TaskStatusDraft     TaskStatus = "DRAFT"
	TaskStatusFinalized TaskStatus = "FINALIZED"
	TaskStatusCompleted TaskStatus = "COMPLETED"
	TaskStatusDeleted   TaskStatus = "DELETED"
)

// TaskPriority orders tasks in the list views.
type TaskPriority string

const (
	PriorityUndefined TaskPriority = "UNDEFINED"
	PriorityLow       TaskPriority = "LOW"
	PriorityNormal    TaskPriority = "NORMAL"
	PriorityHigh      TaskPriority = "HIGH"
)

// Valid reports whether p is a priority a task may be set to.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// DueDate is an optional task deadline. The zero value means no due date.
//
// Values are normalized to UTC without a monotonic reading so that two due
// dates for the same instant compare equal with ==.
type DueDate struct {
	at time.Time
}

// DueOn returns the due date for t. A zero t yields no due date.
func DueOn(t time.Time) DueDate {
	if t.IsZero() {
		return DueDate{}
	}
	return DueDate{at: t.UTC().Round(0)}
}

// IsSet reports whether a deadline is present.
func (d DueDate) IsSet() bool { return !d.at.IsZero() }

// Time returns the deadline, or the zero time when none is set.
func (d DueDate) Time() time.Time { return d.at }

func (d DueDate) String() string {
	if !d.IsSet() {
		return "none"
	}
	return d.at.Format(time.RFC3339Nano)
}

func (d DueDate) MarshalJSON() ([]byte, error) {
	if !d.IsSet() {
		return []byte("null"), nil
	}
	return sonic.Marshal(d.at.Format(time.RFC3339Nano))
}

func (d *DueDate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = DueDate{}
		return nil
	}
	var raw string
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*d = DueDate{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return err
	}
	*d = DueOn(t)
	return nil
}

// TaskDetails is the part of a task shown in list views.
type TaskDetails struct {
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	DueDate     DueDate      `json:"dueDate"`
}
