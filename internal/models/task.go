package models

import (
	"time"

	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/google/uuid"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskStatusNeedsAction TaskStatus = "NEEDS-ACTION"
	TaskStatusInProcess   TaskStatus = "IN-PROCESS"
	TaskStatusCompleted   TaskStatus = "COMPLETED"
	TaskStatusCancelled   TaskStatus = "CANCELLED"
)

// TaskStatuses lists every status in display order
var TaskStatuses = []TaskStatus{
	TaskStatusNeedsAction,
	TaskStatusInProcess,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusNeedsAction, TaskStatusInProcess, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// Finished reports whether the status closes the task
func (s TaskStatus) Finished() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusCancelled:
		return true
	case TaskStatusNeedsAction, TaskStatusInProcess:
		return false
	default:
		return false
	}
}

// TaskPriority uses the iCalendar PRIORITY scale: 0 undefined, 1 highest, 9 lowest
type TaskPriority int

const (
	TaskPriorityUndefined TaskPriority = 0
	TaskPriorityHigh      TaskPriority = 1
	TaskPriorityMedium    TaskPriority = 5
	TaskPriorityLow       TaskPriority = 9
)

// Valid reports whether p is one of the four editor priorities
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityUndefined, TaskPriorityHigh, TaskPriorityMedium, TaskPriorityLow:
		return true
	default:
		return false
	}
}

// Bucket maps any PRIORITY value 0-9 onto the four editor priorities
func (p TaskPriority) Bucket() TaskPriority {
	switch {
	case p <= 0 || p > 9:
		return TaskPriorityUndefined
	case p <= 4:
		return TaskPriorityHigh
	case p == 5:
		return TaskPriorityMedium
	default:
		return TaskPriorityLow
	}
}

func (p TaskPriority) String() string {
	switch p.Bucket() {
	case TaskPriorityHigh:
		return "high"
	case TaskPriorityMedium:
		return "medium"
	case TaskPriorityLow:
		return "low"
	default:
		return "none"
	}
}

// Task is a persisted task. Values are never mutated once committed; an
// edit produces a new Task and the prior value is kept as the change's original.
type Task struct {
	ID            uuid.UUID        `json:"id"`
	CollectionUID string           `json:"collection_uid"`
	Title         string           `json:"title"`
	Status        TaskStatus       `json:"status"`
	Priority      TaskPriority     `json:"priority"`
	Start         temporal.Value   `json:"start"`
	Due           temporal.Value   `json:"due"`
	Completed     temporal.Value   `json:"completed"`
	Timezone      string           `json:"timezone,omitempty"`
	Recurrence    *recurrence.Rule `json:"rrule,omitempty"`
	Location      string           `json:"location"`
	Description   string           `json:"description"`
	Tags          []string         `json:"tags"`
	LastModified  time.Time        `json:"last_modified"`
}

// IsRecurring reports whether the task carries a recurrence rule
func (t *Task) IsRecurring() bool {
	return t != nil && t.Recurrence != nil
}

// Clone returns a deep copy of t
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	if t.Recurrence != nil {
		rule := t.Recurrence.Clone()
		out.Recurrence = &rule
	}
	out.Tags = append([]string(nil), t.Tags...)
	return &out
}

// Occurrence returns the task's start/due pair
func (t *Task) Occurrence() recurrence.Occurrence {
	return recurrence.Occurrence{Start: t.Start, Due: t.Due}
}

// Change is one record of a change set. Original is nil for a new task.
type Change struct {
	New      *Task `json:"new"`
	Original *Task `json:"original,omitempty"`
}

// IsCreate reports whether the change introduces a new task
func (c Change) IsCreate() bool {
	return c.Original == nil
}
