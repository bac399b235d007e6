package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType names a task event
type JobType string

const (
	// JobTypeTaskSaved is published after an edited or new task was persisted
	JobTypeTaskSaved JobType = "task_saved"
	// JobTypeOccurrenceCreated is published after the next occurrence of a recurring task was persisted
	JobTypeOccurrenceCreated JobType = "occurrence_created"
	// JobTypeTaskDeleted is published after a task was deleted
	JobTypeTaskDeleted JobType = "task_deleted"
)

// DefaultMaxRetries is how often a consumer may hand a job back before it is dead-lettered
const DefaultMaxRetries = 3

// Job is one task event on the queue. The ID doubles as the idempotency
// key of the history entry it produces.
type Job struct {
	ID            uuid.UUID      `json:"id"`
	Type          JobType        `json:"type"`
	TaskID        uuid.UUID      `json:"task_id"`
	CollectionUID string         `json:"collection_uid"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	RetryCount    int            `json:"retry_count"`
	MaxRetries    int            `json:"max_retries"`
}

// NewJob creates a job for an event on taskID
func NewJob(jobType JobType, taskID uuid.UUID, collectionUID string) *Job {
	return &Job{
		ID:            uuid.New(),
		Type:          jobType,
		TaskID:        taskID,
		CollectionUID: collectionUID,
		Metadata:      make(map[string]any),
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    DefaultMaxRetries,
	}
}

// Known reports whether the job type is one the history consumer understands
func (j *Job) Known() bool {
	switch j.Type {
	case JobTypeTaskSaved, JobTypeOccurrenceCreated, JobTypeTaskDeleted:
		return true
	default:
		return false
	}
}

// CanRetry reports whether another attempt is allowed
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry records a failed attempt
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
