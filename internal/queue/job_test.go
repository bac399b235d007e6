package queue

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewJob(t *testing.T) {
	t.Parallel()

	taskID := uuid.New()

	job := NewJob(JobTypeTaskSaved, taskID, "inbox")

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeTaskSaved {
		t.Errorf("Expected job type to be %s, got %s", JobTypeTaskSaved, job.Type)
	}
	if job.TaskID != taskID {
		t.Errorf("Expected task ID to be %s, got %s", taskID, job.TaskID)
	}
	if job.CollectionUID != "inbox" {
		t.Errorf("Expected collection inbox, got %s", job.CollectionUID)
	}
	if job.Metadata == nil {
		t.Error("Expected metadata to be initialized")
	}
	if job.RetryCount != 0 {
		t.Errorf("Expected retry count to be 0, got %d", job.RetryCount)
	}
	if job.MaxRetries != 3 {
		t.Errorf("Expected max retries to be 3, got %d", job.MaxRetries)
	}
}

func TestJob_Known(t *testing.T) {
	t.Parallel()

	for _, jobType := range []JobType{JobTypeTaskSaved, JobTypeOccurrenceCreated, JobTypeTaskDeleted} {
		if !NewJob(jobType, uuid.New(), "inbox").Known() {
			t.Errorf("Expected %s to be known", jobType)
		}
	}
	if NewJob("task_analysis", uuid.New(), "inbox").Known() {
		t.Error("Expected unrelated job type to be unknown")
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := NewJob(JobTypeTaskSaved, uuid.New(), "inbox")
	for i := 0; i < job.MaxRetries; i++ {
		if !job.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		job.IncrementRetry()
	}
	if job.CanRetry() {
		t.Errorf("Expected no retry after %d attempts", job.RetryCount)
	}
	if job.RetryCount != 3 {
		t.Errorf("Expected retry count 3, got %d", job.RetryCount)
	}
}
