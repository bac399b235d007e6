package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/recurrence"
	"github.com/google/uuid"
)

// mockJobQueue records enqueued jobs
type mockJobQueue struct {
	jobs       []*Job
	enqueueErr error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

// Ensure mock implements interface
var _ JobQueue = (*mockJobQueue)(nil)

// mockStore assigns IDs to creates the way the database does
type mockStore struct {
	persistErr error
	deleteErr  error
}

func (m *mockStore) Persist(ctx context.Context, changes []models.Change, collectionUID string) error {
	if m.persistErr != nil {
		return m.persistErr
	}
	for _, c := range changes {
		if c.New.ID == uuid.Nil {
			c.New.ID = uuid.New()
		}
	}
	return nil
}

func (m *mockStore) Delete(ctx context.Context, task *models.Task, collectionUID string) error {
	return m.deleteErr
}

func TestPublishingStore_Persist(t *testing.T) {
	t.Parallel()

	rule := recurrence.Default()
	existing := &models.Task{ID: uuid.New(), Status: models.TaskStatusNeedsAction}
	edited := &models.Task{ID: existing.ID, Status: models.TaskStatusCompleted, Recurrence: &rule}
	successor := &models.Task{Status: models.TaskStatusNeedsAction, Recurrence: &rule}
	fresh := &models.Task{ID: uuid.New(), Status: models.TaskStatusNeedsAction}

	tests := []struct {
		name     string
		changes  []models.Change
		wantType JobType
		wantRule bool
	}{
		{
			name:     "edit of existing task",
			changes:  []models.Change{{New: edited, Original: existing}},
			wantType: JobTypeTaskSaved,
			wantRule: true,
		},
		{
			name:     "new task",
			changes:  []models.Change{{New: fresh}},
			wantType: JobTypeTaskSaved,
		},
		{
			name:     "cascaded occurrence",
			changes:  []models.Change{{New: successor.Clone()}},
			wantType: JobTypeOccurrenceCreated,
			wantRule: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := &mockJobQueue{}
			store := NewPublishingStore(&mockStore{}, q, nil)

			if err := store.Persist(context.Background(), tt.changes, "chores"); err != nil {
				t.Fatalf("Persist failed: %v", err)
			}
			if len(q.jobs) != 1 {
				t.Fatalf("Expected 1 job, got %d", len(q.jobs))
			}
			job := q.jobs[0]
			if job.Type != tt.wantType {
				t.Errorf("Expected job type %s, got %s", tt.wantType, job.Type)
			}
			if job.TaskID == uuid.Nil || job.TaskID != tt.changes[0].New.ID {
				t.Errorf("Expected job for persisted ID %s, got %s", tt.changes[0].New.ID, job.TaskID)
			}
			if job.CollectionUID != "chores" {
				t.Errorf("Expected collection chores, got %s", job.CollectionUID)
			}
			if _, ok := job.Metadata["rrule"]; ok != tt.wantRule {
				t.Errorf("Expected rrule metadata present=%v, got %v", tt.wantRule, job.Metadata)
			}
		})
	}
}

func TestPublishingStore_PersistFailureNotPublished(t *testing.T) {
	t.Parallel()

	q := &mockJobQueue{}
	storeErr := errors.New("db down")
	store := NewPublishingStore(&mockStore{persistErr: storeErr}, q, nil)

	err := store.Persist(context.Background(), []models.Change{{New: &models.Task{ID: uuid.New()}}}, "inbox")
	if !errors.Is(err, storeErr) {
		t.Errorf("Expected store error, got %v", err)
	}
	if len(q.jobs) != 0 {
		t.Errorf("Expected no jobs, got %d", len(q.jobs))
	}
}

func TestPublishingStore_EnqueueFailureIgnored(t *testing.T) {
	t.Parallel()

	q := &mockJobQueue{enqueueErr: errors.New("broker gone")}
	store := NewPublishingStore(&mockStore{}, q, nil)

	if err := store.Persist(context.Background(), []models.Change{{New: &models.Task{ID: uuid.New()}}}, "inbox"); err != nil {
		t.Errorf("Expected persist to succeed despite enqueue failure, got %v", err)
	}
}

func TestPublishingStore_Delete(t *testing.T) {
	t.Parallel()

	q := &mockJobQueue{}
	task := &models.Task{ID: uuid.New()}

	if err := NewPublishingStore(&mockStore{}, q, nil).Delete(context.Background(), task, "inbox"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(q.jobs) != 1 || q.jobs[0].Type != JobTypeTaskDeleted || q.jobs[0].TaskID != task.ID {
		t.Errorf("Expected one task_deleted job, got %+v", q.jobs)
	}

	q = &mockJobQueue{}
	if err := NewPublishingStore(&mockStore{deleteErr: errors.New("nope")}, q, nil).Delete(context.Background(), task, "inbox"); err == nil {
		t.Error("Expected delete error")
	}
	if len(q.jobs) != 0 {
		t.Errorf("Expected no jobs after failed delete, got %d", len(q.jobs))
	}
}

func TestPublishingStore_NilQueue(t *testing.T) {
	t.Parallel()

	store := NewPublishingStore(&mockStore{}, nil, nil)
	if err := store.Persist(context.Background(), []models.Change{{New: &models.Task{ID: uuid.New()}}}, "inbox"); err != nil {
		t.Errorf("Expected persist without queue to succeed, got %v", err)
	}
}
