package queue

import (
	"context"

	"github.com/benvon/pimtask/internal/editor"
	"github.com/benvon/pimtask/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublishingStore wraps a store and publishes a job for every change that
// was persisted. Publishing failures are logged; the persist result stands.
type PublishingStore struct {
	next   editor.Store
	queue  Publisher
	logger *zap.Logger
}

// NewPublishingStore decorates next. A nil queue disables publishing.
func NewPublishingStore(next editor.Store, queue Publisher, logger *zap.Logger) *PublishingStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishingStore{next: next, queue: queue, logger: logger}
}

// Persist stores changes through the wrapped store, then publishes. A
// create without an ID is a cascaded occurrence; the store assigns its ID.
func (p *PublishingStore) Persist(ctx context.Context, changes []models.Change, collectionUID string) error {
	types := make([]JobType, len(changes))
	for i, change := range changes {
		types[i] = JobTypeTaskSaved
		if change.IsCreate() && change.New != nil && change.New.ID == uuid.Nil {
			types[i] = JobTypeOccurrenceCreated
		}
	}

	if err := p.next.Persist(ctx, changes, collectionUID); err != nil {
		return err
	}

	for i, change := range changes {
		if change.New == nil {
			continue
		}
		job := NewJob(types[i], change.New.ID, collectionUID)
		job.Metadata["status"] = string(change.New.Status)
		job.Metadata["created"] = change.IsCreate()
		if change.New.IsRecurring() {
			job.Metadata["rrule"] = change.New.Recurrence.String()
		}
		p.publish(ctx, job)
	}
	return nil
}

// Delete removes task through the wrapped store, then publishes
func (p *PublishingStore) Delete(ctx context.Context, task *models.Task, collectionUID string) error {
	if err := p.next.Delete(ctx, task, collectionUID); err != nil {
		return err
	}
	p.publish(ctx, NewJob(JobTypeTaskDeleted, task.ID, collectionUID))
	return nil
}

func (p *PublishingStore) publish(ctx context.Context, job *Job) {
	if p.queue == nil {
		return
	}
	if err := p.queue.Enqueue(ctx, job); err != nil {
		p.logger.Error("failed_to_enqueue_task_event",
			zap.String("job_type", string(job.Type)),
			zap.String("task_id", job.TaskID.String()),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("enqueued_task_event",
		zap.String("job_type", string(job.Type)),
		zap.String("task_id", job.TaskID.String()),
	)
}

var _ editor.Store = (*PublishingStore)(nil)
