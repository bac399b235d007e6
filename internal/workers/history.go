// Package workers holds the queue consumers run by cmd/worker.
package workers

import (
	"context"
	"fmt"

	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/queue"
	"go.uber.org/zap"
)

// HistoryRecorder stores task change events consumed from the queue
type HistoryRecorder struct {
	repo    database.HistoryRepositoryInterface
	requeue queue.Publisher
	logger  *zap.Logger
}

// NewHistoryRecorder creates a new history recorder. Failed jobs are
// published again through requeue with their retry count raised; a nil
// requeue dead-letters them at the first failure.
func NewHistoryRecorder(repo database.HistoryRepositoryInterface, requeue queue.Publisher, logger *zap.Logger) *HistoryRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryRecorder{repo: repo, requeue: requeue, logger: logger}
}

// ProcessJob records the job and acknowledges the message
func (h *HistoryRecorder) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		if err := msg.Nack(false); err != nil {
			h.logger.Warn("failed_to_nack_empty_message", zap.Error(err))
		}
		return fmt.Errorf("message has no job")
	}
	if !job.Known() {
		if err := msg.Nack(false); err != nil {
			h.logger.Warn("failed_to_nack_unknown_job", zap.Error(err))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	entry := &database.HistoryEntry{
		ID:            job.ID,
		TaskID:        job.TaskID,
		CollectionUID: job.CollectionUID,
		Event:         string(job.Type),
		OccurredAt:    job.CreatedAt,
		Payload:       job.Metadata,
	}
	if err := h.repo.Record(ctx, entry); err != nil {
		return h.handleJobError(ctx, msg, job, err)
	}

	if err := msg.Ack(); err != nil {
		h.logger.Warn("failed_to_ack_job",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}
	h.logger.Debug("task_history_recorded",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("task_id", job.TaskID.String()),
	)
	return nil
}

// handleJobError republishes the job with one more retry counted. A broker
// redelivery would carry the original body and never run out of retries.
func (h *HistoryRecorder) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if h.requeue != nil && job.CanRetry() {
		retry := *job
		retry.IncrementRetry()
		pubErr := h.requeue.Enqueue(ctx, &retry)
		if pubErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				h.logger.Warn("failed_to_ack_retried_job", zap.Error(ackErr))
			}
			h.logger.Warn("task_history_record_failed_retrying",
				zap.String("job_id", job.ID.String()),
				zap.Int("attempt", retry.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Error(err),
			)
			return fmt.Errorf("job failed (will retry): %w", err)
		}
		h.logger.Warn("failed_to_republish_job", zap.Error(pubErr))
		if nackErr := msg.Nack(true); nackErr != nil {
			h.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("job failed (requeued): %w", err)
	}

	h.logger.Error("task_history_record_failed",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		h.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
