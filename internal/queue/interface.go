package queue

import (
	"context"
	"time"
)

// MessageInterface is a delivered job awaiting acknowledgement
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// Publisher sends jobs to the queue
type Publisher interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobQueue is the task event queue as seen by producers and consumers
type JobQueue interface {
	Publisher

	// Consume delivers jobs until ctx is cancelled. Each message must be
	// acknowledged; prefetchCount bounds the unacknowledged ones.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered messages older than a retention period
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
