package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultConnectAttempts = 10
	initialConnectDelay    = 2 * time.Second
	maxConnectDelay        = 30 * time.Second
)

// ConnectRabbitMQ dials RabbitMQ, retrying with exponential backoff while
// the broker starts up. attempts <= 0 uses the default of 10.
func ConnectRabbitMQ(ctx context.Context, amqpURL string, attempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if attempts <= 0 {
		attempts = defaultConnectAttempts
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}

		delay := backoffDelay(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	delay := initialConnectDelay * time.Duration(1<<uint(attempt))
	if delay > maxConnectDelay || delay <= 0 {
		return maxConnectDelay
	}
	return delay
}
