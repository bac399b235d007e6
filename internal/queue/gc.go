package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// purgeTimeout bounds a single dead-letter purge
const purgeTimeout = 2 * time.Minute

// GarbageCollector drops dead-lettered task events once they are older than
// the retention window. Purges run on a cron schedule.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector creates a collector that purges every interval
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Start schedules purges and blocks until ctx is done. A purge in flight
// finishes before Start returns.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.interval <= 0 {
		return errors.New("dead-letter purge interval must be positive")
	}

	scheduler := cron.New()
	spec := "@every " + gc.interval.String()
	if _, err := scheduler.AddFunc(spec, func() { gc.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule dead-letter purge: %w", err)
	}
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return ctx.Err()
}

func (gc *GarbageCollector) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := gc.collect(ctx); err != nil {
		gc.logger.Warn("dlq_gc_failed", zap.Error(err))
	}
}

func (gc *GarbageCollector) collect(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	purged, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("failed to purge dead-letter queue: %w", err)
	}
	if purged > 0 {
		gc.logger.Info("dlq_gc_purged",
			zap.Int("count", purged),
			zap.Duration("retention", gc.retention),
		)
	}
	return nil
}
