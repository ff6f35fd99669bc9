package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/observability"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

// Delivery results recorded per outbox row, in both logs and metrics.
const (
	outboxPublished    = "published"
	outboxRetried      = "retried"
	outboxDeadLettered = "dead_lettered"
)

// OutboxWorker drains the transactional outbox. Service methods only ever
// append rows; this loop claims a batch under a token with a TTL (a crashed
// worker's claim simply lapses), pushes each row through the publisher and
// settles it as published, retried or dead-lettered.
type OutboxWorker struct {
	logger     *slog.Logger
	outbox     ports.OutboxRepository
	publisher  ports.EventPublisher
	metrics    *observability.Metrics
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
}

func NewOutboxWorker(
	logger *slog.Logger,
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
	maxRetries int,
) *OutboxWorker {
	w := &OutboxWorker{
		logger:     logger,
		outbox:     outbox,
		publisher:  publisher,
		metrics:    metrics,
		interval:   interval,
		batchSize:  batchSize,
		claimTTL:   claimTTL,
		maxRetries: maxRetries,
	}
	if w.interval <= 0 {
		w.interval = 2 * time.Second
	}
	if w.batchSize <= 0 {
		w.batchSize = 100
	}
	if w.claimTTL <= 0 {
		w.claimTTL = 30 * time.Second
	}
	if w.maxRetries <= 0 {
		w.maxRetries = 5
	}
	return w
}

// Run drains the outbox on every tick until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.drain(ctx); err != nil {
			w.logger.ErrorContext(ctx, "outbox drain failed",
				"module", "events.outbox_worker",
				"layer", "adapter",
				"operation", "outbox_drain",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *OutboxWorker) drain(ctx context.Context) error {
	claimToken := uuid.NewString()
	batch, err := w.outbox.ClaimUnpublished(ctx, w.batchSize, claimToken, time.Now().UTC().Add(w.claimTTL))
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	tally := map[string]int{}
	for _, rec := range batch {
		result := w.deliver(ctx, claimToken, rec)
		tally[result]++
		w.metrics.RecordOutboxPublish(rec.EventType, result)
	}

	w.logger.InfoContext(ctx, "outbox batch settled",
		"module", "events.outbox_worker",
		"layer", "adapter",
		"operation", "outbox_drain",
		"outcome", "success",
		"batch_size", len(batch),
		"published_count", tally[outboxPublished],
		"retried_count", tally[outboxRetried],
		"dead_lettered_count", tally[outboxDeadLettered],
	)
	return nil
}

// deliver publishes one claimed row and settles its outbox state.
func (w *OutboxWorker) deliver(ctx context.Context, claimToken string, rec ports.OutboxRecord) string {
	now := time.Now().UTC()

	// Rows can sit past the threshold when maxRetries is lowered between runs.
	if rec.RetryCount >= w.maxRetries {
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, "retry threshold reached before publish", now)
		return outboxDeadLettered
	}

	err := w.publisher.Publish(ctx, rec.EventType, rec.Payload, rec.PartitionKey)
	if err == nil {
		_ = w.outbox.MarkPublished(ctx, rec.OutboxID, claimToken, now)
		return outboxPublished
	}

	fields := []any{
		"module", "events.outbox_worker",
		"layer", "adapter",
		"operation", "publish_event",
		"outcome", "failure",
		"outbox_id", rec.OutboxID,
		"event_type", rec.EventType,
		"payload_bytes", len(rec.Payload),
		"retry_count", rec.RetryCount + 1,
		"error", err,
	}
	if rec.RetryCount+1 >= w.maxRetries {
		w.logger.ErrorContext(ctx, "outbox row moved to dlq", fields...)
		_ = w.outbox.MarkDeadLettered(ctx, rec.OutboxID, claimToken, err.Error(), now)
		return outboxDeadLettered
	}

	w.logger.WarnContext(ctx, "outbox publish failed; retry scheduled", fields...)
	_ = w.outbox.MarkFailed(ctx, rec.OutboxID, claimToken, err.Error(), now)
	return outboxRetried
}
