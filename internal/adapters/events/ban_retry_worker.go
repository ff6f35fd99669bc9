package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/application"
)

// BanRetryWorker drains the ban execution queue: directory bans that failed
// synchronously during evaluate are retried here with backoff until they
// succeed or exhaust their attempts. A decided ban is never dropped silently.
type BanRetryWorker struct {
	logger    *slog.Logger
	service   *application.Service
	interval  time.Duration
	batchSize int
}

func NewBanRetryWorker(
	logger *slog.Logger,
	service *application.Service,
	interval time.Duration,
	batchSize int,
) *BanRetryWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &BanRetryWorker{
		logger:    logger,
		service:   service,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (w *BanRetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.service.RetryPendingBans(ctx, w.batchSize); err != nil {
			w.logger.ErrorContext(ctx, "ban retry iteration failed",
				"module", "events.ban_retry_worker",
				"layer", "adapter",
				"operation", "retry_pending_bans",
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
