package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

// RetryPendingBans re-invokes the user directory for queued ban executions
// that are due. Each failure reschedules the row with exponential backoff
// until attempts are exhausted, then dead-letters it; the decided ban is
// never silently dropped.
func (s *Service) RetryPendingBans(ctx context.Context, batchSize int) error {
	if s.banQueue == nil {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	now := s.nowFn()
	due, err := s.banQueue.ListDue(ctx, batchSize, now)
	if err != nil {
		return fmt.Errorf("list due ban executions: %w", err)
	}

	var firstErr error
	for _, execution := range due {
		if err := s.retryBanExecution(ctx, execution); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) retryBanExecution(ctx context.Context, execution ports.BanExecution) error {
	if err := s.directory.Ban(ctx, execution.UserID, execution.Reason); err != nil {
		s.metrics.RecordBanExecution("retry_failed")
		attempts := execution.Attempts + 1
		dead := attempts >= s.banMaxAttempts()
		nextAttemptAt := s.nowFn().Add(banBackoff(s.banRetryDelay(), attempts))

		logger := slog.Default()
		if dead {
			logger.ErrorContext(ctx, "ban execution dead-lettered",
				"service", serviceName,
				"module", "application",
				"layer", "application",
				"operation", "retry_ban_execution",
				"outcome", "failure",
				"user_id", execution.UserID,
				"execution_id", execution.ExecutionID,
				"attempts", attempts,
				"error", err,
			)
		} else {
			logger.WarnContext(ctx, "ban execution retry failed; rescheduled",
				"service", serviceName,
				"module", "application",
				"layer", "application",
				"operation", "retry_ban_execution",
				"outcome", "failure",
				"user_id", execution.UserID,
				"execution_id", execution.ExecutionID,
				"attempts", attempts,
				"next_attempt_at", nextAttemptAt,
				"error", err,
			)
		}
		if markErr := s.banQueue.MarkFailed(ctx, execution.ExecutionID, err.Error(), nextAttemptAt, dead, s.nowFn()); markErr != nil {
			return markErr
		}
		return err
	}

	s.metrics.RecordBanExecution("retry_succeeded")
	if err := s.banQueue.MarkSucceeded(ctx, execution.ExecutionID, s.nowFn()); err != nil {
		return err
	}
	s.enqueueUserBanned(ctx, execution.UserID, execution.Reason, execution.AuditEntryID)
	return nil
}

// banBackoff doubles the base delay per completed attempt, capped at an hour.
func banBackoff(base time.Duration, attempts int) time.Duration {
	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= time.Hour {
			return time.Hour
		}
	}
	return delay
}
