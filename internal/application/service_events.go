package application

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

const (
	// eventTypeUserFlagged is emitted when a user crosses into suspicious or
	// banned reputation, or their report count crosses the review threshold.
	eventTypeUserFlagged = "moderation.user.flagged"
	// eventTypeUserBanned is emitted when a directory ban is executed.
	eventTypeUserBanned = "moderation.user.banned"
	// eventTypeContentRejected is emitted for every disallowed verdict.
	eventTypeContentRejected = "moderation.content.rejected"
)

// enqueueEvent stores one event in the transactional outbox. Event delivery
// is fire-and-forget relative to the caller: enqueue failures are logged,
// never propagated.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	raw, _ := json.Marshal(payload)
	event := ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   s.nowFn(),
	}
	if err := s.outbox.Enqueue(ctx, event); err != nil {
		slog.Default().WarnContext(ctx, "event enqueue failed",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "enqueue_event",
			"outcome", "failure",
			"event_type", eventType,
			"error", err,
		)
	}
}

func (s *Service) enqueueUserFlagged(ctx context.Context, reputation domain.ReputationScore, trigger string) {
	s.enqueueEvent(ctx, eventTypeUserFlagged, reputation.UserID, map[string]any{
		"user_id":         reputation.UserID,
		"trigger":         trigger,
		"score":           reputation.Score,
		"level":           reputation.Level,
		"violation_count": reputation.ViolationCount,
		"report_count":    reputation.ReportCount,
		"flagged_at":      s.nowFn(),
	})
}

func (s *Service) enqueueUserBanned(ctx context.Context, userID, reason, auditEntryID string) {
	s.enqueueEvent(ctx, eventTypeUserBanned, userID, map[string]any{
		"user_id":        userID,
		"reason":         reason,
		"audit_entry_id": auditEntryID,
		"banned_at":      s.nowFn(),
	})
}

func (s *Service) enqueueContentRejected(ctx context.Context, entry domain.AuditEntry, action domain.EnforcementAction) {
	s.enqueueEvent(ctx, eventTypeContentRejected, entry.AuthorID, map[string]any{
		"entry_id":                entry.EntryID,
		"author_id":               entry.AuthorID,
		"source_id":               entry.SourceID,
		"kind":                    entry.Kind,
		"severity":                entry.Severity,
		"categories":              entry.Categories,
		"confidence":              entry.Confidence,
		"reason":                  entry.Reason,
		"action_kind":             action.Kind,
		"action_duration_seconds": action.DurationSeconds,
		"rejected_at":             entry.CreatedAt,
	})
}
