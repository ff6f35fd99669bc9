package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// AuditStore persists the immutable evaluation trail and answers the count
// queries reputation is derived from. Append-only by contract: entries are
// never updated or deleted by this service.
type AuditStore interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	CountViolations(ctx context.Context, userID string) (int, error)
	CountViolationsSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountReports(ctx context.Context, userID string) (int, error)
	ListDisallowed(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// ReportStore persists user-filed reports. Counting goes through AuditStore
// so reputation has a single counting surface.
type ReportStore interface {
	FileReport(ctx context.Context, report domain.UserReport) error
}

// BanExecution is one pending or settled directory-ban attempt. Rows are
// enqueued when the synchronous ban call fails and drained by the retry
// worker with backoff.
type BanExecution struct {
	ExecutionID   uuid.UUID
	UserID        string
	Reason        string
	AuditEntryID  string
	Attempts      int
	LastError     *string
	NextAttemptAt time.Time
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BanExecutionRepository owns the ban retry queue.
type BanExecutionRepository interface {
	Enqueue(ctx context.Context, userID, reason, auditEntryID string, nextAttemptAt time.Time) error
	ListDue(ctx context.Context, limit int, now time.Time) ([]BanExecution, error)
	MarkSucceeded(ctx context.Context, executionID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, executionID uuid.UUID, errMsg string, nextAttemptAt time.Time, dead bool, at time.Time) error
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	FirstSeenAt    time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for domain events.
// This explicit contract enables transactional outbox patterns without leaking DB details.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}

// IdempotencyRecord tracks a previously accepted mutating request.
// Storing response metadata lets handlers return stable replay responses.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IdempotencyRepository enforces idempotent mutation semantics.
type IdempotencyRepository interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}
