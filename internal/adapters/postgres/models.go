package postgres

import (
	"time"

	"github.com/google/uuid"
)

type auditEntryModel struct {
	EntryID    string    `gorm:"column:entry_id;type:uuid;primaryKey"`
	AuthorID   string    `gorm:"column:author_id"`
	Content    string    `gorm:"column:content"`
	SourceID   *string   `gorm:"column:source_id"`
	Kind       string    `gorm:"column:kind"`
	Allowed    bool      `gorm:"column:allowed"`
	Severity   string    `gorm:"column:severity"`
	Categories string    `gorm:"column:categories;type:jsonb"`
	Confidence float64   `gorm:"column:confidence"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (auditEntryModel) TableName() string { return "audit_entries" }

type userReportModel struct {
	ReportID       string    `gorm:"column:report_id;type:uuid;primaryKey"`
	ReporterID     string    `gorm:"column:reporter_id"`
	ReportedUserID string    `gorm:"column:reported_user_id"`
	Reason         string    `gorm:"column:reason"`
	SourceID       *string   `gorm:"column:source_id"`
	Kind           string    `gorm:"column:kind"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (userReportModel) TableName() string { return "user_reports" }

type banExecutionModel struct {
	ExecutionID   uuid.UUID `gorm:"column:execution_id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        string    `gorm:"column:user_id"`
	Reason        string    `gorm:"column:reason"`
	AuditEntryID  *string   `gorm:"column:audit_entry_id"`
	Status        string    `gorm:"column:status"`
	Attempts      int       `gorm:"column:attempts"`
	LastError     *string   `gorm:"column:last_error"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (banExecutionModel) TableName() string { return "ban_executions" }

type moderationOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (moderationOutboxModel) TableName() string { return "moderation_outbox" }

type moderationIdempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (moderationIdempotencyModel) TableName() string { return "moderation_idempotency" }
