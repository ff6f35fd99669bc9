package application

import (
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

type Config struct {
	ClassifierTimeout     time.Duration
	ReportReviewThreshold int
	IdempotencyTTL        time.Duration
	QueueDefaultLimit     int
	QueueMaxLimit         int
	BanRetryDelay         time.Duration
	BanMaxAttempts        int
	RecentFlagWindow      time.Duration
}

// Actor is the authenticated caller as established by transport middleware.
type Actor struct {
	UserID         string
	Role           string
	IdempotencyKey string
}

type RequestContext struct {
	SourceID string `json:"source_id"`
	Kind     string `json:"kind"`
}

type EvaluateRequest struct {
	Content  string         `json:"content"`
	AuthorID string         `json:"author_id"`
	Context  RequestContext `json:"context"`
}

type EvaluateResponse struct {
	Verdict domain.Verdict           `json:"verdict"`
	Action  domain.EnforcementAction `json:"action"`
}

type ReportRequest struct {
	ReportedUserID string         `json:"reported_user_id"`
	Reason         string         `json:"reason"`
	Context        RequestContext `json:"context"`
}

type ReportResponse struct {
	ReportID    string `json:"report_id"`
	ReportCount int    `json:"report_count"`
	Flagged     bool   `json:"flagged"`
}

// ModerationSummary is the internal projection served to sibling services
// over gRPC. RecentFlags counts disallowed entries inside the configured
// window; the other counts are lifetime totals.
type ModerationSummary struct {
	UserID         string `json:"user_id"`
	Score          int    `json:"score"`
	Level          string `json:"level"`
	ViolationCount int    `json:"violation_count"`
	ReportCount    int    `json:"report_count"`
	RecentFlags    int    `json:"recent_flags"`
}
