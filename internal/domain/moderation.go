package domain

import (
	"strings"
	"time"
)

// Severity is the ordinal classification of how serious a violation is.
// It drives escalation, so the set is closed and validated at boundaries.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity validates a raw severity value from an external payload.
func ParseSeverity(raw string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityLow:
		return SeverityLow, true
	case SeverityMedium:
		return SeverityMedium, true
	case SeverityHigh:
		return SeverityHigh, true
	case SeverityCritical:
		return SeverityCritical, true
	default:
		return "", false
	}
}

// ActionKind is the terminal enforcement outcome for one evaluation.
type ActionKind string

const (
	ActionAllow   ActionKind = "allow"
	ActionWarn    ActionKind = "warn"
	ActionMute    ActionKind = "mute"
	ActionTimeout ActionKind = "timeout"
	ActionBan     ActionKind = "ban"
)

// ContentKind identifies the surface that submitted the content.
type ContentKind string

const (
	KindChat    ContentKind = "chat"
	KindComment ContentKind = "comment"
	KindReview  ContentKind = "review"
)

// NormalizeContentKind maps raw input to a known kind, defaulting to chat.
func NormalizeContentKind(raw string) ContentKind {
	switch ContentKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindComment:
		return KindComment
	case KindReview:
		return KindReview
	default:
		return KindChat
	}
}

// Verdict is the outcome of one moderation check. Verdicts are value
// objects: later pipeline stages build enriched copies, never mutate.
type Verdict struct {
	Allowed    bool     `json:"allowed"`
	Reason     string   `json:"reason,omitempty"`
	Severity   Severity `json:"severity"`
	Categories []string `json:"categories"`
	Confidence float64  `json:"confidence"`
}

// SpamSignal is the pattern detector output, scoped to a single request.
type SpamSignal struct {
	IsSpam  bool     `json:"is_spam"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// EnforcementAction is what the caller must apply for one request.
// DurationSeconds is zero for allow, warn, and ban.
type EnforcementAction struct {
	Kind            ActionKind `json:"kind"`
	DurationSeconds int        `json:"duration_seconds,omitempty"`
	Reason          string     `json:"reason"`
}

// AuditEntry is the immutable record of one evaluation. One entry is written
// per evaluate call, allowed or not; disallowed entries double as the
// violation history that reputation reads count.
type AuditEntry struct {
	EntryID    string      `json:"entry_id"`
	AuthorID   string      `json:"author_id"`
	Content    string      `json:"content"`
	SourceID   string      `json:"source_id,omitempty"`
	Kind       ContentKind `json:"kind"`
	Allowed    bool        `json:"allowed"`
	Severity   Severity    `json:"severity"`
	Categories []string    `json:"categories"`
	Confidence float64     `json:"confidence"`
	Reason     string      `json:"reason,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// UserReport is one report filed against a user by another user.
type UserReport struct {
	ReportID       string      `json:"report_id"`
	ReporterID     string      `json:"reporter_id"`
	ReportedUserID string      `json:"reported_user_id"`
	Reason         string      `json:"reason"`
	SourceID       string      `json:"source_id,omitempty"`
	Kind           ContentKind `json:"kind"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Restriction is an active mute/timeout marker. The transport edge enforces
// it; this service only records it with its natural expiry.
type Restriction struct {
	UserID    string     `json:"user_id"`
	Kind      ActionKind `json:"kind"`
	Reason    string     `json:"reason"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}
