package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

// Evaluate runs one piece of content through the moderation pipeline:
// lexical filter, pattern detector, semantic classification, the audit
// write, and reputation-driven escalation with its side effects. Exactly one
// audit entry is written per call, allowed or not.
func (s *Service) Evaluate(ctx context.Context, req EvaluateRequest) (EvaluateResponse, error) {
	authorID := strings.TrimSpace(req.AuthorID)
	if authorID == "" {
		return EvaluateResponse{}, fmt.Errorf("%w: author_id is required", domain.ErrInvalidInput)
	}

	started := time.Now()
	verdict := s.screen(ctx, req.Content, authorID)

	entry := domain.AuditEntry{
		EntryID:    uuid.NewString(),
		AuthorID:   authorID,
		Content:    req.Content,
		SourceID:   strings.TrimSpace(req.Context.SourceID),
		Kind:       domain.NormalizeContentKind(req.Context.Kind),
		Allowed:    verdict.Allowed,
		Severity:   verdict.Severity,
		Categories: verdict.Categories,
		Confidence: verdict.Confidence,
		Reason:     verdict.Reason,
		CreatedAt:  s.nowFn(),
	}
	audited := s.appendAudit(ctx, entry)

	var action domain.EnforcementAction
	if verdict.Allowed {
		action = domain.Decide(verdict, domain.ReputationScore{})
	} else {
		// The audit write above already recorded the violation, so the
		// counts read here include it.
		reputation, countsOK := s.deriveReputation(ctx, authorID)
		action = domain.Decide(verdict, reputation)
		s.enforce(ctx, entry, action)
		if audited && countsOK {
			s.flagOnLevelCrossing(ctx, reputation)
		}
		s.enqueueContentRejected(ctx, entry, action)
	}

	outcome := "allowed"
	if !verdict.Allowed {
		outcome = "rejected"
	}
	s.metrics.RecordEvaluation(outcome)
	s.metrics.RecordAction(string(action.Kind))
	s.metrics.ObserveEvaluateDuration(time.Since(started).Seconds())

	return EvaluateResponse{Verdict: verdict, Action: action}, nil
}

// screen runs the three check stages with their short-circuit rules: a
// lexical hit skips everything else, a spam signal skips the semantic
// classifier.
func (s *Service) screen(ctx context.Context, content, authorID string) domain.Verdict {
	verdict := s.policy.CheckLexical(content)
	if !verdict.Allowed {
		return verdict
	}

	if signal := s.policy.DetectSpam(content, authorID); signal.IsSpam {
		return domain.Verdict{
			Allowed:    false,
			Reason:     strings.Join(signal.Reasons, "; "),
			Severity:   domain.SeverityMedium,
			Categories: []string{"spam"},
			Confidence: signal.Score,
		}
	}

	return s.classify(ctx, content)
}

// classify calls the external classifier under a bounded timeout. Any error
// resolves to the fail-open verdict: the content passes, and the degraded
// path is logged and counted so it can be alerted on.
func (s *Service) classify(ctx context.Context, content string) domain.Verdict {
	classifyCtx, cancel := context.WithTimeout(ctx, s.classifierTimeout())
	defer cancel()

	policy := ports.ClassificationPolicy{ProhibitedCategories: domain.ProhibitedCategories()}
	verdict, err := s.classifier.Classify(classifyCtx, content, policy)
	if err != nil {
		s.metrics.RecordFailOpen()
		slog.Default().WarnContext(ctx, "semantic classifier unavailable, failing open",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "classify",
			"outcome", "fail_open",
			"error", err,
		)
		return domain.Verdict{Allowed: true, Severity: domain.SeverityLow, Categories: []string{}, Confidence: 0}
	}
	return verdict
}

// appendAudit persists the evaluation record. A failed write never blocks
// the verdict: the caller still gets its decision and the failure stays
// observable through the log and the metric.
func (s *Service) appendAudit(ctx context.Context, entry domain.AuditEntry) bool {
	if err := s.audit.Append(ctx, entry); err != nil {
		s.metrics.RecordAuditFailure()
		slog.Default().ErrorContext(ctx, "audit write failed",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "append_audit",
			"outcome", "failure",
			"entry_id", entry.EntryID,
			"author_id", entry.AuthorID,
			"error", fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err),
		)
		return false
	}
	return true
}

// deriveReputation recomputes the author's reputation from durable counts.
// A failed count read degrades that dimension to zero; the second return
// reports whether both reads were healthy.
func (s *Service) deriveReputation(ctx context.Context, userID string) (domain.ReputationScore, bool) {
	healthy := true

	violations, err := s.audit.CountViolations(ctx, userID)
	if err != nil {
		healthy, violations = false, 0
		s.logCountFailure(ctx, "count_violations", userID, err)
	}
	reports, err := s.audit.CountReports(ctx, userID)
	if err != nil {
		healthy, reports = false, 0
		s.logCountFailure(ctx, "count_reports", userID, err)
	}

	return domain.ComputeReputation(userID, violations, reports), healthy
}

func (s *Service) logCountFailure(ctx context.Context, operation, userID string, err error) {
	slog.Default().WarnContext(ctx, "reputation count read failed",
		"service", serviceName,
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "degraded",
		"user_id", userID,
		"error", fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err),
	)
}

// enforce drives the action's side effects. A ban hits the directory before
// the call returns; mutes and timeouts are recorded as restriction markers
// with their natural expiry for the transport edge to enforce.
func (s *Service) enforce(ctx context.Context, entry domain.AuditEntry, action domain.EnforcementAction) {
	switch action.Kind {
	case domain.ActionBan:
		s.executeBan(ctx, entry.AuthorID, action.Reason, entry.EntryID)
	case domain.ActionMute, domain.ActionTimeout:
		s.recordRestriction(ctx, entry.AuthorID, action)
	}
}

// executeBan invokes the directory synchronously. On failure the ban is
// queued for the retry worker and the decision is still returned upstream; a
// not-yet-banned user is an acceptable transient state, a lost ban is not.
func (s *Service) executeBan(ctx context.Context, userID, reason, auditEntryID string) {
	if err := s.directory.Ban(ctx, userID, reason); err != nil {
		s.metrics.RecordBanExecution("failed")
		slog.Default().ErrorContext(ctx, "directory ban failed, queuing retry",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "execute_ban",
			"outcome", "failure",
			"user_id", userID,
			"error", fmt.Errorf("%w: %v", domain.ErrBanExecution, err),
		)
		if s.banQueue == nil {
			return
		}
		if qErr := s.banQueue.Enqueue(ctx, userID, reason, auditEntryID, s.nowFn().Add(s.banRetryDelay())); qErr != nil {
			slog.Default().ErrorContext(ctx, "ban retry enqueue failed",
				"service", serviceName,
				"module", "application",
				"layer", "application",
				"operation", "enqueue_ban_retry",
				"outcome", "failure",
				"user_id", userID,
				"error", qErr,
			)
		}
		return
	}
	s.metrics.RecordBanExecution("succeeded")
	s.enqueueUserBanned(ctx, userID, reason, auditEntryID)
}

func (s *Service) recordRestriction(ctx context.Context, userID string, action domain.EnforcementAction) {
	if s.restrictions == nil || action.DurationSeconds <= 0 {
		return
	}
	now := s.nowFn()
	ttl := time.Duration(action.DurationSeconds) * time.Second
	restriction := domain.Restriction{
		UserID:    userID,
		Kind:      action.Kind,
		Reason:    action.Reason,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.restrictions.Put(ctx, restriction, ttl); err != nil {
		slog.Default().WarnContext(ctx, "restriction marker write failed",
			"service", serviceName,
			"module", "application",
			"layer", "application",
			"operation", "record_restriction",
			"outcome", "failure",
			"user_id", userID,
			"kind", action.Kind,
			"error", err,
		)
	}
}

// flagOnLevelCrossing emits one review notification when the violation just
// recorded moved the author into suspicious or banned territory. The counts
// on the reputation already include that violation.
func (s *Service) flagOnLevelCrossing(ctx context.Context, reputation domain.ReputationScore) {
	if reputation.ViolationCount < 1 {
		return
	}
	before := domain.LevelForScore(domain.ScoreFromCounts(reputation.ViolationCount-1, reputation.ReportCount))
	if before == reputation.Level {
		return
	}
	if reputation.Level != domain.LevelSuspicious && reputation.Level != domain.LevelBanned {
		return
	}
	s.enqueueUserFlagged(ctx, reputation, "reputation_level")
}
