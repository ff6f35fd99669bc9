package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// ReportUser files one report against a user and re-checks their standing.
// The flag-for-review notification fires exactly when the accumulated report
// count crosses the review threshold, never on later reports.
func (s *Service) ReportUser(ctx context.Context, actor Actor, req ReportRequest) (ReportResponse, error) {
	reporterID := strings.TrimSpace(actor.UserID)
	if reporterID == "" {
		return ReportResponse{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return ReportResponse{}, domain.ErrIdempotencyRequired
	}
	reportedID := strings.TrimSpace(req.ReportedUserID)
	if reportedID == "" {
		return ReportResponse{}, fmt.Errorf("%w: reported_user_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return ReportResponse{}, fmt.Errorf("%w: reason is required", domain.ErrInvalidInput)
	}
	if reportedID == reporterID {
		return ReportResponse{}, fmt.Errorf("%w: cannot report yourself", domain.ErrInvalidInput)
	}

	requestHash := hashRequest(req)
	if cached, ok, err := s.getIdempotentReport(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return ReportResponse{}, err
	} else if ok {
		return cached, nil
	}

	report := domain.UserReport{
		ReportID:       uuid.NewString(),
		ReporterID:     reporterID,
		ReportedUserID: reportedID,
		Reason:         strings.TrimSpace(req.Reason),
		SourceID:       strings.TrimSpace(req.Context.SourceID),
		Kind:           domain.NormalizeContentKind(req.Context.Kind),
		CreatedAt:      s.nowFn(),
	}
	if err := s.reports.FileReport(ctx, report); err != nil {
		return ReportResponse{}, err
	}

	count, flagged := s.recheckReports(ctx, reportedID)

	resp := ReportResponse{ReportID: report.ReportID, ReportCount: count, Flagged: flagged}
	if err := s.completeIdempotent(ctx, actor.IdempotencyKey, 201, resp); err != nil {
		return ReportResponse{}, err
	}
	return resp, nil
}

// recheckReports reads the post-insert count and fires the review flag when
// the count crossed the threshold. Each call inserts exactly one report, so
// the count crossed iff it now equals the threshold. Count read failures
// skip the flag; the report itself is already durable.
func (s *Service) recheckReports(ctx context.Context, reportedID string) (int, bool) {
	count, err := s.audit.CountReports(ctx, reportedID)
	if err != nil {
		s.logCountFailure(ctx, "count_reports", reportedID, err)
		return 0, false
	}
	if count != s.reportReviewThreshold() {
		return count, false
	}

	violations, err := s.audit.CountViolations(ctx, reportedID)
	if err != nil {
		s.logCountFailure(ctx, "count_violations", reportedID, err)
		violations = 0
	}
	s.enqueueUserFlagged(ctx, domain.ComputeReputation(reportedID, violations, count), "report_threshold")
	return count, true
}

func (s *Service) getIdempotentReport(ctx context.Context, key, requestHash string) (ReportResponse, bool, error) {
	if s.idempotency == nil {
		return ReportResponse{}, false, nil
	}
	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return ReportResponse{}, false, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return ReportResponse{}, false, domain.ErrIdempotencyConflict
		}
		if len(existing.ResponseBody) == 0 {
			return ReportResponse{}, false, fmt.Errorf("%w: request still in flight", domain.ErrIdempotencyConflict)
		}
		var cached ReportResponse
		if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
			return ReportResponse{}, false, err
		}
		return cached, true, nil
	}
	if err := s.idempotency.Reserve(ctx, key, requestHash, s.nowFn().Add(s.idempotencyTTL())); err != nil {
		return ReportResponse{}, false, err
	}
	return ReportResponse{}, false, nil
}

func (s *Service) completeIdempotent(ctx context.Context, key string, code int, payload any) error {
	if s.idempotency == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.idempotency.Complete(ctx, key, code, raw, s.nowFn())
}
