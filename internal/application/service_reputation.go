package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// GetReputation derives the user's current standing from durable history.
// Unlike the evaluate path, read failures propagate: there is no decision
// that must survive them.
func (s *Service) GetReputation(ctx context.Context, userID string) (domain.ReputationScore, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.ReputationScore{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	violations, err := s.audit.CountViolations(ctx, userID)
	if err != nil {
		return domain.ReputationScore{}, err
	}
	reports, err := s.audit.CountReports(ctx, userID)
	if err != nil {
		return domain.ReputationScore{}, err
	}
	return domain.ComputeReputation(userID, violations, reports), nil
}

// GetRestriction returns the user's active mute/timeout marker.
func (s *Service) GetRestriction(ctx context.Context, userID string) (domain.Restriction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Restriction{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if s.restrictions == nil {
		return domain.Restriction{}, fmt.Errorf("%w: no active restriction", domain.ErrNotFound)
	}

	restriction, err := s.restrictions.Get(ctx, userID)
	if err != nil {
		return domain.Restriction{}, err
	}
	if restriction == nil {
		return domain.Restriction{}, fmt.Errorf("%w: no active restriction", domain.ErrNotFound)
	}
	return *restriction, nil
}

// GetModerationSummary is the projection served to sibling services.
func (s *Service) GetModerationSummary(ctx context.Context, userID string) (ModerationSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ModerationSummary{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	violations, err := s.audit.CountViolations(ctx, userID)
	if err != nil {
		return ModerationSummary{}, err
	}
	reports, err := s.audit.CountReports(ctx, userID)
	if err != nil {
		return ModerationSummary{}, err
	}
	recent, err := s.audit.CountViolationsSince(ctx, userID, s.nowFn().Add(-s.recentFlagWindow()))
	if err != nil {
		return ModerationSummary{}, err
	}

	reputation := domain.ComputeReputation(userID, violations, reports)
	return ModerationSummary{
		UserID:         userID,
		Score:          reputation.Score,
		Level:          string(reputation.Level),
		ViolationCount: violations,
		ReportCount:    reports,
		RecentFlags:    recent,
	}, nil
}
