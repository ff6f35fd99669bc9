package application

import (
	"context"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// GetModerationQueue lists the most recent disallowed audit entries, newest
// first, for the human review surface. Queue entries carry raw content, so
// access is restricted to review roles.
func (s *Service) GetModerationQueue(ctx context.Context, actor Actor, limit int) ([]domain.AuditEntry, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, domain.ErrUnauthorized
	}
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if role != "moderator" && role != "admin" {
		return nil, domain.ErrForbidden
	}

	entries, err := s.audit.ListDisallowed(ctx, s.queueLimit(limit))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}
