package ports

import (
	"context"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// UserDirectory is the platform user registry. Ban is the only operation
// this service drives; everything else about the account stays owned by the
// profile service.
type UserDirectory interface {
	Ban(ctx context.Context, userID, reason string) error
}

// ClassificationPolicy is the fixed policy description sent with every
// semantic classification request.
type ClassificationPolicy struct {
	ProhibitedCategories []string
}

// SemanticClassifier wraps the external text-classification collaborator.
// Implementations return domain.ErrClassifierUnavailable for transport
// failures, timeouts, and malformed responses; the decision to fail open
// belongs to the caller, not the adapter.
type SemanticClassifier interface {
	Classify(ctx context.Context, content string, policy ClassificationPolicy) (domain.Verdict, error)
}
