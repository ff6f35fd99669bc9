package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

// RestrictionStore keeps active mute/timeout markers with TTL equal to the
// action duration, so transport edges can answer "is this user restricted"
// without recomputing anything. Verdicts and reputation are never cached;
// only issued actions with their natural expiry live here.
type RestrictionStore interface {
	Put(ctx context.Context, restriction domain.Restriction, ttl time.Duration) error
	Get(ctx context.Context, userID string) (*domain.Restriction, error)
}
