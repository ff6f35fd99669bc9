package application

import (
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/observability"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
)

const serviceName = "M37-Moderation-Service"

// Service orchestrates the moderation pipeline. It owns no state beyond the
// compiled policy and the injected clock; every evaluation is independent and
// reads durable history through the ports.
type Service struct {
	cfg          Config
	policy       *domain.Policy
	audit        ports.AuditStore
	reports      ports.ReportStore
	directory    ports.UserDirectory
	classifier   ports.SemanticClassifier
	restrictions ports.RestrictionStore
	outbox       ports.OutboxRepository
	banQueue     ports.BanExecutionRepository
	idempotency  ports.IdempotencyRepository
	metrics      *observability.Metrics
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Policy       *domain.Policy
	Audit        ports.AuditStore
	Reports      ports.ReportStore
	Directory    ports.UserDirectory
	Classifier   ports.SemanticClassifier
	Restrictions ports.RestrictionStore
	Outbox       ports.OutboxRepository
	BanQueue     ports.BanExecutionRepository
	Idempotency  ports.IdempotencyRepository
	Metrics      *observability.Metrics
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:          deps.Config,
		policy:       deps.Policy,
		audit:        deps.Audit,
		reports:      deps.Reports,
		directory:    deps.Directory,
		classifier:   deps.Classifier,
		restrictions: deps.Restrictions,
		outbox:       deps.Outbox,
		banQueue:     deps.BanQueue,
		idempotency:  deps.Idempotency,
		metrics:      deps.Metrics,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// Config accessors fall back to working defaults when a field is unset.

func (s *Service) classifierTimeout() time.Duration {
	if s.cfg.ClassifierTimeout <= 0 {
		return 2 * time.Second
	}
	return s.cfg.ClassifierTimeout
}

func (s *Service) reportReviewThreshold() int {
	if s.cfg.ReportReviewThreshold <= 0 {
		return 5
	}
	return s.cfg.ReportReviewThreshold
}

func (s *Service) idempotencyTTL() time.Duration {
	if s.cfg.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.cfg.IdempotencyTTL
}

func (s *Service) banRetryDelay() time.Duration {
	if s.cfg.BanRetryDelay <= 0 {
		return 30 * time.Second
	}
	return s.cfg.BanRetryDelay
}

func (s *Service) banMaxAttempts() int {
	if s.cfg.BanMaxAttempts <= 0 {
		return 5
	}
	return s.cfg.BanMaxAttempts
}

func (s *Service) recentFlagWindow() time.Duration {
	if s.cfg.RecentFlagWindow <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.cfg.RecentFlagWindow
}

func (s *Service) queueLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.cfg.QueueDefaultLimit
	}
	if limit <= 0 {
		limit = 50
	}
	max := s.cfg.QueueMaxLimit
	if max <= 0 {
		max = 200
	}
	if limit > max {
		return max
	}
	return limit
}
