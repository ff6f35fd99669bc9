package postgres

import (
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Audit         ports.AuditStore
	Reports       ports.ReportStore
	Outbox        ports.OutboxRepository
	BanExecutions ports.BanExecutionRepository
	Idempotency   ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Audit:         &auditRepository{db: db},
		Reports:       &reportRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		BanExecutions: &banExecutionRepository{db: db},
		Idempotency:   &idempotencyRepository{db: db},
	}
}
