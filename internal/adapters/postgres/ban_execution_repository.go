package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
	"gorm.io/gorm"
)

const (
	banStatusPending   = "PENDING"
	banStatusSucceeded = "SUCCEEDED"
	banStatusDead      = "DEAD"
)

type banExecutionRepository struct {
	db *gorm.DB
}

func (r *banExecutionRepository) Enqueue(ctx context.Context, userID, reason, auditEntryID string, nextAttemptAt time.Time) error {
	now := time.Now().UTC()
	rec := banExecutionModel{
		ExecutionID:   uuid.New(),
		UserID:        userID,
		Reason:        reason,
		AuditEntryID:  nullableString(auditEntryID),
		Status:        banStatusPending,
		NextAttemptAt: nextAttemptAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: enqueue ban execution: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *banExecutionRepository) ListDue(ctx context.Context, limit int, now time.Time) ([]ports.BanExecution, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []banExecutionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", banStatusPending).
		Where("next_attempt_at <= ?", now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list due ban executions: %v", domain.ErrPersistenceFailure, err)
	}
	result := make([]ports.BanExecution, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainBanExecution(row))
	}
	return result, nil
}

func (r *banExecutionRepository) MarkSucceeded(ctx context.Context, executionID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&banExecutionModel{}).
		Where("execution_id = ?", executionID).
		Where("status = ?", banStatusPending).
		Updates(map[string]any{
			"status":     banStatusSucceeded,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *banExecutionRepository) MarkFailed(ctx context.Context, executionID uuid.UUID, errMsg string, nextAttemptAt time.Time, dead bool, at time.Time) error {
	status := banStatusPending
	if dead {
		status = banStatusDead
	}
	res := r.db.WithContext(ctx).
		Model(&banExecutionModel{}).
		Where("execution_id = ?", executionID).
		Where("status = ?", banStatusPending).
		Updates(map[string]any{
			"status":          status,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      errMsg,
			"next_attempt_at": nextAttemptAt,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
