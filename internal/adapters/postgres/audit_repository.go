package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	rec := toModelAuditEntry(entry)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("%w: append audit entry: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}

func (r *auditRepository) CountViolations(ctx context.Context, userID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&auditEntryModel{}).
		Where("author_id = ?", userID).
		Where("allowed = ?", false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count violations: %v", domain.ErrPersistenceFailure, err)
	}
	return int(count), nil
}

func (r *auditRepository) CountViolationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&auditEntryModel{}).
		Where("author_id = ?", userID).
		Where("allowed = ?", false).
		Where("created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count recent violations: %v", domain.ErrPersistenceFailure, err)
	}
	return int(count), nil
}

func (r *auditRepository) CountReports(ctx context.Context, userID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&userReportModel{}).
		Where("reported_user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count reports: %v", domain.ErrPersistenceFailure, err)
	}
	return int(count), nil
}

func (r *auditRepository) ListDisallowed(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		return []domain.AuditEntry{}, nil
	}
	var rows []auditEntryModel
	if err := r.db.WithContext(ctx).
		Where("allowed = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list disallowed entries: %v", domain.ErrPersistenceFailure, err)
	}
	entries := make([]domain.AuditEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toDomainAuditEntry(row))
	}
	return entries, nil
}
