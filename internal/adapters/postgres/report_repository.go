package postgres

import (
	"context"
	"fmt"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"gorm.io/gorm"
)

type reportRepository struct {
	db *gorm.DB
}

func (r *reportRepository) FileReport(ctx context.Context, report domain.UserReport) error {
	rec := userReportModel{
		ReportID:       report.ReportID,
		ReporterID:     report.ReporterID,
		ReportedUserID: report.ReportedUserID,
		Reason:         report.Reason,
		SourceID:       nullableString(report.SourceID),
		Kind:           string(report.Kind),
		CreatedAt:      report.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("%w: file report: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}
