package postgres

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/ports"
	"gorm.io/gorm"
)

func toModelAuditEntry(entry domain.AuditEntry) auditEntryModel {
	return auditEntryModel{
		EntryID:    entry.EntryID,
		AuthorID:   entry.AuthorID,
		Content:    entry.Content,
		SourceID:   nullableString(entry.SourceID),
		Kind:       string(entry.Kind),
		Allowed:    entry.Allowed,
		Severity:   string(entry.Severity),
		Categories: marshalCategories(entry.Categories),
		Confidence: entry.Confidence,
		Reason:     entry.Reason,
		CreatedAt:  entry.CreatedAt,
	}
}

func toDomainAuditEntry(row auditEntryModel) domain.AuditEntry {
	sourceID := ""
	if row.SourceID != nil {
		sourceID = *row.SourceID
	}
	return domain.AuditEntry{
		EntryID:    row.EntryID,
		AuthorID:   row.AuthorID,
		Content:    row.Content,
		SourceID:   sourceID,
		Kind:       domain.ContentKind(row.Kind),
		Allowed:    row.Allowed,
		Severity:   domain.Severity(row.Severity),
		Categories: unmarshalCategories(row.Categories),
		Confidence: row.Confidence,
		Reason:     row.Reason,
		CreatedAt:  row.CreatedAt,
	}
}

func toDomainBanExecution(row banExecutionModel) ports.BanExecution {
	auditEntryID := ""
	if row.AuditEntryID != nil {
		auditEntryID = *row.AuditEntryID
	}
	return ports.BanExecution{
		ExecutionID:   row.ExecutionID,
		UserID:        row.UserID,
		Reason:        row.Reason,
		AuditEntryID:  auditEntryID,
		Attempts:      row.Attempts,
		LastError:     row.LastError,
		NextAttemptAt: row.NextAttemptAt,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// marshalCategories stores the category set as a JSON array; an empty set is
// stored as [] so the column is never null.
func marshalCategories(categories []string) string {
	if categories == nil {
		categories = []string{}
	}
	raw, _ := json.Marshal(categories)
	return string(raw)
}

func unmarshalCategories(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
