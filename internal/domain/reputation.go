package domain

// ReputationLevel buckets a reputation score into the trust tiers the
// escalation table keys off.
type ReputationLevel string

const (
	LevelTrusted    ReputationLevel = "trusted"
	LevelNormal     ReputationLevel = "normal"
	LevelSuspicious ReputationLevel = "suspicious"
	LevelBanned     ReputationLevel = "banned"
)

// ReputationScore is derived fresh from durable history on every read.
// It is never stored, so it can never drift from the underlying counts.
type ReputationScore struct {
	UserID         string          `json:"user_id"`
	Score          int             `json:"score"`
	Level          ReputationLevel `json:"level"`
	ViolationCount int             `json:"violation_count"`
	ReportCount    int             `json:"report_count"`
}

const (
	violationPenalty = 5
	reportPenalty    = 10
)

// ScoreFromCounts computes the trust score for a user's history. Each
// disallowed verdict costs 5 points, each report against the user 10,
// floored at zero.
func ScoreFromCounts(violations, reports int) int {
	score := 100 - violations*violationPenalty - reports*reportPenalty
	if score < 0 {
		return 0
	}
	return score
}

// LevelForScore maps a score to its trust tier.
func LevelForScore(score int) ReputationLevel {
	switch {
	case score >= 80:
		return LevelTrusted
	case score >= 50:
		return LevelNormal
	case score >= 20:
		return LevelSuspicious
	default:
		return LevelBanned
	}
}

// ComputeReputation assembles the derived reputation for one user.
func ComputeReputation(userID string, violations, reports int) ReputationScore {
	score := ScoreFromCounts(violations, reports)
	return ReputationScore{
		UserID:         userID,
		Score:          score,
		Level:          LevelForScore(score),
		ViolationCount: violations,
		ReportCount:    reports,
	}
}
