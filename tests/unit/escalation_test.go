package unit

import (
	"testing"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

func TestDecideEscalationTable(t *testing.T) {
	t.Parallel()

	disallowed := func(severity domain.Severity) domain.Verdict {
		return domain.Verdict{Allowed: false, Severity: severity, Categories: []string{"x"}, Confidence: 0.9}
	}
	standing := func(score int) domain.ReputationScore {
		return domain.ReputationScore{UserID: "u", Score: score, Level: domain.LevelForScore(score)}
	}

	cases := []struct {
		name         string
		verdict      domain.Verdict
		reputation   domain.ReputationScore
		wantKind     domain.ActionKind
		wantDuration int
	}{
		{
			name:       "allowed always allows",
			verdict:    domain.Verdict{Allowed: true, Severity: domain.SeverityLow},
			reputation: standing(0),
			wantKind:   domain.ActionAllow,
		},
		{
			name:       "critical bans trusted users",
			verdict:    disallowed(domain.SeverityCritical),
			reputation: standing(100),
			wantKind:   domain.ActionBan,
		},
		{
			name:       "high severity below the floor bans",
			verdict:    disallowed(domain.SeverityHigh),
			reputation: standing(29),
			wantKind:   domain.ActionBan,
		},
		{
			name:         "high severity at the floor times out",
			verdict:      disallowed(domain.SeverityHigh),
			reputation:   standing(30),
			wantKind:     domain.ActionTimeout,
			wantDuration: domain.TimeoutHighSeconds,
		},
		{
			name:         "high severity with healthy standing times out",
			verdict:      disallowed(domain.SeverityHigh),
			reputation:   standing(95),
			wantKind:     domain.ActionTimeout,
			wantDuration: domain.TimeoutHighSeconds,
		},
		{
			name:         "medium severity by suspicious user times out",
			verdict:      disallowed(domain.SeverityMedium),
			reputation:   standing(45),
			wantKind:     domain.ActionTimeout,
			wantDuration: domain.TimeoutSuspiciousSeconds,
		},
		{
			name:         "medium severity by normal user mutes",
			verdict:      disallowed(domain.SeverityMedium),
			reputation:   standing(60),
			wantKind:     domain.ActionMute,
			wantDuration: domain.MuteSeconds,
		},
		{
			name:         "medium severity by trusted user mutes",
			verdict:      disallowed(domain.SeverityMedium),
			reputation:   standing(100),
			wantKind:     domain.ActionMute,
			wantDuration: domain.MuteSeconds,
		},
		{
			name:       "low severity warns",
			verdict:    disallowed(domain.SeverityLow),
			reputation: standing(100),
			wantKind:   domain.ActionWarn,
		},
		{
			name:       "low severity warns even at rock bottom",
			verdict:    disallowed(domain.SeverityLow),
			reputation: standing(0),
			wantKind:   domain.ActionWarn,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			action := domain.Decide(tc.verdict, tc.reputation)
			if action.Kind != tc.wantKind {
				t.Fatalf("kind=%s, want %s", action.Kind, tc.wantKind)
			}
			if action.DurationSeconds != tc.wantDuration {
				t.Fatalf("duration=%d, want %d", action.DurationSeconds, tc.wantDuration)
			}
			if action.Reason == "" {
				t.Fatalf("every action carries a reason")
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	t.Parallel()

	verdict := domain.Verdict{Allowed: false, Severity: domain.SeverityHigh, Confidence: 0.8}
	reputation := domain.ReputationScore{UserID: "u", Score: 40, Level: domain.LevelSuspicious}

	first := domain.Decide(verdict, reputation)
	second := domain.Decide(verdict, reputation)
	if first != second {
		t.Fatalf("identical inputs must yield identical actions: %+v vs %+v", first, second)
	}
}
