package domain

// Enforcement durations, in seconds.
const (
	TimeoutHighSeconds       = 3600
	TimeoutSuspiciousSeconds = 600
	MuteSeconds              = 300
)

// Reputation floor below which high-severity violations escalate to a ban.
const highSeverityBanScore = 30

type escalationRule struct {
	matches func(v Verdict, r ReputationScore) bool
	action  func(v Verdict, r ReputationScore) EnforcementAction
}

// escalationTable is evaluated top to bottom; the first matching rule wins.
// The ordering is behavior, not style: several conditions can hold at once
// and precedence decides the outcome.
var escalationTable = []escalationRule{
	{
		matches: func(v Verdict, _ ReputationScore) bool { return v.Allowed },
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionAllow, Reason: "content allowed"}
		},
	},
	{
		matches: func(v Verdict, _ ReputationScore) bool { return v.Severity == SeverityCritical },
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionBan, Reason: "critical severity violation"}
		},
	},
	{
		matches: func(v Verdict, r ReputationScore) bool {
			return v.Severity == SeverityHigh && r.Score < highSeverityBanScore
		},
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionBan, Reason: "high severity violation by low-reputation user"}
		},
	},
	{
		matches: func(v Verdict, _ ReputationScore) bool { return v.Severity == SeverityHigh },
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionTimeout, DurationSeconds: TimeoutHighSeconds, Reason: "high severity violation"}
		},
	},
	{
		matches: func(v Verdict, r ReputationScore) bool {
			return v.Severity == SeverityMedium && r.Level == LevelSuspicious
		},
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionTimeout, DurationSeconds: TimeoutSuspiciousSeconds, Reason: "medium severity violation by suspicious user"}
		},
	},
	{
		matches: func(v Verdict, _ ReputationScore) bool { return v.Severity == SeverityMedium },
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionMute, DurationSeconds: MuteSeconds, Reason: "medium severity violation"}
		},
	},
	{
		matches: func(_ Verdict, _ ReputationScore) bool { return true },
		action: func(_ Verdict, _ ReputationScore) EnforcementAction {
			return EnforcementAction{Kind: ActionWarn, Reason: "low severity violation"}
		},
	},
}

// Decide maps a verdict and the author's reputation to the enforcement
// action. Pure: identical inputs always yield the identical action.
func Decide(verdict Verdict, reputation ReputationScore) EnforcementAction {
	for _, rule := range escalationTable {
		if rule.matches(verdict, reputation) {
			return rule.action(verdict, reputation)
		}
	}
	// The last table entry matches unconditionally.
	return EnforcementAction{Kind: ActionWarn, Reason: "low severity violation"}
}
