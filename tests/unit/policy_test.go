package unit

import (
	"strings"
	"testing"

	"github.com/viralforge/mesh/services/trust-compliance/M37-moderation-service/internal/domain"
)

func TestCheckLexicalMatchesExactTokens(t *testing.T) {
	t.Parallel()

	policy := testPolicy()

	cases := []struct {
		name        string
		content     string
		wantAllowed bool
	}{
		{name: "clean content", content: "the walnut table is lovely", wantAllowed: true},
		{name: "exact hit", content: "what a badword move", wantAllowed: false},
		{name: "uppercase hit", content: "WHAT A BADWORD MOVE", wantAllowed: false},
		{name: "substring is not a token", content: "badwording around", wantAllowed: true},
		{name: "punctuation breaks the token", content: "badword!", wantAllowed: true},
		{name: "empty content", content: "", wantAllowed: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			verdict := policy.CheckLexical(tc.content)
			if verdict.Allowed != tc.wantAllowed {
				t.Fatalf("allowed=%v, want %v", verdict.Allowed, tc.wantAllowed)
			}
			if verdict.Confidence != 1.0 {
				t.Fatalf("lexical verdicts are always full confidence, got %f", verdict.Confidence)
			}
			if !tc.wantAllowed {
				if verdict.Severity != domain.SeverityMedium {
					t.Fatalf("lexical hits carry medium severity, got %s", verdict.Severity)
				}
				if !strings.Contains(verdict.Reason, "banned term") {
					t.Fatalf("unexpected reason %q", verdict.Reason)
				}
			}
		})
	}
}

func TestDetectSpamHeuristics(t *testing.T) {
	t.Parallel()

	policy := testPolicy()

	cases := []struct {
		name        string
		content     string
		wantSpam    bool
		wantReasons int
	}{
		{
			name:        "clean content",
			content:     "does this ship to portugal?",
			wantSpam:    false,
			wantReasons: 0,
		},
		{
			name:        "promo phrase alone stays under threshold",
			content:     "buy now while stock lasts",
			wantSpam:    false,
			wantReasons: 1,
		},
		{
			name:        "two urls are tolerated",
			content:     "compare http://a.example and http://b.example",
			wantSpam:    false,
			wantReasons: 0,
		},
		{
			name:        "promo phrase with link flood",
			content:     "buy now http://a.example http://b.example http://c.example",
			wantSpam:    true,
			wantReasons: 2,
		},
		{
			name:        "two promo phrases cross the threshold",
			content:     "buy now, click here",
			wantSpam:    true,
			wantReasons: 2,
		},
		{
			name:        "shouting alone stays under threshold",
			content:     "THIS DEAL IS AMAZING EVERYONE",
			wantSpam:    false,
			wantReasons: 1,
		},
		{
			name:        "repeated characters alone stay under threshold",
			content:     "heyyyyy what is up",
			wantSpam:    false,
			wantReasons: 1,
		},
		{
			name:        "sensitive solicitation counts once",
			content:     "send the card number and wire transfer details",
			wantSpam:    false,
			wantReasons: 1,
		},
		{
			name:        "sensitive solicitation with promo phrase",
			content:     "click here and share your card number",
			wantSpam:    true,
			wantReasons: 2,
		},
		{
			name:        "everything at once clamps to one",
			content:     "BUY NOW buy now click here WOWWWWW http://a.example http://b.example http://c.example SEND YOUR CARD NUMBER",
			wantSpam:    true,
			wantReasons: 5,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			signal := policy.DetectSpam(tc.content, "author-x")
			if signal.IsSpam != tc.wantSpam {
				t.Fatalf("is_spam=%v (score %f), want %v", signal.IsSpam, signal.Score, tc.wantSpam)
			}
			if len(signal.Reasons) != tc.wantReasons {
				t.Fatalf("got %d reasons %v, want %d", len(signal.Reasons), signal.Reasons, tc.wantReasons)
			}
			if signal.Score < 0 || signal.Score > 1 {
				t.Fatalf("score must stay in [0,1], got %f", signal.Score)
			}
		})
	}
}

func TestDetectSpamIsDeterministic(t *testing.T) {
	t.Parallel()

	policy := testPolicy()
	content := "buy now http://a.example http://b.example http://c.example"

	first := policy.DetectSpam(content, "author-1")
	second := policy.DetectSpam(content, "author-2")
	if first.IsSpam != second.IsSpam || first.Score != second.Score {
		t.Fatalf("score must depend only on content: %+v vs %+v", first, second)
	}
}

func TestNewPolicyRejectsInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := domain.NewPolicy(nil, []string{"(["}, nil); err == nil {
		t.Fatalf("expected compile error for malformed promo pattern")
	}
	if _, err := domain.NewPolicy(nil, nil, []string{"*wrong"}); err == nil {
		t.Fatalf("expected compile error for malformed sensitive pattern")
	}
}

func TestProhibitedCategoriesAreStable(t *testing.T) {
	t.Parallel()

	categories := domain.ProhibitedCategories()
	if len(categories) == 0 {
		t.Fatalf("expected a non-empty category policy")
	}
	seen := map[string]bool{}
	for _, c := range categories {
		seen[c] = true
	}
	for _, required := range []string{"hate_speech", "scam_or_fraud", "violence_or_threats"} {
		if !seen[required] {
			t.Fatalf("category policy must include %q, got %v", required, categories)
		}
	}
}
