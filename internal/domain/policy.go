package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Heuristic weights and thresholds for the pattern detector. These are fixed
// behavior, not tuning knobs: changing them changes what counts as spam
// everywhere the platform moderates text. The phrase lists themselves are
// configuration (see Policy).
const (
	promoPhraseWeight  = 0.3
	linkFloodWeight    = 0.4
	shoutingWeight     = 0.2
	repeatedRunWeight  = 0.3
	sensitiveAskWeight = 0.4
	spamThreshold      = 0.5
	linkFloodMin       = 2  // more than this many URLs
	shoutingMinLength  = 10 // content shorter than this never counts as shouting
	shoutingRatio      = 0.7
	repeatedRunLength  = 5
)

var urlPattern = regexp.MustCompile(`(?i)\bhttps?://\S+`)

// Policy holds the compiled word and phrase lists the rule-based filters run
// against. It is built once at startup from configuration and shared by
// reference across concurrent evaluations; it is never mutated after
// construction.
type Policy struct {
	bannedTerms       map[string]struct{}
	promoPatterns     []*regexp.Regexp
	sensitivePatterns []*regexp.Regexp
}

// NewPolicy compiles the configured lists. Promo and sensitive entries are
// case-insensitive regular expressions; banned terms are matched as exact
// lowercase tokens.
func NewPolicy(bannedTerms, promoPatterns, sensitivePatterns []string) (*Policy, error) {
	p := &Policy{bannedTerms: make(map[string]struct{}, len(bannedTerms))}
	for _, term := range bannedTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		p.bannedTerms[term] = struct{}{}
	}
	for _, raw := range promoPatterns {
		re, err := compileFold(raw)
		if err != nil {
			return nil, fmt.Errorf("promo pattern %q: %w", raw, err)
		}
		p.promoPatterns = append(p.promoPatterns, re)
	}
	for _, raw := range sensitivePatterns {
		re, err := compileFold(raw)
		if err != nil {
			return nil, fmt.Errorf("sensitive pattern %q: %w", raw, err)
		}
		p.sensitivePatterns = append(p.sensitivePatterns, re)
	}
	return p, nil
}

func compileFold(raw string) (*regexp.Regexp, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	return regexp.Compile("(?i)" + raw)
}

// CheckLexical scans whitespace tokens of the lowercased content against the
// banned-term set. Any hit blocks the content outright with full confidence;
// a miss passes it through with full confidence.
func (p *Policy) CheckLexical(content string) Verdict {
	for _, token := range strings.Fields(strings.ToLower(content)) {
		if _, banned := p.bannedTerms[token]; banned {
			return Verdict{
				Allowed:    false,
				Reason:     "banned term: " + token,
				Severity:   SeverityMedium,
				Categories: []string{"profanity"},
				Confidence: 1.0,
			}
		}
	}
	return Verdict{Allowed: true, Severity: SeverityLow, Categories: []string{}, Confidence: 1.0}
}

// DetectSpam runs the weighted structural heuristics over the content and
// sums their scores, clamped to 1.0. Scoring is a deterministic function of
// the content; the author rides along for callers that log per-sender.
func (p *Policy) DetectSpam(content, authorID string) SpamSignal {
	score := 0.0
	reasons := []string{}

	for _, re := range p.promoPatterns {
		if re.MatchString(content) {
			score += promoPhraseWeight
			reasons = append(reasons, "promotional phrase: "+re.String())
		}
	}
	if n := len(urlPattern.FindAllStringIndex(content, -1)); n > linkFloodMin {
		score += linkFloodWeight
		reasons = append(reasons, fmt.Sprintf("link flood: %d urls", n))
	}
	if ratio, ok := uppercaseRatio(content); ok && ratio > shoutingRatio {
		score += shoutingWeight
		reasons = append(reasons, fmt.Sprintf("shouting: %.0f%% uppercase", ratio*100))
	}
	if run, ok := longestRepeatedRun(content); ok {
		score += repeatedRunWeight
		reasons = append(reasons, fmt.Sprintf("repeated character: %q x%d", run.r, run.length))
	}
	for _, re := range p.sensitivePatterns {
		if re.MatchString(content) {
			score += sensitiveAskWeight
			reasons = append(reasons, "sensitive data solicitation: "+re.String())
			break
		}
	}

	score = ClampScore(score)
	return SpamSignal{IsSpam: score >= spamThreshold, Score: score, Reasons: reasons}
}

// ProhibitedCategories is the fixed policy carried on every semantic
// classification request. The set is part of the moderation contract, not
// configuration.
func ProhibitedCategories() []string {
	return []string{
		"hate_speech",
		"sexual_content",
		"violence_or_threats",
		"illegal_activity",
		"personal_data_sharing",
		"scam_or_fraud",
		"excessive_self_promotion",
	}
}

// ClampScore bounds a heuristic score to [0, 1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func uppercaseRatio(content string) (float64, bool) {
	if len(content) <= shoutingMinLength {
		return 0, false
	}
	letters, upper := 0, 0
	for _, r := range content {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0, false
	}
	return float64(upper) / float64(letters), true
}

type repeatedRun struct {
	r      rune
	length int
}

func longestRepeatedRun(content string) (repeatedRun, bool) {
	var prev rune
	count := 0
	best := repeatedRun{}
	for _, r := range content {
		if r == prev {
			count++
		} else {
			prev, count = r, 1
		}
		if count > best.length {
			best = repeatedRun{r: r, length: count}
		}
	}
	return best, best.length >= repeatedRunLength
}
