package util

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	repeatedWordLimit  = 3
	repeatedWordWeight = 0.2
	allCapsMinLength   = 10
	allCapsWeight      = 0.3
	punctuationWeight  = 0.1
	patternWeight      = 0.2
)

var (
	punctuationRunPattern = regexp.MustCompile(`[!?]{2,}`)

	// Each pattern contributes at most once.
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)buy.*now`),
		regexp.MustCompile(`(?is)click.*here`),
		regexp.MustCompile(`(?i)free offer`),
		regexp.MustCompile(`(?i)limited time`),
		regexp.MustCompile(`\d{10,}`),
		regexp.MustCompile(`[A-Z]{5,}`),
	}
)

// SpamSignals holds the contribution of each heuristic check.
type SpamSignals struct {
	RepeatedWords   float64 `json:"repeated_words"`
	AllCaps         float64 `json:"all_caps"`
	Punctuation     float64 `json:"punctuation"`
	SuspiciousTerms float64 `json:"suspicious_terms"`
}

// Total sums the contributions and clamps the result to [0, 1].
func (s SpamSignals) Total() float64 {
	sum := s.RepeatedWords + s.AllCaps + s.Punctuation + s.SuspiciousTerms
	// contributions are multiples of 0.1; drop float noise before clamping
	sum = math.Round(sum*100) / 100
	return math.Max(0, math.Min(sum, 1))
}

// SpamBreakdown runs every heuristic check against comment.
func SpamBreakdown(comment string) SpamSignals {
	var signals SpamSignals
	if comment == "" {
		return signals
	}

	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(comment)) {
		counts[word]++
	}
	for _, n := range counts {
		if n > repeatedWordLimit {
			signals.RepeatedWords += repeatedWordWeight
		}
	}

	if comment == strings.ToUpper(comment) && utf8.RuneCountInString(comment) > allCapsMinLength {
		signals.AllCaps = allCapsWeight
	}

	runs := punctuationRunPattern.FindAllStringIndex(comment, -1)
	signals.Punctuation = punctuationWeight * float64(len(runs))

	for _, pattern := range suspiciousPatterns {
		if pattern.MatchString(comment) {
			signals.SuspiciousTerms += patternWeight
		}
	}

	return signals
}

// SpamScore returns a deterministic risk score in [0, 1] for a review comment.
func SpamScore(comment string) float64 {
	return SpamBreakdown(comment).Total()
}
