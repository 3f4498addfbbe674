package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamScore(t *testing.T) {
	tests := []struct {
		name    string
		comment string
		want    float64
	}{
		{"empty comment", "", 0.0},
		{"ordinary praise with one exclamation run", "Great service, highly recommend!!", 0.1},
		{"word repeated three times is fine", "good good good food here", 0.0},
		{"word repeated four times", "good good good good food", 0.2},
		{"two words repeated four times", "so so so so very very very very", 0.4},
		{"repetition is case-insensitive", "Nice NICE nice nIce place", 0.2},
		{"all caps over ten characters", "ALL CAPS OK", 0.3},
		{"same text lowercased", "all caps ok", 0.0},
		{"all caps at exactly ten characters", "ALL CAPS X", 0.0},
		{"mixed punctuation runs", "What?! Really?? No!!!", 0.3},
		{"long run counts once", "Wow!!!!", 0.1},
		{"buy now with gap", "you should buy it right now", 0.2},
		{"buy now across lines", "buy this\nnow", 0.2},
		{"click here", "Click the link over here", 0.2},
		{"free offer case-insensitive", "Get your Free Offer today", 0.2},
		{"limited time", "limited time deal at this shop", 0.2},
		{"long digit run", "call 01012345678 for details", 0.2},
		{"nine digits is fine", "call 012345678 for details", 0.0},
		{"uppercase run is case-sensitive", "Lovely bakery downtown", 0.0},
		{"uppercase run", "The SERVICE was slow", 0.2},
		{"pattern counted once", "buy now, buy now, buy now", 0.2},
		{
			"promotional shouting",
			"BUY NOW BUY NOW BUY NOW LIMITED TIME OFFER!!!",
			1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SpamScore(tt.comment), 1e-9)
		})
	}
}

func TestSpamScore_ClampedToOne(t *testing.T) {
	comment := "CLICK HERE CLICK HERE CLICK HERE CLICK HERE FREE OFFER LIMITED TIME BUY NOW 01234567890!!! ??"
	assert.Equal(t, 1.0, SpamScore(comment))
}

func TestSpamScore_AlwaysInRange(t *testing.T) {
	samples := []string{
		"",
		" ",
		"!!",
		strings.Repeat("a ", 500),
		strings.Repeat("SPAM ", 200),
		strings.Repeat("!?", 300),
		"정말 좋은 가게입니다!!",
		"12345678901234567890",
	}

	for _, s := range samples {
		score := SpamScore(s)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestSpamBreakdown(t *testing.T) {
	signals := SpamBreakdown("BUY NOW BUY NOW BUY NOW LIMITED TIME OFFER!!!")

	assert.Equal(t, 0.0, signals.RepeatedWords)
	assert.Equal(t, 0.3, signals.AllCaps)
	assert.InDelta(t, 0.1, signals.Punctuation, 1e-9)
	assert.InDelta(t, 0.6, signals.SuspiciousTerms, 1e-9)
	assert.Equal(t, 1.0, signals.Total())
}

func TestSpamScore_Deterministic(t *testing.T) {
	comment := "Amazing amazing amazing amazing deal, CLICK HERE!!"
	assert.Equal(t, SpamScore(comment), SpamScore(comment))
}
