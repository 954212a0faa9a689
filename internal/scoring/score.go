// Package scoring computes the post-session speaking score. It is a pure,
// deterministic heuristic: no I/O and no model inference.
package scoring

import (
	"math"
	"strings"
)

// ConfidenceThreshold is the recognizer confidence above which the
// pronunciation sub-score is awarded full marks.
const ConfidenceThreshold = 0.8

// Breakdown holds the five sub-scores of one user turn. Each is 1 or 2.
type Breakdown struct {
	Grammar    int
	Relevance  int
	Engagement int
	Coherence  int
	Confidence int

	Words int // tokenized word count
}

func (b Breakdown) Total() int {
	return b.Grammar + b.Relevance + b.Engagement + b.Coherence + b.Confidence
}

// ScoreTurn evaluates one transcript with its recognizer confidence. An
// empty transcript has no offending tokens and keeps full grammar marks.
func ScoreTurn(text string, confidence float64) Breakdown {
	tokens := Tokenize(text)
	fields := len(strings.Fields(text))

	b := Breakdown{
		Grammar:    1,
		Relevance:  1,
		Engagement: 1,
		Coherence:  1,
		Confidence: 1,
		Words:      len(tokens),
	}

	if allAlphaOrPunct(tokens) {
		b.Grammar = 2
	}
	if fields > 3 {
		b.Relevance = 2
	}
	if strings.Contains(text, "?") || fields > 5 {
		b.Engagement = 2
	}
	if len(tokens) > 3 {
		b.Coherence = 2
	}
	if confidence > ConfidenceThreshold {
		b.Confidence = 2
	}
	return b
}

// ScoreSession returns the mean per-turn score rounded to two decimals and
// the total tokenized word count. Empty input scores (0, 0). A transcript
// without a paired confidence is scored as confidence 0.
func ScoreSession(transcripts []string, confidences []float64) (float64, int) {
	if len(transcripts) == 0 {
		return 0, 0
	}

	total := 0
	words := 0
	for i, t := range transcripts {
		var conf float64
		if i < len(confidences) {
			conf = confidences[i]
		}
		b := ScoreTurn(t, conf)
		total += b.Total()
		words += b.Words
	}

	return Round2(float64(total) / float64(len(transcripts))), words
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func allAlphaOrPunct(tokens []string) bool {
	for _, t := range tokens {
		for _, part := range splitHyphens(t) {
			if !isAlpha(part) && !isPunct(part) {
				return false
			}
		}
	}
	return true
}
