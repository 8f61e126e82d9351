package signals

import "strings"

// QuickSentimentScore returns (pos-neg)/max(1,pos+neg) in [-1, 1], where pos and neg
// count case-insensitive substring hits of the lexicon's word lists.
// Empty text scores 0.
func (l *Lexicon) QuickSentimentScore(text string) float64 {
	l = l.orDefault()
	lower := strings.ToLower(text)
	if lower == "" {
		return 0
	}

	pos := countAll(lower, l.PositiveWords)
	neg := countAll(lower, l.NegativeWords)

	score := float64(pos-neg) / float64(max(1, pos+neg))
	return clamp(score, -1, 1)
}

// SentimentWeightFromScore buckets a sentiment score into a citation weight.
// Buckets are checked top-down and are inclusive on their lower bound.
func SentimentWeightFromScore(s float64) float64 {
	switch {
	case s >= 0.6:
		return 1.0
	case s >= 0.2:
		return 0.8
	case s >= -0.2:
		return 0.6
	case s >= -0.6:
		return 0.4
	default:
		return 0.2
	}
}

func countAll(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if w == "" {
			continue
		}
		n += strings.Count(lower, w)
	}
	return n
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
