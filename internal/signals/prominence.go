package signals

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	prominenceBase        = 1.0
	earlyMentionBonus     = 0.15
	earlyMentionWindow    = 200
	recommendationBonus   = 0.10
	maxListRankBonus      = 0.30
	prominenceLinesWindow = 20
	minProminence         = 0.5
	maxProminence         = 1.5
)

// ListLineRe matches a numbered list line such as "1. Acme", "2) Globex" or "3 Initech".
var ListLineRe = regexp.MustCompile(`^\s*(\d+)[).]?\s+\S`)

// ProminenceFactor scores how early and emphasized a mention of name is in text.
// The result starts at 1.0, earns bonuses for an early mention and a recommendation
// cue, adds the numbered-list rank term for the first 20 lines, and is clamped to
// [0.5, 1.5]. The rank term is 0 at rank 1 and negative below it, so a listed
// entity is never raised by its rank, only lowered for a late one.
func (l *Lexicon) ProminenceFactor(text, name string) float64 {
	l = l.orDefault()
	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(strings.TrimSpace(name))
	if lowerText == "" || lowerName == "" {
		return prominenceBase
	}

	factor := prominenceBase
	if idx := strings.Index(lowerText, lowerName); idx >= 0 && idx < earlyMentionWindow {
		factor += earlyMentionBonus
	}
	if containsAny(lowerText, l.RecommendationCues) {
		factor += recommendationBonus
	}
	if bonus, ok := listRankBonus(lowerText, lowerName); ok {
		factor += bonus
	}

	return clamp(factor, minProminence, maxProminence)
}

// listRankBonus returns the best 1/log2(1+rank)-1 over numbered lines that
// mention name, capped at maxListRankBonus. The value is at most 0. ok is false
// when no such line exists.
func listRankBonus(lowerText, lowerName string) (float64, bool) {
	lines := strings.Split(lowerText, "\n")
	if len(lines) > prominenceLinesWindow {
		lines = lines[:prominenceLinesWindow]
	}

	best := math.Inf(-1)
	for _, line := range lines {
		m := ListLineRe.FindStringSubmatch(line)
		if m == nil || !strings.Contains(line, lowerName) {
			continue
		}
		rank, err := strconv.Atoi(m[1])
		if err != nil || rank < 1 {
			continue
		}
		bonus := 1/math.Log2(1+float64(rank)) - 1
		best = math.Max(best, bonus)
	}
	if math.IsInf(best, -1) {
		return 0, false
	}
	return math.Min(best, maxListRankBonus), true
}
