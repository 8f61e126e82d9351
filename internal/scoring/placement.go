package scoring

import (
	"sort"
	"strings"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/signals"
)

const (
	placementLinesWindow = 50
	placementListLimit   = 3
	minListPlacements    = 2
)

// RankCompetitorsInText orders entities by where a response places them.
// Numbered list lines in the first 50 lines win: the first three distinct entities
// in list order. When the list yields fewer than two, every entity that appears is
// ordered by the position of its first alias match instead.
func RankCompetitorsInText(text string, entities []string) []string {
	if strings.TrimSpace(text) == "" || len(entities) == 0 {
		return nil
	}

	matchers := make([]*brand.Matcher, 0, len(entities))
	for _, e := range entities {
		if strings.TrimSpace(e) != "" {
			matchers = append(matchers, brand.NewMatcher(e))
		}
	}

	if ranked := rankFromList(text, matchers); len(ranked) >= minListPlacements {
		return ranked
	}
	return rankByPosition(text, matchers)
}

func rankFromList(text string, matchers []*brand.Matcher) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > placementLinesWindow {
		lines = lines[:placementLinesWindow]
	}

	seen := make(map[string]bool)
	var ranked []string
	for _, line := range lines {
		if !signals.ListLineRe.MatchString(line) {
			continue
		}
		best, bestIdx := "", -1
		for _, m := range matchers {
			if seen[m.Name()] {
				continue
			}
			if idx := m.FirstIndex(line); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
				best, bestIdx = m.Name(), idx
			}
		}
		if bestIdx < 0 {
			continue
		}
		seen[best] = true
		ranked = append(ranked, best)
		if len(ranked) == placementListLimit {
			break
		}
	}
	return ranked
}

func rankByPosition(text string, matchers []*brand.Matcher) []string {
	type hit struct {
		name string
		idx  int
	}
	lower := strings.ToLower(text)
	var hits []hit
	for _, m := range matchers {
		if idx := m.FirstIndex(lower); idx >= 0 {
			hits = append(hits, hit{m.Name(), idx})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].idx < hits[j].idx })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

// PlacementOf returns the 1-based placement of entity in ranked, or 0 when absent.
func PlacementOf(ranked []string, entity string) int {
	for i, name := range ranked {
		if strings.EqualFold(name, entity) {
			return i + 1
		}
	}
	return 0
}

// TrafficShares converts mention totals into each entity's percentage of all mentions.
func TrafficShares(mentions map[string]int) map[string]float64 {
	out := make(map[string]float64, len(mentions))
	total := 0
	for _, m := range mentions {
		total += max(0, m)
	}
	for name, m := range mentions {
		if total == 0 {
			out[name] = 0
			continue
		}
		out[name] = float64(max(0, m)) / float64(total) * 100
	}
	return out
}
