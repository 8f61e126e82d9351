package discovery

import (
	"sort"
	"strings"

	"github.com/jonathan/ai-visibility/internal/brand"
)

// Candidate is a merged competitor name with the number of lists it appeared in.
type Candidate struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Frequency int    `json:"frequency"`
	FirstSeen int    `json:"first_seen"`
	// Score is the validation score, or -1 when the candidate was not scored.
	Score float64 `json:"score"`
}

// RankCandidates merges names from several strategy lists by brand key. Every
// occurrence adds one to the frequency and FirstSeen is the earliest position in
// the concatenated input. A plain display name wins over a domain-looking one.
// The result is ordered by frequency descending, then FirstSeen ascending.
func RankCandidates(lists [][]string) []Candidate {
	type slot struct {
		c          Candidate
		domainLike bool
	}

	byKey := make(map[string]*slot)
	var order []string
	pos := 0

	for _, list := range lists {
		for _, raw := range list {
			name := strings.TrimSpace(raw)
			key := brand.NormalizeKey(name)
			if key == "" {
				continue
			}
			domainLike := brand.LooksLikeDomain(name)

			if s, ok := byKey[key]; ok {
				s.c.Frequency++
				if s.domainLike && !domainLike {
					s.c.Name = name
					s.domainLike = false
				}
			} else {
				display := name
				if domainLike {
					if pretty := brand.PrettifyDomainLabel(name); pretty != "" {
						display = pretty
					}
				}
				byKey[key] = &slot{
					c:          Candidate{Name: display, Key: key, Frequency: 1, FirstSeen: pos, Score: -1},
					domainLike: domainLike,
				}
				order = append(order, key)
			}
			pos++
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key].c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].FirstSeen < out[j].FirstSeen
	})
	return out
}

func names(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Name
	}
	return out
}
