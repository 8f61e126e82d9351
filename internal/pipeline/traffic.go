package pipeline

import (
	"context"

	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
)

// TrafficShare is an entity's share of the mentions across all entities of a run.
type TrafficShare struct {
	TotalMentions       int                        `json:"total_mentions"`
	ByProvider          map[providers.Name]int     `json:"by_provider"`
	// PlacementByProvider is the mean 1-based placement over the responses that
	// ranked the entity; 0 when it was never placed.
	PlacementByProvider map[providers.Name]float64 `json:"placement_by_provider"`
	SharePercent        float64                    `json:"share_percent"`
}

// ComputeAiTrafficShare splits the mentions of the shared industry prompts
// between the named entities. Names sharing a brand key are one entity, keyed by
// the first of them.
func (a *Analyzer) ComputeAiTrafficShare(ctx context.Context, names []string, industry string, opts QueryOptions) (map[string]TrafficShare, error) {
	responses, err := a.respond(ctx, industry, "", opts)
	if err != nil {
		return nil, err
	}
	return a.traffic(responses, uniqueEntities(names), industry, a.queried(opts)), nil
}

func (a *Analyzer) traffic(responses []providers.Response, names []string, industry string, queried []providers.Name) map[string]TrafficShare {
	keywords := domainKeywords(industry)
	want := make(map[providers.Name]bool, len(queried))
	for _, p := range queried {
		want[p] = true
	}

	type placement struct {
		sum, n int
	}
	out := make(map[string]TrafficShare, len(names))
	placements := make(map[string]map[providers.Name]*placement, len(names))
	for _, name := range names {
		ts := TrafficShare{
			ByProvider:          make(map[providers.Name]int, len(queried)),
			PlacementByProvider: make(map[providers.Name]float64, len(queried)),
		}
		placements[name] = make(map[providers.Name]*placement, len(queried))
		for _, p := range queried {
			ts.ByProvider[p] = 0
			ts.PlacementByProvider[p] = 0
			placements[name][p] = &placement{}
		}
		out[name] = ts
	}

	for _, r := range responses {
		if !r.Success || !want[r.Provider] {
			continue
		}
		ranked := scoring.RankCompetitorsInText(r.Text, names)
		for _, name := range names {
			ts := out[name]
			if m := a.lexicon.DetectMention(r.Text, name, keywords); m.Detected {
				ts.TotalMentions += m.Count
				ts.ByProvider[r.Provider] += m.Count
			}
			if pos := scoring.PlacementOf(ranked, name); pos > 0 {
				pl := placements[name][r.Provider]
				pl.sum += pos
				pl.n++
			}
			out[name] = ts
		}
	}

	totals := make(map[string]int, len(names))
	for _, name := range names {
		totals[name] = out[name].TotalMentions
	}
	shares := scoring.TrafficShares(totals)

	for _, name := range names {
		ts := out[name]
		ts.SharePercent = shares[name]
		for p, pl := range placements[name] {
			if pl.n > 0 {
				ts.PlacementByProvider[p] = float64(pl.sum) / float64(pl.n)
			}
		}
		out[name] = ts
	}
	return out
}
