package pipeline

import (
	"context"

	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
	"github.com/jonathan/ai-visibility/internal/signals"
)

// CitationReport is the citation metric of one entity.
type CitationReport struct {
	PerProvider map[providers.Name]scoring.ProviderCitation `json:"per_provider"`
	Global      scoring.GlobalCitation                      `json:"global"`
}

// ComputeCitationMetrics measures how often, how warmly and how prominently each
// entity is cited across the shared industry prompts. Names sharing a brand key
// are merged under the first of them.
func (a *Analyzer) ComputeCitationMetrics(ctx context.Context, names []string, industry string, opts QueryOptions) (map[string]CitationReport, error) {
	responses, err := a.respond(ctx, industry, "", opts)
	if err != nil {
		return nil, err
	}
	return a.citations(responses, uniqueEntities(names), industry, a.queried(opts)), nil
}

// citations counts every response of a queried provider as a query, failed or not.
func (a *Analyzer) citations(responses []providers.Response, names []string, industry string, queried []providers.Name) map[string]CitationReport {
	keywords := domainKeywords(industry)
	out := make(map[string]CitationReport, len(names))

	for _, name := range names {
		perProvider := make(map[providers.Name]scoring.ProviderCitation, len(queried))
		for _, p := range queried {
			perProvider[p] = scoring.ProviderCitation{}
		}

		for _, r := range responses {
			pc, ok := perProvider[r.Provider]
			if !ok {
				continue
			}
			m := a.lexicon.DetectMention(r.Text, name, keywords)
			if r.Success && m.Detected {
				weight := signals.SentimentWeightFromScore(a.lexicon.QuickSentimentScore(r.Text))
				pc.Observe(m.Count, weight, a.lexicon.ProminenceFactor(r.Text, name))
			} else {
				pc.Observe(0, 0, 0)
			}
			perProvider[r.Provider] = pc
		}

		global := make(map[string]scoring.ProviderCitation, len(perProvider))
		for p, pc := range perProvider {
			global[string(p)] = pc
		}
		out[name] = CitationReport{PerProvider: perProvider, Global: scoring.Globalize(global)}
	}
	return out
}
