package pipeline

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
	"github.com/jonathan/ai-visibility/internal/signals"
)

const responseSeparator = "\n\n---\n\n"

// SignalBreakdown is everything extracted for one entity from one provider.
type SignalBreakdown struct {
	Available     bool                           `json:"available"`
	Responses     int                            `json:"responses"`
	Successful    int                            `json:"successful"`
	Mentioning    int                            `json:"mentioning"`
	Raw           scoring.RawBundle              `json:"raw"`
	Normalized    scoring.NormalizedScore        `json:"normalized"`
	Sentiment     float64                        `json:"sentiment"`
	Sources       map[signals.SourceCategory]int `json:"sources"`
	ContentStyles map[signals.ContentStyle]int   `json:"content_styles"`
	Attributes    map[signals.Attribute]int      `json:"attributes"`
}

// KeyMetrics summarizes an entity across the providers that answered.
type KeyMetrics struct {
	AverageScore        float64 `json:"average_score"`  // 0-10
	ModelCoverage       float64 `json:"model_coverage"` // 0-100
	TotalMentions       int     `json:"total_mentions"`
	MentionRate         float64 `json:"mention_rate"` // % of successful responses
	AverageProminence   float64 `json:"average_prominence"`
	AverageSentiment    float64 `json:"average_sentiment"`
	ProvidersMentioning int     `json:"providers_mentioning"`
}

// EntityAnalysis is the per-provider AI visibility of one entity. Every LLM
// provider appears in AIScores and Breakdown, with zeros when it was unavailable.
type EntityAnalysis struct {
	Name            string                             `json:"name"`
	Key             string                             `json:"key"`
	AIScores        map[providers.Name]float64         `json:"ai_scores"`
	KeyMetrics      KeyMetrics                         `json:"key_metrics"`
	Breakdown       map[providers.Name]SignalBreakdown `json:"breakdown"`
	AnalysisText    map[providers.Name]string          `json:"analysis_text"`
	ModelsAvailable bool                               `json:"models_available"`
	ServiceStatus   map[providers.Name]bool            `json:"service_status"`
}

// AnalyzeEntity measures how the LLM providers talk about name. With no prompts
// the industry prompt set plus the entity prompts are used.
func (a *Analyzer) AnalyzeEntity(ctx context.Context, name, industry string, promptSet []string) (EntityAnalysis, error) {
	return a.AnalyzeEntityWith(ctx, name, industry, QueryOptions{Prompts: promptSet})
}

// AnalyzeEntityWith is AnalyzeEntity with control over the providers queried.
func (a *Analyzer) AnalyzeEntityWith(ctx context.Context, name, industry string, opts QueryOptions) (EntityAnalysis, error) {
	responses, err := a.respond(ctx, industry, name, opts)
	if err != nil {
		return EntityAnalysis{}, err
	}
	analyses := a.analyzeResponses(ctx, responses, []string{name}, industry, a.queried(opts))
	return analyses[0], nil
}

// analyzeResponses extracts signals for every entity and normalizes them against
// each other per provider. The result is in entity order.
func (a *Analyzer) analyzeResponses(ctx context.Context, responses []providers.Response, entities []string, industry string, queried []providers.Name) []EntityAnalysis {
	analyses := a.extractSignals(ctx, responses, entities, industry, queried)
	a.aggregate(analyses, queried)
	return analyses
}

// extractSignals builds the raw bundles of every entity. Entities are processed in
// parallel, each writing only its own slot.
func (a *Analyzer) extractSignals(ctx context.Context, responses []providers.Response, entities []string, industry string, queried []providers.Name) []EntityAnalysis {
	byProvider := providers.ByProvider(responses)
	keywords := domainKeywords(industry)
	status := a.registry.Status()

	available := make(map[providers.Name]bool, len(queried))
	for _, n := range queried {
		available[n] = true
	}

	texts := make(map[providers.Name]string, len(providers.LLMs))
	for _, p := range providers.LLMs {
		texts[p] = joinTexts(byProvider[p])
	}

	out := make([]EntityAnalysis, len(entities))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, name := range entities {
		g.Go(func() error {
			ea := EntityAnalysis{
				Name:          name,
				Key:           brand.NormalizeKey(name),
				AIScores:      make(map[providers.Name]float64, len(providers.LLMs)),
				Breakdown:     make(map[providers.Name]SignalBreakdown, len(providers.LLMs)),
				AnalysisText:  make(map[providers.Name]string, len(providers.LLMs)),
				ServiceStatus: make(map[providers.Name]bool, len(status)),
			}
			for p, ok := range status {
				ea.ServiceStatus[p] = ok
			}
			for _, p := range providers.LLMs {
				b := a.providerSignals(byProvider[p], name, keywords)
				b.Available = available[p]
				ea.Breakdown[p] = b
				ea.AIScores[p] = 0
				if b.Available {
					ea.AnalysisText[p] = texts[p]
				}
			}
			ea.ModelsAvailable = len(queried) > 0
			out[i] = ea
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// providerSignals accumulates one provider's responses for one entity.
func (a *Analyzer) providerSignals(responses []providers.Response, name string, keywords []string) SignalBreakdown {
	b := SignalBreakdown{
		Sources:       make(map[signals.SourceCategory]int),
		ContentStyles: make(map[signals.ContentStyle]int),
		Attributes:    make(map[signals.Attribute]int),
	}
	matcher := brand.NewMatcher(name)

	sentimentSum := 0.0
	for _, r := range responses {
		b.Responses++
		if !r.Success {
			continue
		}
		b.Successful++

		m := a.lexicon.DetectMention(r.Text, name, keywords)
		if !m.Detected {
			continue
		}
		b.Mentioning++
		b.Raw.Mentions += m.Count
		b.Raw.ProminenceSum += a.lexicon.ProminenceFactor(r.Text, name)
		b.Raw.BrandMentions += matcher.Count(r.Text)
		sentimentSum += a.lexicon.QuickSentimentScore(r.Text)

		for k, v := range a.lexicon.SourceBreakdown(r.Text) {
			b.Sources[k] += v
		}
		for k, v := range a.lexicon.ContentStyleCounts(r.Text) {
			b.ContentStyles[k] += v
		}
		for k, v := range a.lexicon.AttributeCounts(r.Text, name) {
			b.Attributes[k] += v
		}
	}
	if b.Mentioning > 0 {
		b.Raw.Sentiment = sentimentSum / float64(b.Mentioning)
	}
	b.Sentiment = b.Raw.Sentiment
	return b
}

// aggregate normalizes the raw bundles per provider across every entity in the run
// and fills the AI scores and key metrics.
func (a *Analyzer) aggregate(analyses []EntityAnalysis, queried []providers.Name) {
	for _, p := range queried {
		bundles := make(map[string]scoring.RawBundle, len(analyses))
		for i := range analyses {
			bundles[slot(i)] = analyses[i].Breakdown[p].Raw
		}
		normalized := scoring.NormalizeBundles(bundles, a.visibility)
		for i := range analyses {
			b := analyses[i].Breakdown[p]
			b.Normalized = normalized[slot(i)]
			analyses[i].Breakdown[p] = b
			analyses[i].AIScores[p] = b.Normalized.AIScore
		}
	}

	for i := range analyses {
		analyses[i].KeyMetrics = a.keyMetrics(analyses[i], queried)
	}
}

func (a *Analyzer) keyMetrics(ea EntityAnalysis, queried []providers.Name) KeyMetrics {
	var km KeyMetrics
	scores := make(map[string]float64, len(queried))
	sentiments := make(map[string]float64)
	successful, mentioning := 0, 0
	prominence := 0.0

	for _, p := range queried {
		b := ea.Breakdown[p]
		scores[string(p)] = ea.AIScores[p]
		km.TotalMentions += b.Raw.Mentions
		successful += b.Successful
		mentioning += b.Mentioning
		prominence += b.Raw.ProminenceSum
		if b.Mentioning > 0 {
			km.ProvidersMentioning++
			sentiments[string(p)] = b.Sentiment
		}
	}

	km.AverageScore = scoring.Average(scores)
	km.ModelCoverage = scoring.ModelCoverage(scores, a.coverageThreshold)
	km.AverageSentiment = scoring.Average(sentiments)
	if successful > 0 {
		km.MentionRate = float64(mentioning) / float64(successful) * 100
	}
	if mentioning > 0 {
		km.AverageProminence = prominence / float64(mentioning)
	}
	return km
}

// slot keys entities by position so two display names never collide in a score map.
func slot(i int) string {
	return strconv.Itoa(i)
}

func joinTexts(responses []providers.Response) string {
	var parts []string
	for _, r := range responses {
		if r.Success && strings.TrimSpace(r.Text) != "" {
			parts = append(parts, r.Text)
		}
	}
	return strings.Join(parts, responseSeparator)
}
