package scoring

import "math"

// confidenceMentions is the mention count at which citation confidence saturates.
const confidenceMentions = 50.0

// Contribution is one response's contribution to a citation score:
// min(1, min(1, count) * sentimentWeight * prominence), never negative.
func Contribution(mentionCount int, sentimentWeight, prominence float64) float64 {
	if mentionCount <= 0 {
		return 0
	}
	c := math.Min(1, float64(mentionCount)) * finite(sentimentWeight) * finite(prominence)
	return clamp(c, 0, 1)
}

// ProviderCitation accumulates citation evidence for one entity from one provider.
type ProviderCitation struct {
	Sum      float64 `json:"sum"`
	Queries  int     `json:"queries"`
	Mentions int     `json:"mentions"`
	Score    float64 `json:"score"`
}

// Observe records one issued query. mentionCount is zero when the entity was not cited.
func (p *ProviderCitation) Observe(mentionCount int, sentimentWeight, prominence float64) {
	p.Queries++
	if mentionCount > 0 {
		p.Mentions++
		p.Sum += Contribution(mentionCount, sentimentWeight, prominence)
	}
	p.Score = p.Sum / float64(p.Queries)
}

// GlobalCitation aggregates an entity's citation evidence across providers.
type GlobalCitation struct {
	VolumeWeighted float64 `json:"volume_weighted"`
	EqualWeighted  float64 `json:"equal_weighted"`
	RawRate        float64 `json:"raw_rate"`
	SmoothedRate   float64 `json:"smoothed_rate"`
	Confidence     float64 `json:"confidence"`
	Mentions       int     `json:"mentions"`
	Queries        int     `json:"queries"`
}

// Globalize computes both global variants: volume-weighted sum(Sum)/sum(Queries) and
// the equal-weighted mean of per-provider scores over providers that were queried.
func Globalize(perProvider map[string]ProviderCitation) GlobalCitation {
	var g GlobalCitation
	sum, scoreSum, queried := 0.0, 0.0, 0
	for _, p := range perProvider {
		if p.Queries <= 0 {
			continue
		}
		sum += p.Sum
		scoreSum += p.Score
		queried++
		g.Queries += p.Queries
		g.Mentions += p.Mentions
	}
	if g.Queries > 0 {
		g.VolumeWeighted = sum / float64(g.Queries)
		g.RawRate = float64(g.Mentions) / float64(g.Queries)
	}
	if queried > 0 {
		g.EqualWeighted = scoreSum / float64(queried)
	}
	g.SmoothedRate = SmoothedRate(g.Mentions, g.Queries)
	g.Confidence = Confidence(g.Mentions)
	return g
}

// SmoothedRate is the Laplace-smoothed (alpha=1) mention rate (m+1)/(q+2).
func SmoothedRate(mentions, queries int) float64 {
	return float64(max(0, mentions)+1) / float64(max(0, queries)+2)
}

// Confidence is min(1, mentions/50).
func Confidence(mentions int) float64 {
	return clamp(float64(mentions)/confidenceMentions, 0, 1)
}
