package scoring

import "math"

// RawBundle holds the raw signals for one entity from one provider, accumulated
// across every prompt of a run.
type RawBundle struct {
	Mentions      int     `json:"mentions"`
	ProminenceSum float64 `json:"prominence_sum"`
	Sentiment     float64 `json:"sentiment"` // mean sentiment in [-1, 1]
	BrandMentions int     `json:"brand_mentions"`
}

// HasEvidence reports whether the entity was seen at all.
func (b RawBundle) HasEvidence() bool {
	return b.Mentions > 0 || b.BrandMentions > 0
}

// NormalizedScore is a relative 0-100 score per metric family plus the weighted composite.
// AIScore is the composite on the 0-10 scale used everywhere scores are compared.
type NormalizedScore struct {
	Mentions   float64 `json:"mentions"`
	Prominence float64 `json:"prominence"`
	Sentiment  float64 `json:"sentiment"`
	Brand      float64 `json:"brand"`
	Composite  float64 `json:"composite"`
	AIScore    float64 `json:"ai_score"`
}

// NormalizeBundles scores every entity relative to the others for a single provider.
// Each family is divided by its maximum across all entities (at least 1) and scaled
// to 100, so the scores are relative ranks, not absolute quality. Sentiment maps
// linearly from [-1, 1] to [0, 100]. Entities without evidence score zero everywhere.
func NormalizeBundles(bundles map[string]RawBundle, w VisibilityWeights) map[string]NormalizedScore {
	out := make(map[string]NormalizedScore, len(bundles))
	if len(bundles) == 0 {
		return out
	}
	if w.IsZero() {
		w = DefaultVisibilityWeights()
	}

	mentions := make(map[string]float64, len(bundles))
	prominence := make(map[string]float64, len(bundles))
	brands := make(map[string]float64, len(bundles))
	for entity, b := range bundles {
		mentions[entity] = float64(b.Mentions)
		prominence[entity] = b.ProminenceSum
		brands[entity] = float64(b.BrandMentions)
	}
	mentions, prominence, brands = NormalizeValues(mentions), NormalizeValues(prominence), NormalizeValues(brands)

	for entity, b := range bundles {
		if !b.HasEvidence() {
			out[entity] = NormalizedScore{}
			continue
		}
		s := NormalizedScore{
			Mentions:   mentions[entity],
			Prominence: prominence[entity],
			Sentiment:  (clamp(finite(b.Sentiment), -1, 1) + 1) / 2 * 100,
			Brand:      brands[entity],
		}
		s.Composite = w.Mentions*s.Mentions + w.Prominence*s.Prominence + w.Sentiment*s.Sentiment + w.Brand*s.Brand
		s.AIScore = s.Composite / 10
		out[entity] = s
	}
	return out
}

// NormalizeValues maps raw values to 0-100 relative to their maximum (at least 1).
// Negative and non-finite values count as 0.
func NormalizeValues(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(raw))
	maxVal := 1.0
	for _, v := range raw {
		maxVal = math.Max(maxVal, finite(v))
	}
	for k, v := range raw {
		out[k] = math.Max(0, finite(v)) / maxVal * 100
	}
	return out
}

// ModelCoverage returns the percentage of providers whose AI score exceeds threshold.
func ModelCoverage(scores map[string]float64, threshold float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	covered := 0
	for _, s := range scores {
		if s > threshold {
			covered++
		}
	}
	return float64(covered) / float64(len(scores)) * 100
}

// Average returns the mean of the values, or 0 for none.
func Average(values map[string]float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += finite(v)
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// finite replaces NaN and infinities with 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
