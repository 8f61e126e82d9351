// Package scoring turns raw per-provider signals into normalized, weighted scores:
// the 0-10 AI score, citation metrics, traffic share and the RAVI composite index.
//
// All functions return zero-valued results for empty or malformed input.
package scoring

import "fmt"

// Default visibility weights (mentions, prominence, sentiment, brand).
const (
	DefaultMentionsWeight   = 0.35
	DefaultProminenceWeight = 0.30
	DefaultSentimentWeight  = 0.20
	DefaultBrandWeight      = 0.15
)

// Default RAVI weights (avg model score, traffic share, citation score, model coverage).
const (
	DefaultAvgModelWeight = 0.40
	DefaultTrafficWeight  = 0.25
	DefaultCitationWeight = 0.20
	DefaultCoverageWeight = 0.15
)

// VisibilityWeights blends the four normalized metric families into the composite score.
type VisibilityWeights struct {
	Mentions   float64 `json:"mentions"`
	Prominence float64 `json:"prominence"`
	Sentiment  float64 `json:"sentiment"`
	Brand      float64 `json:"brand"`
}

// DefaultVisibilityWeights returns 0.35/0.30/0.20/0.15.
func DefaultVisibilityWeights() VisibilityWeights {
	return VisibilityWeights{
		Mentions:   DefaultMentionsWeight,
		Prominence: DefaultProminenceWeight,
		Sentiment:  DefaultSentimentWeight,
		Brand:      DefaultBrandWeight,
	}
}

// IsZero reports whether no weight has been set.
func (w VisibilityWeights) IsZero() bool {
	return w == VisibilityWeights{}
}

// Validate rejects negative weights and an all-zero set.
func (w VisibilityWeights) Validate() error {
	return validateWeights("visibility", map[string]float64{
		"mentions": w.Mentions, "prominence": w.Prominence, "sentiment": w.Sentiment, "brand": w.Brand,
	})
}

// RaviWeights blends the four RAVI components.
type RaviWeights struct {
	AvgModel float64 `json:"avg_model"`
	Traffic  float64 `json:"traffic"`
	Citation float64 `json:"citation"`
	Coverage float64 `json:"coverage"`
}

// DefaultRaviWeights returns 0.40/0.25/0.20/0.15.
func DefaultRaviWeights() RaviWeights {
	return RaviWeights{
		AvgModel: DefaultAvgModelWeight,
		Traffic:  DefaultTrafficWeight,
		Citation: DefaultCitationWeight,
		Coverage: DefaultCoverageWeight,
	}
}

// IsZero reports whether no weight has been set.
func (w RaviWeights) IsZero() bool {
	return w == RaviWeights{}
}

// Validate rejects negative weights and an all-zero set.
func (w RaviWeights) Validate() error {
	return validateWeights("ravi", map[string]float64{
		"avg_model": w.AvgModel, "traffic": w.Traffic, "citation": w.Citation, "coverage": w.Coverage,
	})
}

func validateWeights(family string, weights map[string]float64) error {
	total := 0.0
	for name, v := range weights {
		if v < 0 {
			return fmt.Errorf("%s weight %q must be non-negative, got %v", family, name, v)
		}
		total += v
	}
	if total == 0 {
		return fmt.Errorf("%s weights must not all be zero", family)
	}
	return nil
}
