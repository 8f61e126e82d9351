package scoring

import "math"

// RaviInput carries the four RAVI inputs in their native scales.
type RaviInput struct {
	AvgModelScore float64 `json:"avg_model_score"` // 0-10
	TrafficShare  float64 `json:"traffic_share"`   // 0-100
	CitationScore float64 `json:"citation_score"`  // 0-1
	ModelCoverage float64 `json:"model_coverage"`  // 0-100
}

// RaviComponents are the pre-weight inputs, each rescaled and clamped to 0-100.
type RaviComponents struct {
	AvgModel float64 `json:"avg_model"`
	Traffic  float64 `json:"traffic"`
	Citation float64 `json:"citation"`
	Coverage float64 `json:"coverage"`
}

// Ravi is the Relative AI Visibility Index for one entity.
type Ravi struct {
	Raw        float64        `json:"raw"`
	Rounded    int            `json:"rounded"`
	Components RaviComponents `json:"components"`
}

// ComputeRavi blends the rescaled components with w and clamps the result to [0, 100].
// Zero weights fall back to the defaults.
func ComputeRavi(in RaviInput, w RaviWeights) Ravi {
	if w.IsZero() {
		w = DefaultRaviWeights()
	}

	c := RaviComponents{
		AvgModel: clamp(finite(in.AvgModelScore)*10, 0, 100),
		Traffic:  clamp(finite(in.TrafficShare), 0, 100),
		Citation: clamp(finite(in.CitationScore)*100, 0, 100),
		Coverage: clamp(finite(in.ModelCoverage), 0, 100),
	}

	raw := clamp(w.AvgModel*c.AvgModel+w.Traffic*c.Traffic+w.Citation*c.Citation+w.Coverage*c.Coverage, 0, 100)
	return Ravi{
		Raw:        raw,
		Rounded:    int(math.Round(raw)),
		Components: c,
	}
}
