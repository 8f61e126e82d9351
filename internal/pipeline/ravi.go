package pipeline

import "github.com/jonathan/ai-visibility/internal/scoring"

// ComputeRavi blends the four RAVI inputs with the configured weights.
func (a *Analyzer) ComputeRavi(in scoring.RaviInput) scoring.Ravi {
	return scoring.ComputeRavi(in, a.ravi)
}

// RaviInputFor assembles the RAVI inputs of one entity. The citation input is the
// volume-weighted global score.
func RaviInputFor(analysis EntityAnalysis, citation CitationReport, traffic TrafficShare) scoring.RaviInput {
	return scoring.RaviInput{
		AvgModelScore: analysis.KeyMetrics.AverageScore,
		TrafficShare:  traffic.SharePercent,
		CitationScore: citation.Global.VolumeWeighted,
		ModelCoverage: analysis.KeyMetrics.ModelCoverage,
	}
}
