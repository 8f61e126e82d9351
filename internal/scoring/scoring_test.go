package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBundles_RelativeDenominator(t *testing.T) {
	got := NormalizeBundles(map[string]RawBundle{
		"Acme":   {Mentions: 10, ProminenceSum: 12, Sentiment: 1, BrandMentions: 4},
		"Globex": {Mentions: 0},
	}, DefaultVisibilityWeights())

	assert.InDelta(t, 100, got["Acme"].Mentions, 1e-9)
	assert.InDelta(t, 0, got["Globex"].Mentions, 1e-9)
	assert.Equal(t, NormalizedScore{}, got["Globex"])
}

func TestNormalizeBundles_SingleEntityIsAlways100(t *testing.T) {
	got := NormalizeBundles(map[string]RawBundle{
		"Acme": {Mentions: 5, ProminenceSum: 5, Sentiment: 0, BrandMentions: 2},
	}, VisibilityWeights{})

	s := got["Acme"]
	assert.InDelta(t, 100, s.Mentions, 1e-9)
	assert.InDelta(t, 100, s.Prominence, 1e-9)
	assert.InDelta(t, 50, s.Sentiment, 1e-9)
	assert.InDelta(t, 100, s.Brand, 1e-9)
	// 0.35*100 + 0.30*100 + 0.20*50 + 0.15*100
	assert.InDelta(t, 90, s.Composite, 1e-9)
	assert.InDelta(t, 9, s.AIScore, 1e-9)
}

func TestNormalizeBundles_MinimumDenominator(t *testing.T) {
	got := NormalizeBundles(map[string]RawBundle{
		"Acme": {Mentions: 0, ProminenceSum: 0.5, BrandMentions: 1},
	}, DefaultVisibilityWeights())

	assert.InDelta(t, 50, got["Acme"].Prominence, 1e-9)
}

func TestNormalizeBundles_Empty(t *testing.T) {
	assert.Empty(t, NormalizeBundles(nil, DefaultVisibilityWeights()))
}

func TestNormalizeValues(t *testing.T) {
	got := NormalizeValues(map[string]float64{"a": 4, "b": 2, "c": math.NaN()})
	assert.InDelta(t, 100, got["a"], 1e-9)
	assert.InDelta(t, 50, got["b"], 1e-9)
	assert.InDelta(t, 0, got["c"], 1e-9)
}

func TestModelCoverage(t *testing.T) {
	assert.InDelta(t, 50, ModelCoverage(map[string]float64{"gemini": 6, "claude": 0, "chatgpt": 0.5, "perplexity": 3}, 0.5), 1e-9)
	assert.Equal(t, 0.0, ModelCoverage(nil, 0.5))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultVisibilityWeights().Validate())
	require.NoError(t, DefaultRaviWeights().Validate())

	assert.Error(t, VisibilityWeights{Mentions: -1, Brand: 2}.Validate())
	assert.Error(t, RaviWeights{}.Validate())
}

func TestContribution(t *testing.T) {
	assert.Equal(t, 0.0, Contribution(0, 1, 1.5))
	assert.InDelta(t, 0.6, Contribution(3, 0.6, 1.0), 1e-9)
	assert.Equal(t, 1.0, Contribution(1, 1.0, 1.5))
	assert.Equal(t, 0.0, Contribution(1, -1, 1))
}

func TestProviderCitation_Observe(t *testing.T) {
	var p ProviderCitation
	p.Observe(2, 1.0, 1.2) // clamped to 1
	p.Observe(0, 0, 0)
	p.Observe(1, 0.6, 1.0)
	p.Observe(0, 0, 0)

	assert.Equal(t, 4, p.Queries)
	assert.Equal(t, 2, p.Mentions)
	assert.InDelta(t, 1.6, p.Sum, 1e-9)
	assert.InDelta(t, 0.4, p.Score, 1e-9)
}

func TestGlobalize(t *testing.T) {
	g := Globalize(map[string]ProviderCitation{
		"gemini":  {Sum: 3, Queries: 10, Mentions: 4, Score: 0.3},
		"claude":  {Sum: 1, Queries: 2, Mentions: 1, Score: 0.5},
		"chatgpt": {},
	})

	assert.InDelta(t, 4.0/12.0, g.VolumeWeighted, 1e-9)
	assert.InDelta(t, 0.4, g.EqualWeighted, 1e-9)
	assert.InDelta(t, 5.0/12.0, g.RawRate, 1e-9)
	assert.InDelta(t, 6.0/14.0, g.SmoothedRate, 1e-9)
	assert.InDelta(t, 0.1, g.Confidence, 1e-9)
	assert.Equal(t, 12, g.Queries)
	assert.Equal(t, 5, g.Mentions)
}

func TestGlobalize_Empty(t *testing.T) {
	g := Globalize(nil)
	assert.Equal(t, 0.0, g.VolumeWeighted)
	assert.Equal(t, 0.0, g.EqualWeighted)
	assert.InDelta(t, 0.5, g.SmoothedRate, 1e-9)
}

func TestSmoothedRate(t *testing.T) {
	assert.InDelta(t, 0.0833, SmoothedRate(0, 10), 1e-4)
	assert.InDelta(t, 0.9167, SmoothedRate(10, 10), 1e-4)

	for q := 1; q <= 20; q++ {
		for m := 0; m <= q; m++ {
			raw := float64(m) / float64(q)
			smoothed := SmoothedRate(m, q)
			assert.LessOrEqual(t, math.Abs(smoothed-0.5), math.Abs(raw-0.5)+1e-12)
		}
	}
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0))
	assert.InDelta(t, 0.5, Confidence(25), 1e-9)
	assert.Equal(t, 1.0, Confidence(500))
}

func TestComputeRavi_Clamp(t *testing.T) {
	r := ComputeRavi(RaviInput{AvgModelScore: 12}, DefaultRaviWeights())

	assert.InDelta(t, 100, r.Components.AvgModel, 1e-9)
	assert.InDelta(t, 40, r.Raw, 1e-9)
	assert.Equal(t, 40, r.Rounded)
}

func TestComputeRavi_Blend(t *testing.T) {
	r := ComputeRavi(RaviInput{
		AvgModelScore: 7.5,
		TrafficShare:  40,
		CitationScore: 0.5,
		ModelCoverage: 75,
	}, RaviWeights{})

	// 0.40*75 + 0.25*40 + 0.20*50 + 0.15*75
	assert.InDelta(t, 61.25, r.Raw, 1e-9)
	assert.Equal(t, 61, r.Rounded)
	assert.Equal(t, RaviComponents{AvgModel: 75, Traffic: 40, Citation: 50, Coverage: 75}, r.Components)
}

func TestComputeRavi_NegativeAndNaN(t *testing.T) {
	r := ComputeRavi(RaviInput{AvgModelScore: -5, TrafficShare: math.NaN(), CitationScore: -1, ModelCoverage: 300}, DefaultRaviWeights())

	assert.InDelta(t, 15, r.Raw, 1e-9)
	assert.GreaterOrEqual(t, r.Raw, 0.0)
	assert.LessOrEqual(t, r.Raw, 100.0)
}

func TestRankCompetitorsInText_NumberedList(t *testing.T) {
	got := RankCompetitorsInText("1. Acme\n2. Globex\n3. Initech", []string{"Initech", "Acme", "Globex"})
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, got)
}

func TestRankCompetitorsInText_ListCappedAtThree(t *testing.T) {
	text := "Top picks:\n1) Globex\n2) Acme\n3) Initech\n4) Umbrella"
	got := RankCompetitorsInText(text, []string{"Acme", "Globex", "Initech", "Umbrella"})
	assert.Equal(t, []string{"Globex", "Acme", "Initech"}, got)
}

func TestRankCompetitorsInText_FallsBackToPosition(t *testing.T) {
	text := "Many shoppers like Initech, though Acme is cheaper. Globex is absent? No: Globex too.\n1. Acme"
	got := RankCompetitorsInText(text, []string{"Acme", "Globex", "Initech", "Hooli"})
	assert.Equal(t, []string{"Initech", "Acme", "Globex"}, got)
}

func TestRankCompetitorsInText_Empty(t *testing.T) {
	assert.Empty(t, RankCompetitorsInText("", []string{"Acme"}))
	assert.Empty(t, RankCompetitorsInText("Acme", nil))
}

func TestPlacementOf(t *testing.T) {
	ranked := []string{"Acme", "Globex"}
	assert.Equal(t, 2, PlacementOf(ranked, "globex"))
	assert.Equal(t, 0, PlacementOf(ranked, "Initech"))
}

func TestTrafficShares(t *testing.T) {
	got := TrafficShares(map[string]int{"Acme": 3, "Globex": 1, "Initech": 0})
	assert.InDelta(t, 75, got["Acme"], 1e-9)
	assert.InDelta(t, 25, got["Globex"], 1e-9)
	assert.InDelta(t, 0, got["Initech"], 1e-9)

	zero := TrafficShares(map[string]int{"Acme": 0})
	assert.Equal(t, 0.0, zero["Acme"])
}
