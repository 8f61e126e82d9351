package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
)

func TestPrintCompetitors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := &discovery.Result{
		Competitors: []string{"H&M", "Uniqlo"},
		Candidates: []discovery.Candidate{
			{Name: "H&M", Key: "hm", Frequency: 3, Score: 8.5},
			{Name: "Uniqlo", Key: "uniqlo", Frequency: 1, Score: -1},
		},
		Trace: discovery.Trace{
			Bucket:               "fashion",
			Stages:               []discovery.StageTrace{{Stage: discovery.StageFrequencyRanking, Candidates: 2}},
			ValidationFailedOpen: true,
		},
	}

	p.PrintCompetitors("Zara", result)
	output := buf.String()

	assert.Contains(t, output, "DISCOVERED COMPETITORS")
	assert.Contains(t, output, "Zara")
	assert.Contains(t, output, "fashion")
	assert.Contains(t, output, "H&M (seen 3, score 8.5)")
	assert.Contains(t, output, "Uniqlo (seen 1)")
	assert.Contains(t, output, "frequency-ranking")
	assert.Contains(t, output, "validation unavailable")
}

func TestPrintCompetitors_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCompetitors("Zara", nil)

	assert.Empty(t, buf.String())
}

func TestPrintEntityAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ea := &pipeline.EntityAnalysis{
		Name:            "Etsy",
		Key:             "etsy",
		ModelsAvailable: true,
		AIScores:        map[providers.Name]float64{providers.Gemini: 7.25},
		Breakdown: map[providers.Name]pipeline.SignalBreakdown{
			providers.Gemini: {Available: true, Responses: 4, Mentioning: 3},
		},
		KeyMetrics: pipeline.KeyMetrics{AverageScore: 7.25, ModelCoverage: 100, TotalMentions: 5, MentionRate: 75},
	}

	p.PrintEntityAnalysis(ea)
	output := buf.String()

	assert.Contains(t, output, "AI VISIBILITY")
	assert.Contains(t, output, "Etsy (etsy)")
	assert.Contains(t, output, "7.25")
	assert.Contains(t, output, "(3/4 mentioning)")
	assert.Contains(t, output, "n/a")
	assert.Contains(t, output, "75.0% of responses")
}

func TestPrintEntityAnalysis_NoModels(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEntityAnalysis(&pipeline.EntityAnalysis{Name: "Etsy", Key: "etsy"})

	assert.Contains(t, buf.String(), "No AI models available")
}

func TestPrintCitations_Ordered(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCitations(map[string]pipeline.CitationReport{
		"eBay": {Global: scoring.GlobalCitation{VolumeWeighted: 0.2}},
		"Etsy": {Global: scoring.GlobalCitation{VolumeWeighted: 0.6, SmoothedRate: 0.5}},
	})
	output := buf.String()

	assert.Contains(t, output, "CITATION METRICS")
	assert.Less(t, strings.Index(output, "Etsy"), strings.Index(output, "eBay"))
	assert.Contains(t, output, "50.0%")
}

func TestPrintTrafficShare(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTrafficShare(map[string]pipeline.TrafficShare{
		"Etsy": {SharePercent: 75},
		"eBay": {SharePercent: 25},
	})
	output := buf.String()

	assert.Contains(t, output, "AI TRAFFIC SHARE")
	assert.Contains(t, output, "75.00% "+strings.Repeat("█", 15))
	assert.Less(t, strings.Index(output, "Etsy"), strings.Index(output, "eBay"))
}

func TestPrintTrafficShare_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintTrafficShare(nil)

	assert.Empty(t, buf.String())
}

func TestPrintRavi(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintRavi("Etsy", scoring.Ravi{Raw: 61.4, Rounded: 61, Components: scoring.RaviComponents{AvgModel: 72.5}})
	output := buf.String()

	assert.Contains(t, output, "RAVI:     61 (61.40)")
	assert.Contains(t, output, "72.50")
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	report := &pipeline.Report{
		Company:         "Etsy",
		Industry:        "handmade goods",
		ModelsAvailable: true,
		Entities: []pipeline.EntityReport{
			{Name: "Etsy", IsTarget: true, Ravi: scoring.Ravi{Rounded: 64}},
			{Name: "eBay", Ravi: scoring.Ravi{Rounded: 38}},
		},
		Steps: []pipeline.StepStatus{
			{Step: "query_providers", Status: db.StepStatusCompleted},
			{Step: "persist_metrics", Status: db.StepStatusFailed, Error: "connection refused"},
		},
	}

	p.PrintReport(report)
	output := buf.String()

	assert.Contains(t, output, "COMPETITOR VISIBILITY REPORT")
	assert.Contains(t, output, "handmade goods")
	assert.Contains(t, output, "* Etsy")
	assert.Contains(t, output, "   38")
	assert.Contains(t, output, "FAILED STEPS")
	assert.Contains(t, output, "connection refused")
	assert.NotContains(t, output, "query_providers")
}

func TestPrintSteps_AllCompleted(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSteps([]pipeline.StepStatus{{Step: "aggregate_scores", Status: db.StepStatusCompleted}})

	assert.Contains(t, buf.String(), "ALL STEPS COMPLETED")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}
