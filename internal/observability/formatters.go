// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to n runes, ending in "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintCompetitors outputs the discovered competitors and how they were found.
func (p *Printer) PrintCompetitors(company string, result *discovery.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", company))
	if result.Trace.Bucket != "" {
		sb.WriteString(fmt.Sprintf("Bucket:   %s\n", result.Trace.Bucket))
	}
	sb.WriteString("\n")

	if len(result.Competitors) == 0 {
		sb.WriteString("No competitors found\n")
	}
	for i, name := range result.Competitors {
		sb.WriteString(fmt.Sprintf("%2d. %s", i+1, name))
		if idx := slices.IndexFunc(result.Candidates, func(c discovery.Candidate) bool { return c.Name == name }); idx >= 0 {
			if c := result.Candidates[idx]; c.Score >= 0 {
				sb.WriteString(fmt.Sprintf(" (seen %d, score %.1f)", c.Frequency, c.Score))
			} else {
				sb.WriteString(fmt.Sprintf(" (seen %d)", c.Frequency))
			}
		}
		sb.WriteString("\n")
	}

	if len(result.Trace.Stages) > 0 {
		sb.WriteString("\nStages:\n")
		for _, st := range result.Trace.Stages {
			sb.WriteString(fmt.Sprintf("  • %-12s %3d", st.Stage, st.Candidates))
			if st.Note != "" {
				sb.WriteString("  " + st.Note)
			}
			sb.WriteString("\n")
		}
	}
	if result.Trace.ValidationFailedOpen {
		sb.WriteString("\n⚠ validation unavailable, kept unscored candidates\n")
	}

	p.printBox("DISCOVERED COMPETITORS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEntityAnalysis outputs per-provider AI scores and the key metrics.
func (p *Printer) PrintEntityAnalysis(ea *pipeline.EntityAnalysis) {
	if ea == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entity:   %s (%s)\n\n", ea.Name, ea.Key))

	if !ea.ModelsAvailable {
		sb.WriteString("No AI models available\n")
	} else {
		sb.WriteString("AI Scores:\n")
		for _, name := range providers.LLMs {
			b := ea.Breakdown[name]
			if !b.Available {
				sb.WriteString(fmt.Sprintf("  %-11s  n/a\n", name))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %-11s %5.2f  (%d/%d mentioning)\n", name, ea.AIScores[name], b.Mentioning, b.Responses))
		}
		sb.WriteString("\n")
	}

	km := ea.KeyMetrics
	sb.WriteString(fmt.Sprintf("Average score:   %.2f\n", km.AverageScore))
	sb.WriteString(fmt.Sprintf("Model coverage:  %.1f%%\n", km.ModelCoverage))
	sb.WriteString(fmt.Sprintf("Mentions:        %d (%.1f%% of responses)\n", km.TotalMentions, km.MentionRate))
	sb.WriteString(fmt.Sprintf("Sentiment:       %.2f", km.AverageSentiment))

	p.printBox("AI VISIBILITY", sb.String())
}

// PrintCitations outputs the global citation scores, best first.
func (p *Printer) PrintCitations(reports map[string]pipeline.CitationReport) {
	if len(reports) == 0 {
		return
	}

	names := sortedBy(reports, func(r pipeline.CitationReport) float64 { return r.Global.VolumeWeighted })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %8s %8s %8s\n", "Entity", "Score", "Rate", "Conf"))
	for _, name := range names {
		g := reports[name].Global
		sb.WriteString(fmt.Sprintf("%-20s %8.3f %7.1f%% %8.2f\n", truncate(name, 20), g.VolumeWeighted, g.SmoothedRate*100, g.Confidence))
	}

	p.printBox("CITATION METRICS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTrafficShare outputs each entity's share of AI mentions as a bar.
func (p *Printer) PrintTrafficShare(shares map[string]pipeline.TrafficShare) {
	if len(shares) == 0 {
		return
	}

	names := sortedBy(shares, func(s pipeline.TrafficShare) float64 { return s.SharePercent })

	var sb strings.Builder
	for _, name := range names {
		s := shares[name]
		bar := strings.Repeat("█", int(s.SharePercent/5))
		sb.WriteString(fmt.Sprintf("%-16s %6.2f%% %s\n", truncate(name, 16), s.SharePercent, bar))
	}

	p.printBox("AI TRAFFIC SHARE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRavi outputs a RAVI score and its components.
func (p *Printer) PrintRavi(entity string, ravi scoring.Ravi) {
	var sb strings.Builder
	if entity != "" {
		sb.WriteString(fmt.Sprintf("Entity:   %s\n", entity))
	}
	sb.WriteString(fmt.Sprintf("RAVI:     %d (%.2f)\n\n", ravi.Rounded, ravi.Raw))
	sb.WriteString(fmt.Sprintf("  Avg model  %6.2f\n", ravi.Components.AvgModel))
	sb.WriteString(fmt.Sprintf("  Traffic    %6.2f\n", ravi.Components.Traffic))
	sb.WriteString(fmt.Sprintf("  Citation   %6.2f\n", ravi.Components.Citation))
	sb.WriteString(fmt.Sprintf("  Coverage   %6.2f", ravi.Components.Coverage))

	p.printBox("RAVI", sb.String())
}

// PrintReport outputs the report summary table and any failed steps.
func (p *Printer) PrintReport(report *pipeline.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", report.Company))
	if report.Industry != "" {
		sb.WriteString(fmt.Sprintf("Industry: %s\n", report.Industry))
	}
	if report.Page != nil && report.Page.Description != "" {
		sb.WriteString(fmt.Sprintf("About:    %s\n", report.Page.Description))
	}
	sb.WriteString(fmt.Sprintf("Run:      %s\n\n", report.RunID))

	if !report.ModelsAvailable {
		sb.WriteString("⚠ no AI models available, scores are zero\n\n")
	}

	sb.WriteString(fmt.Sprintf("%-18s %6s %6s %6s %5s\n", "Entity", "AI", "Cite", "Share", "RAVI"))
	count := min(len(report.Entities), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		e := report.Entities[i]
		name := truncate(e.Name, 16)
		if e.IsTarget {
			name = "* " + name
		} else {
			name = "  " + name
		}
		sb.WriteString(fmt.Sprintf("%-18s %6.2f %6.3f %5.1f%% %5d\n",
			name, e.Analysis.KeyMetrics.AverageScore, e.Citation.Global.VolumeWeighted, e.Traffic.SharePercent, e.Ravi.Rounded))
	}
	if len(report.Entities) > count {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Entities)-count))
	}

	p.printBox("COMPETITOR VISIBILITY REPORT", strings.TrimSuffix(sb.String(), "\n"))
	p.PrintSteps(report.Steps)
}

// PrintSteps outputs the steps that did not complete.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSteps(stepList []pipeline.StepStatus) {
	failed := slices.DeleteFunc(slices.Clone(stepList), func(s pipeline.StepStatus) bool {
		return s.Status != db.StepStatusFailed
	})
	if len(failed) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ALL STEPS COMPLETED")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d steps failed:\n\n", len(failed)))
	for i, s := range failed {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", s.Step))
		sb.WriteString(fmt.Sprintf("  %s\n", s.Error))
		if i < len(failed)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("FAILED STEPS", strings.TrimSuffix(sb.String(), "\n"))
}

// sortedBy returns the keys of m ordered by score descending, then name.
func sortedBy[T any](m map[string]T, score func(T) float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		sa, sb := score(m[a]), score(m[b])
		switch {
		case sa > sb:
			return -1
		case sa < sb:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return names
}
