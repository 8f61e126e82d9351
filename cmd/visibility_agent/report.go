package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ai-visibility/internal/observability"
	"github.com/jonathan/ai-visibility/internal/pipeline"
)

var (
	reportWebsite     string
	reportCompetitors []string
	reportPersist     bool
)

var reportCmd = &cobra.Command{
	Use:   "report <company>",
	Short: "Run the full competitor visibility report",
	Long: `Discovers competitors (unless --competitor is given), queries every configured AI model once
with the industry prompts, and scores the company and each competitor: AI scores, citation
metrics, AI traffic share and RAVI.

With --persist and DATABASE_URL set, the run is appended to the run log.`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	addQueryFlags(reportCmd)
	reportCmd.Flags().StringVarP(&reportWebsite, "website", "w", "", "Company website to read display data from")
	reportCmd.Flags().StringSliceVarP(&reportCompetitors, "competitor", "c", nil, "Competitors to compare against (skips discovery)")
	reportCmd.Flags().BoolVar(&reportPersist, "persist", false, "Append the run to the database run log")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	names, err := providerNames()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), reportPersist)
	if err != nil {
		return err
	}
	defer a.close()

	if reportPersist && a.store == nil {
		a.logger.Warn().Msg("--persist set but DATABASE_URL is not configured; the run will not be stored")
	}

	opts := pipeline.RunOptions{
		Company:     args[0],
		Industry:    industry,
		Website:     reportWebsite,
		Competitors: reportCompetitors,
		Prompts:     promptFlags,
		Providers:   names,
		Persist:     reportPersist,
	}
	if verbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			a.logger.Info().Str("step", e.Step).Str("category", e.Category).Msg(e.Message)
		}
	}

	report, err := a.analyzer.RunReport(ctx, opts)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}
	return a.emit(report, func(p *observability.Printer) { p.PrintReport(report) })
}
