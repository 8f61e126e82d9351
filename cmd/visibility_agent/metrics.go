package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/ai-visibility/internal/observability"
	"github.com/jonathan/ai-visibility/internal/scoring"
)

var citationsCmd = &cobra.Command{
	Use:   "citations <entity>...",
	Short: "Compute citation metrics for one or more brands",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCitations,
}

var trafficCmd = &cobra.Command{
	Use:   "traffic <entity>...",
	Short: "Split AI mentions between brands",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTraffic,
}

var raviInput scoring.RaviInput

var raviCmd = &cobra.Command{
	Use:   "ravi",
	Short: "Compute the RAVI index from its four inputs",
	Long: `Compute the Relative AI Visibility Index from precomputed inputs. Run "report" to
compute the inputs from live provider responses.`,
	Args: cobra.NoArgs,
	RunE: runRavi,
}

func init() {
	addQueryFlags(citationsCmd)
	addQueryFlags(trafficCmd)

	raviCmd.Flags().Float64Var(&raviInput.AvgModelScore, "avg-model-score", 0, "Average AI score, 0-10")
	raviCmd.Flags().Float64Var(&raviInput.TrafficShare, "traffic-share", 0, "AI traffic share, 0-100")
	raviCmd.Flags().Float64Var(&raviInput.CitationScore, "citation-score", 0, "Global citation score, 0-1")
	raviCmd.Flags().Float64Var(&raviInput.ModelCoverage, "model-coverage", 0, "Model coverage, 0-100")

	rootCmd.AddCommand(citationsCmd, trafficCmd, raviCmd)
}

func runCitations(cmd *cobra.Command, args []string) error {
	opts, err := queryOptions()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.close()

	reports, err := a.analyzer.ComputeCitationMetrics(ctx, args, industry, opts)
	if err != nil {
		return fmt.Errorf("citation metrics failed: %w", err)
	}
	return a.emit(reports, func(p *observability.Printer) { p.PrintCitations(reports) })
}

func runTraffic(cmd *cobra.Command, args []string) error {
	opts, err := queryOptions()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.close()

	shares, err := a.analyzer.ComputeAiTrafficShare(ctx, args, industry, opts)
	if err != nil {
		return fmt.Errorf("traffic share failed: %w", err)
	}
	return a.emit(shares, func(p *observability.Printer) { p.PrintTrafficShare(shares) })
}

func runRavi(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.close()

	ravi := a.analyzer.ComputeRavi(raviInput)
	return a.emit(ravi, func(p *observability.Printer) { p.PrintRavi("", ravi) })
}
