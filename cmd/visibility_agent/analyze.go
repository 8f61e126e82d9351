package main

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/observability"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/providers"
)

var (
	industry      string
	promptFlags   []string
	providerFlags []string
)

// addQueryFlags registers the flags shared by every command that queries providers.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&industry, "industry", "i", "", "Industry or category of the brand")
	cmd.Flags().StringArrayVarP(&promptFlags, "prompt", "p", nil, "Prompt to send instead of the defaults (repeatable)")
	cmd.Flags().StringSliceVar(&providerFlags, "provider", nil, "Restrict to these providers: gemini, chatgpt, claude, perplexity")
}

// providerNames validates --provider values.
func providerNames() ([]providers.Name, error) {
	names := lo.Map(providerFlags, func(s string, _ int) providers.Name { return providers.Name(s) })
	for _, n := range names {
		if !lo.Contains(providers.LLMs, n) {
			return nil, fmt.Errorf("unknown provider %q", n)
		}
	}
	return names, nil
}

func queryOptions() (pipeline.QueryOptions, error) {
	names, err := providerNames()
	if err != nil {
		return pipeline.QueryOptions{}, err
	}
	return pipeline.QueryOptions{Prompts: promptFlags, Providers: names}, nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <entity>",
	Short: "Score how the AI models talk about one brand",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var discoverCmd = &cobra.Command{
	Use:   "discover <company>",
	Short: "Discover the competitors of a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

func init() {
	addQueryFlags(analyzeCmd)
	discoverCmd.Flags().StringVarP(&industry, "industry", "i", "", "Industry or category of the company")
	rootCmd.AddCommand(analyzeCmd, discoverCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	analysis, err := a.analyzer.AnalyzeEntityWith(ctx, args[0], industry, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return a.emit(analysis, func(p *observability.Printer) { p.PrintEntityAnalysis(&analysis) })
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.discovery.Discover(ctx, discovery.Request{Company: args[0], Industry: industry})
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	return a.emit(result, func(p *observability.Printer) { p.PrintCompetitors(args[0], result) })
}
