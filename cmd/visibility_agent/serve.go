package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/ai-visibility/internal/server"
	"github.com/jonathan/ai-visibility/internal/server/ratelimit"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the analyses as JSON endpoints, with the run log when DATABASE_URL is set.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := server.Config{
		Port:      servePort,
		Analyzer:  a.analyzer,
		Discovery: a.discovery,
		Registry:  a.registry,
		RateLimit: ratelimit.LoadConfig(getenv),
		Logger:    a.logger.With().Str("component", "server").Logger(),
	}
	if a.store != nil {
		cfg.Runs = a.store
	} else {
		a.logger.Warn().Msg("DATABASE_URL not set; run log endpoints are disabled")
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}
