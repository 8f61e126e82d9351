package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/jonathan/ai-visibility/internal/config"
	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/fetch"
	"github.com/jonathan/ai-visibility/internal/logging"
	"github.com/jonathan/ai-visibility/internal/observability"
	"github.com/jonathan/ai-visibility/internal/pipeline"
	"github.com/jonathan/ai-visibility/internal/prompts"
	"github.com/jonathan/ai-visibility/internal/providers"
)

// getenv is swapped in tests.
var getenv = os.Getenv

// app holds the wired components shared by every command.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	registry  *providers.Registry
	discovery *discovery.Pipeline
	analyzer  *pipeline.Analyzer
	store     *db.DB
	out       io.Writer
	printer   *observability.Printer
}

// newApp resolves the configuration and builds the provider registry, discovery
// pipeline and analyzer. The database is connected only when withStore is set
// and a URL is configured.
func newApp(ctx context.Context, out io.Writer, withStore bool) (*app, error) {
	cfg, err := config.Resolve(configPath, getenv)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Verbose = true
		cfg.LogLevel = "debug"
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Pretty: !jsonOutput})
	if configPath != "" {
		logger.Debug().Str("path", configPath).Msg("loaded config")
	}

	a := &app{cfg: cfg, logger: logger, out: out, printer: observability.NewPrinter(out)}
	a.registry = providers.NewRegistry(ctx, cfg, logger)

	tables := discovery.DefaultTables()
	if cfg.TablesPath != "" {
		if tables, err = discovery.LoadTables(cfg.TablesPath); err != nil {
			a.close()
			return nil, fmt.Errorf("failed to load discovery tables: %w", err)
		}
	}
	library := prompts.New()

	a.discovery, err = discovery.New(discovery.Deps{
		Searcher: a.registry.Searcher(),
		LLM:      a.registry.LLMClient(),
		Prompts:  library,
		Tables:   tables,
		Logger:   logger.With().Str("component", "discovery").Logger(),
	}, discovery.OptionsFromConfig(cfg.Discovery, cfg.Timeouts))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create discovery pipeline: %w", err)
	}

	deps := pipeline.Deps{
		Registry:  a.registry,
		Discovery: a.discovery,
		Prompts:   library,
		Config:    cfg,
		Scraper:   fetch.NewScraper(nil),
		Logger:    logger.With().Str("component", "pipeline").Logger(),
	}
	if withStore && cfg.DatabaseURL != "" {
		store, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			a.close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			a.close()
			return nil, err
		}
		a.store = store
		deps.Store = store
	}

	a.analyzer, err = pipeline.New(deps)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Debug().Err(err).Msg("failed to close provider clients")
		}
	}
}

// emit prints v as JSON with --json, or hands it to the formatted printer.
func (a *app) emit(v any, pretty func(p *observability.Printer)) error {
	if jsonOutput {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	pretty(a.printer)
	return nil
}
