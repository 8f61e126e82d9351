// Package pipeline runs the visibility analyses: per-entity AI scores, citation
// metrics, AI traffic share, RAVI, and the full competitor report.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/ai-visibility/internal/config"
	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/fetch"
	"github.com/jonathan/ai-visibility/internal/prompts"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
	"github.com/jonathan/ai-visibility/internal/signals"
)

// ErrNoRegistry is returned by New without a provider registry.
var ErrNoRegistry = errors.New("pipeline: provider registry is required")

// ProgressEvent represents a progress update during a report run
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when report progress occurs
type ProgressCallback func(event ProgressEvent)

// RunStore is the append-only run log. *db.DB implements it.
type RunStore interface {
	CreateRun(ctx context.Context, runID uuid.UUID, company, industry string) error
	AppendEntityMetrics(ctx context.Context, runID uuid.UUID, metrics []db.EntityMetric) error
	RecordRunStep(ctx context.Context, runID uuid.UUID, input *db.RunStepInput) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

// PageScraper reads display data for a brand's website. *fetch.Scraper implements it.
type PageScraper interface {
	ScrapePageInfo(ctx context.Context, url string) (*fetch.PageInfo, error)
}

// Deps are the collaborators of an Analyzer. Only Registry is required.
type Deps struct {
	Registry  *providers.Registry
	Discovery *discovery.Pipeline
	Lexicon   *signals.Lexicon
	Prompts   *prompts.Library
	Config    *config.Config
	Store     RunStore
	Scraper   PageScraper
	Logger    zerolog.Logger
}

// Analyzer computes visibility metrics from provider responses.
type Analyzer struct {
	registry  *providers.Registry
	discovery *discovery.Pipeline
	lexicon   *signals.Lexicon
	prompts   *prompts.Library
	store     RunStore
	scraper   PageScraper
	logger    zerolog.Logger

	visibility        scoring.VisibilityWeights
	ravi              scoring.RaviWeights
	coverageThreshold float64
}

// New builds an Analyzer. Weights and the coverage threshold come from
// deps.Config, falling back to the defaults.
func New(deps Deps) (*Analyzer, error) {
	if deps.Registry == nil {
		return nil, ErrNoRegistry
	}
	cfg := config.Default()
	if deps.Config != nil {
		cfg = deps.Config.MergeWithDefaults(config.Default())
	}

	a := &Analyzer{
		registry:          deps.Registry,
		discovery:         deps.Discovery,
		lexicon:           deps.Lexicon,
		prompts:           deps.Prompts,
		store:             deps.Store,
		scraper:           deps.Scraper,
		logger:            deps.Logger,
		visibility:        cfg.Visibility,
		ravi:              cfg.Ravi,
		coverageThreshold: cfg.CoverageThreshold,
	}
	if a.lexicon == nil {
		a.lexicon = signals.DefaultLexicon()
	}
	if a.prompts == nil {
		a.prompts = prompts.New()
	}
	return a, nil
}

// QueryOptions controls how an operation gathers provider responses.
type QueryOptions struct {
	// Prompts overrides the default prompt set.
	Prompts   []string
	// Providers restricts the fan-out to these LLM providers (all when empty).
	Providers []providers.Name
	// Responses reuses responses from an earlier fan-out instead of querying again.
	Responses []providers.Response
}

// queried returns the registered LLM providers this operation measures, in report order.
func (a *Analyzer) queried(opts QueryOptions) []providers.Name {
	want := providers.LLMs
	if len(opts.Providers) > 0 {
		want = opts.Providers
	}
	var out []providers.Name
	for _, p := range a.registry.Providers(want...) {
		if isLLM(p.Name()) {
			out = append(out, p.Name())
		}
	}
	return out
}

// respond returns the responses for an operation, querying the providers unless
// opts carries responses already.
func (a *Analyzer) respond(ctx context.Context, industry, entity string, opts QueryOptions) ([]providers.Response, error) {
	if opts.Responses != nil {
		return opts.Responses, nil
	}
	names := a.queried(opts)
	if len(names) == 0 {
		a.logger.Warn().Msg("no LLM providers available; returning empty metrics")
		return nil, nil
	}

	promptSet := opts.Prompts
	if len(promptSet) == 0 {
		var err error
		promptSet, err = a.prompts.AnalysisPrompts(industry, entity)
		if err != nil {
			return nil, err
		}
	}
	return a.registry.Query(ctx, promptSet, names...), nil
}

func isLLM(name providers.Name) bool {
	for _, n := range providers.LLMs {
		if n == name {
			return true
		}
	}
	return false
}

// domainKeywords are the industry words that confirm an ambiguous brand name
// refers to the company ("apple" in a text about laptops).
func domainKeywords(industry string) []string {
	industry = strings.ToLower(strings.TrimSpace(industry))
	if industry == "" {
		return nil
	}
	out := []string{industry}
	for _, w := range strings.FieldsFunc(industry, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(w) >= 4 && w != industry {
			out = append(out, w)
		}
	}
	return out
}
