// Package discovery finds the competitors of a company by combining several
// search strategies, ranking the names they produce, and validating the result.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/config"
	"github.com/jonathan/ai-visibility/internal/llm"
	"github.com/jonathan/ai-visibility/internal/prompts"
	"github.com/jonathan/ai-visibility/internal/search"
)

var (
	// ErrEmptyCompany is returned by Discover when no company name is given.
	ErrEmptyCompany = errors.New("discovery: company name is required")
	// ErrNoExtractor is returned by New when RequireExtractor is set and no LLM is configured.
	ErrNoExtractor = errors.New("discovery: an LLM client is required for extraction")
)

// Stage names a step of a discovery run.
type Stage string

// Stages in the order they run.
const (
	StageCandidateGeneration Stage = "candidate-generation"
	StageFrequencyRanking    Stage = "frequency-ranking"
	StageFallbackSeeding     Stage = "fallback-seeding"
	StagePreFiltering        Stage = "pre-filtering"
	StageAIValidation        Stage = "ai-validation"
	StageFinalCleanup        Stage = "final-cleanup"
)

// Request describes one discovery run.
type Request struct {
	Company       string          `json:"company" validate:"required"`
	Industry      string          `json:"industry,omitempty"`
	// SearchResults are caller-supplied results, mined as an extra strategy.
	SearchResults []search.Result `json:"search_results,omitempty"`
}

// Result is the outcome of a discovery run.
type Result struct {
	Competitors []string    `json:"competitors"`
	Candidates  []Candidate `json:"candidates"`
	Trace       Trace       `json:"trace"`
}

// StageTrace records the candidate count after a stage.
type StageTrace struct {
	Stage      Stage         `json:"stage"`
	Candidates int           `json:"candidates"`
	Duration   time.Duration `json:"duration"`
	Note       string        `json:"note,omitempty"`
}

// Trace explains how a result was produced.
type Trace struct {
	Strategies           []StrategyTrace `json:"strategies"`
	Stages               []StageTrace    `json:"stages"`
	// Bucket is the industry bucket used for seeding, when seeding ran.
	Bucket               string          `json:"bucket,omitempty"`
	Seeded               bool            `json:"seeded"`
	ValidationFailedOpen bool            `json:"validation_failed_open"`
	Dropped              []string        `json:"dropped,omitempty"`
}

// Options tunes a Pipeline.
type Options struct {
	Strategies          []Strategy
	ResultsPerQuery     int
	ValidationThreshold float64
	FailOpenTopN        int
	MaxCompetitors      int
	Concurrency         int
	RequireExtractor    bool
	// SearchTimeout and LLMTimeout bound each search query and each extraction
	// or validation call. A call that runs out of time counts as failed.
	SearchTimeout       time.Duration
	LLMTimeout          time.Duration
}

// DefaultOptions returns the standard settings: every strategy, a validation
// threshold of 60, fail-open to the top 10 and at most 8 competitors. Searches
// get 7s and model calls 15s.
func DefaultOptions() Options {
	return Options{
		Strategies:          DefaultStrategies(),
		ResultsPerQuery:     10,
		ValidationThreshold: 60,
		FailOpenTopN:        10,
		MaxCompetitors:      8,
		Concurrency:         4,
		SearchTimeout:       7 * time.Second,
		LLMTimeout:          15 * time.Second,
	}
}

// OptionsFromConfig overlays the configured discovery settings and call budgets
// on DefaultOptions.
func OptionsFromConfig(d config.Discovery, t config.Timeouts) Options {
	opts := DefaultOptions()
	if budget := t.For("search"); budget > 0 {
		opts.SearchTimeout = budget
	}
	if budget := t.LLM(); budget > 0 {
		opts.LLMTimeout = budget
	}
	if d.ValidationThreshold > 0 {
		opts.ValidationThreshold = float64(d.ValidationThreshold)
	}
	if d.FailOpenTopN > 0 {
		opts.FailOpenTopN = d.FailOpenTopN
	}
	if d.MaxCompetitors > 0 {
		opts.MaxCompetitors = d.MaxCompetitors
	}
	return opts
}

// Deps are the collaborators of a Pipeline. Searcher and LLM may be nil; the
// pipeline then degrades to provided results, heuristics and seeding.
type Deps struct {
	Searcher search.Searcher
	LLM      llm.Client
	Prompts  *prompts.Library
	Tables   *Tables
	Filters  *Filters
	Logger   zerolog.Logger
}

// Pipeline runs competitor discovery.
type Pipeline struct {
	searcher search.Searcher
	llm      llm.Client
	prompts  *prompts.Library
	tables   *Tables
	filters  *Filters
	logger   zerolog.Logger
	opts     Options
}

// New creates a Pipeline. Missing tables, filters and prompts fall back to the
// built-in ones.
func New(deps Deps, opts Options) (*Pipeline, error) {
	if opts.RequireExtractor && deps.LLM == nil {
		return nil, ErrNoExtractor
	}

	def := DefaultOptions()
	if len(opts.Strategies) == 0 {
		opts.Strategies = def.Strategies
	}
	if opts.ResultsPerQuery <= 0 {
		opts.ResultsPerQuery = def.ResultsPerQuery
	}
	if opts.ValidationThreshold <= 0 {
		opts.ValidationThreshold = def.ValidationThreshold
	}
	if opts.FailOpenTopN <= 0 {
		opts.FailOpenTopN = def.FailOpenTopN
	}
	if opts.MaxCompetitors <= 0 {
		opts.MaxCompetitors = def.MaxCompetitors
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = def.SearchTimeout
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = def.LLMTimeout
	}

	if deps.Prompts == nil {
		deps.Prompts = prompts.New()
	}
	if deps.Tables == nil {
		deps.Tables = DefaultTables()
	}
	if deps.Filters == nil {
		deps.Filters = DefaultFilters()
	}

	return &Pipeline{
		searcher: deps.Searcher,
		llm:      deps.LLM,
		prompts:  deps.Prompts,
		tables:   deps.Tables,
		filters:  deps.Filters,
		logger:   deps.Logger,
		opts:     opts,
	}, nil
}

// Discover runs the stages in order and returns the competitors found. Degraded
// conditions (no search, no LLM, malformed output) never produce an error.
func (p *Pipeline) Discover(ctx context.Context, req Request) (*Result, error) {
	company := strings.TrimSpace(req.Company)
	if company == "" {
		return nil, ErrEmptyCompany
	}
	req.Company = company
	targetKey := brand.NormalizeKey(company)

	res := &Result{}
	tr := &res.Trace
	log := p.logger.With().Str("company", company).Logger()

	start := time.Now()
	lists := p.generate(ctx, req, tr)
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	p.record(log, tr, StageCandidateGeneration, total, start, "")

	start = time.Now()
	cands := RankCandidates(lists)
	p.record(log, tr, StageFrequencyRanking, len(cands), start, "")

	// The target may come back from extraction; it never counts toward the floor.
	if lo.CountBy(cands, func(c Candidate) bool { return c.Key != targetKey }) < 2 {
		start = time.Now()
		tr.Bucket = p.tables.Industry(req.Industry, company)
		tr.Seeded = true
		cands = p.tables.Seed(cands, tr.Bucket, company)
		p.record(log, tr, StageFallbackSeeding, len(cands), start, tr.Bucket)
	}

	start = time.Now()
	kept := p.filters.prefilter(cands, targetKey)
	tr.Dropped = append(tr.Dropped, droppedNames(cands, kept)...)
	cands = kept
	p.record(log, tr, StagePreFiltering, len(cands), start, "")

	start = time.Now()
	var failedOpen bool
	cands, failedOpen = p.validate(ctx, req, cands, targetKey)
	tr.ValidationFailedOpen = failedOpen
	note := ""
	if failedOpen {
		note = "failed open"
	}
	p.record(log, tr, StageAIValidation, len(cands), start, note)

	start = time.Now()
	kept = p.filters.cleanup(cands, targetKey)
	tr.Dropped = append(tr.Dropped, droppedNames(cands, kept)...)
	// The target survives every stage but is not its own competitor.
	cands = lo.Filter(kept, func(c Candidate, _ int) bool { return c.Key != targetKey })
	if len(cands) > p.opts.MaxCompetitors {
		cands = cands[:p.opts.MaxCompetitors]
	}
	p.record(log, tr, StageFinalCleanup, len(cands), start, "")

	res.Candidates = cands
	res.Competitors = names(cands)
	return res, nil
}

func (p *Pipeline) record(log zerolog.Logger, tr *Trace, stage Stage, n int, start time.Time, note string) {
	st := StageTrace{Stage: stage, Candidates: n, Duration: time.Since(start), Note: note}
	tr.Stages = append(tr.Stages, st)

	ev := log.Info().Str("stage", string(stage)).Int("candidates", n).Dur("duration", st.Duration)
	if note != "" {
		ev = ev.Str("note", note)
	}
	ev.Msg("discovery stage complete")
}

func droppedNames(before, after []Candidate) []string {
	keep := make(map[string]bool, len(after))
	for _, c := range after {
		keep[c.Key] = true
	}
	var out []string
	for _, c := range before {
		if !keep[c.Key] {
			out = append(out, c.Name)
		}
	}
	return out
}
