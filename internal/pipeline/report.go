package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/db"
	"github.com/jonathan/ai-visibility/internal/discovery"
	"github.com/jonathan/ai-visibility/internal/fetch"
	"github.com/jonathan/ai-visibility/internal/pipeline/steps"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/scoring"
	"github.com/jonathan/ai-visibility/internal/search"
)

const scrapeTimeout = 10 * time.Second

// RunOptions holds the inputs of a full report run
type RunOptions struct {
	Company       string           `json:"company" validate:"required"`
	Industry      string           `json:"industry,omitempty"`
	// Website is scraped for display data when a scraper is configured.
	Website       string           `json:"website,omitempty"`
	// Competitors skips discovery when set.
	Competitors   []string         `json:"competitors,omitempty"`
	SearchResults []search.Result  `json:"search_results,omitempty"`
	Prompts       []string         `json:"prompts,omitempty"`
	Providers     []providers.Name `json:"providers,omitempty"`
	Persist       bool             `json:"persist,omitempty"`
	OnProgress    ProgressCallback `json:"-"`
}

// EntityReport holds every metric of one entity.
type EntityReport struct {
	Name     string         `json:"name"`
	Key      string         `json:"key"`
	IsTarget bool           `json:"is_target"`
	Analysis EntityAnalysis `json:"analysis"`
	Citation CitationReport `json:"citation"`
	Traffic  TrafficShare   `json:"traffic"`
	Ravi     scoring.Ravi   `json:"ravi"`
}

// StepStatus is the outcome of one report step.
type StepStatus struct {
	Step       string `json:"step"`
	Category   string `json:"category"`
	Status     string `json:"status"`
	DurationMs int    `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report is the complete competitor visibility report. The target is the first entity.
type Report struct {
	RunID           uuid.UUID               `json:"run_id"`
	Company         string                  `json:"company"`
	Industry        string                  `json:"industry"`
	Page            *fetch.PageInfo         `json:"page,omitempty"`
	Competitors     []string                `json:"competitors"`
	Discovery       *discovery.Trace        `json:"discovery,omitempty"`
	Entities        []EntityReport          `json:"entities"`
	Prompts         []string                `json:"prompts"`
	ModelsAvailable bool                    `json:"models_available"`
	ServiceStatus   map[providers.Name]bool `json:"service_status"`
	Steps           []StepStatus            `json:"steps"`
	Persisted       bool                    `json:"persisted"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Target returns the report entry of the company itself.
func (r *Report) Target() *EntityReport {
	for i := range r.Entities {
		if r.Entities[i].IsTarget {
			return &r.Entities[i]
		}
	}
	return nil
}

// errStepSkipped marks a step that chose not to run.
var errStepSkipped = errors.New("skipped")

// run carries the state of one report run between steps.
type run struct {
	a      *Analyzer
	opts   RunOptions
	report *Report
	done   map[string]bool
	log    zerolog.Logger

	queried   []providers.Name
	entities  []string
	responses []providers.Response
	analyses  []EntityAnalysis
	citations map[string]CitationReport
	traffic   map[string]TrafficShare
}

// RunReport discovers competitors, queries the providers once with the shared
// industry prompts and scores the company and every competitor against the same
// responses. Degraded providers and failed steps leave zeros in the report; only
// an empty company is an error.
func (a *Analyzer) RunReport(ctx context.Context, opts RunOptions) (*Report, error) {
	opts.Company = strings.TrimSpace(opts.Company)
	if opts.Company == "" {
		return nil, discovery.ErrEmptyCompany
	}

	r := &run{
		a:    a,
		opts: opts,
		report: &Report{
			RunID:         uuid.New(),
			Company:       opts.Company,
			Industry:      opts.Industry,
			Competitors:   []string{},
			ServiceStatus: a.registry.Status(),
			CreatedAt:     time.Now().UTC(),
		},
		done: make(map[string]bool, len(steps.Order)),
	}
	r.log = a.logger.With().Str("run_id", r.report.RunID.String()).Str("company", opts.Company).Logger()
	r.queried = a.queried(QueryOptions{Providers: opts.Providers})
	r.report.ModelsAvailable = len(r.queried) > 0

	handlers := map[string]func(context.Context) (string, any, error){
		steps.DiscoverCompetitors: r.discover,
		steps.QueryProviders:      r.query,
		steps.ExtractSignals:      r.extract,
		steps.AggregateScores:     r.aggregate,
		steps.CitationMetrics:     r.citationMetrics,
		steps.TrafficShare:        r.trafficShare,
		steps.RaviIndex:           r.raviIndex,
		steps.PersistMetrics:      r.persist,
	}
	for _, name := range steps.Order {
		r.runStep(ctx, name, handlers[name])
	}

	r.log.Info().
		Int("entities", len(r.report.Entities)).
		Bool("persisted", r.report.Persisted).
		Msg("report complete")
	return r.report, nil
}

func (r *run) runStep(ctx context.Context, name string, fn func(context.Context) (string, any, error)) {
	def, _ := steps.Definition(name)
	status := StepStatus{Step: name, Category: def.Category}
	start := time.Now()

	switch err := steps.CheckCompleted(name, r.done); {
	case err != nil:
		status.Status = db.StepStatusSkipped
		status.Error = err.Error()
	case ctx.Err() != nil:
		status.Status = db.StepStatusSkipped
		status.Error = ctx.Err().Error()
	default:
		msg, content, err := fn(ctx)
		switch {
		case errors.Is(err, errStepSkipped):
			status.Status = db.StepStatusSkipped
		case err != nil:
			status.Status = db.StepStatusFailed
			status.Error = err.Error()
			r.log.Warn().Err(err).Str("step", name).Msg("report step failed")
		default:
			status.Status = db.StepStatusCompleted
			r.done[name] = true
		}
		if msg != "" {
			r.emit(name, def.Category, msg, content)
		}
	}

	status.DurationMs = int(time.Since(start).Milliseconds())
	r.report.Steps = append(r.report.Steps, status)
	r.log.Debug().Str("step", name).Str("status", status.Status).Int("duration_ms", status.DurationMs).Msg("report step finished")
}

// emit calls the progress callback if configured
func (r *run) emit(step, category, message string, content any) {
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    r.report.RunID.String(),
			Content:  content,
		})
	}
}

// discover finds competitors and scrapes the company website side by side.
func (r *run) discover(ctx context.Context) (string, any, error) {
	var (
		competitors []string
		trace       *discovery.Trace
		discErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.report.Page = r.scrape(gctx)
		return nil
	})
	g.Go(func() error {
		switch {
		case len(r.opts.Competitors) > 0:
			competitors = r.opts.Competitors
		case r.a.discovery != nil:
			res, err := r.a.discovery.Discover(gctx, discovery.Request{
				Company:       r.opts.Company,
				Industry:      r.opts.Industry,
				SearchResults: r.opts.SearchResults,
			})
			if err != nil {
				discErr = fmt.Errorf("competitor discovery failed: %w", err)
				return nil
			}
			competitors = res.Competitors
			trace = &res.Trace
		}
		return nil
	})
	_ = g.Wait()

	r.entities = entityList(r.opts.Company, competitors)
	r.report.Competitors = r.entities[1:]
	r.report.Discovery = trace
	if discErr != nil {
		return "", nil, discErr
	}
	return fmt.Sprintf("Found %d competitors", len(r.report.Competitors)), r.report.Competitors, nil
}

func (r *run) scrape(ctx context.Context) *fetch.PageInfo {
	if r.a.scraper == nil || strings.TrimSpace(r.opts.Website) == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()
	info, err := r.a.scraper.ScrapePageInfo(ctx, r.opts.Website)
	if err != nil {
		r.log.Warn().Err(err).Str("url", r.opts.Website).Msg("website scrape failed")
		return nil
	}
	return info
}

func (r *run) query(ctx context.Context) (string, any, error) {
	if r.entities == nil {
		r.entities = entityList(r.opts.Company, nil)
	}
	promptSet := r.opts.Prompts
	if len(promptSet) == 0 {
		var err error
		promptSet, err = r.a.prompts.AnalysisPrompts(r.opts.Industry, "")
		if err != nil {
			return "", nil, err
		}
	}
	r.report.Prompts = promptSet
	if len(r.queried) > 0 {
		r.responses = r.a.registry.Query(ctx, promptSet, r.queried...)
	}

	ok := lo.CountBy(r.responses, func(resp providers.Response) bool { return resp.Success })
	return fmt.Sprintf("Collected %d/%d responses from %d providers", ok, len(r.responses), len(r.queried)),
		map[string]any{"providers": r.queried, "successful": ok, "total": len(r.responses)}, nil
}

func (r *run) extract(ctx context.Context) (string, any, error) {
	r.analyses = r.a.extractSignals(ctx, r.responses, r.entities, r.opts.Industry, r.queried)
	mentions := make(map[string]int, len(r.analyses))
	for _, ea := range r.analyses {
		for _, b := range ea.Breakdown {
			mentions[ea.Name] += b.Raw.Mentions
		}
	}
	return fmt.Sprintf("Extracted signals for %d entities", len(r.analyses)), mentions, nil
}

func (r *run) aggregate(context.Context) (string, any, error) {
	r.a.aggregate(r.analyses, r.queried)
	scores := make(map[string]float64, len(r.analyses))
	for _, ea := range r.analyses {
		scores[ea.Name] = ea.KeyMetrics.AverageScore
	}
	return "Aggregated AI visibility scores", scores, nil
}

func (r *run) citationMetrics(context.Context) (string, any, error) {
	r.citations = r.a.citations(r.responses, r.entities, r.opts.Industry, r.queried)
	scores := make(map[string]float64, len(r.citations))
	for name, c := range r.citations {
		scores[name] = c.Global.VolumeWeighted
	}
	return "Computed citation metrics", scores, nil
}

func (r *run) trafficShare(context.Context) (string, any, error) {
	r.traffic = r.a.traffic(r.responses, r.entities, r.opts.Industry, r.queried)
	shares := make(map[string]float64, len(r.traffic))
	for name, ts := range r.traffic {
		shares[name] = ts.SharePercent
	}
	return "Computed AI traffic share", shares, nil
}

func (r *run) raviIndex(context.Context) (string, any, error) {
	r.report.Entities = make([]EntityReport, 0, len(r.analyses))
	for i, ea := range r.analyses {
		entry := EntityReport{
			Name:     ea.Name,
			Key:      ea.Key,
			IsTarget: i == 0,
			Analysis: ea,
			Citation: r.citations[ea.Name],
			Traffic:  r.traffic[ea.Name],
		}
		entry.Ravi = r.a.ComputeRavi(RaviInputFor(entry.Analysis, entry.Citation, entry.Traffic))
		r.report.Entities = append(r.report.Entities, entry)
	}
	ravi := make(map[string]int, len(r.report.Entities))
	for _, e := range r.report.Entities {
		ravi[e.Name] = e.Ravi.Rounded
	}
	return "Computed RAVI", ravi, nil
}

// persist appends the finished run to the run log. Failures are logged and never
// change the report.
func (r *run) persist(ctx context.Context) (string, any, error) {
	if !r.opts.Persist || r.a.store == nil {
		return "", nil, errStepSkipped
	}

	store, runID := r.a.store, r.report.RunID
	if err := store.CreateRun(ctx, runID, r.opts.Company, r.opts.Industry); err != nil {
		return "", nil, err
	}

	metrics := make([]db.EntityMetric, 0, len(r.report.Entities))
	for _, e := range r.report.Entities {
		metrics = append(metrics, db.EntityMetric{
			Entity:        e.Name,
			EntityKey:     e.Key,
			IsTarget:      e.IsTarget,
			AIScore:       e.Analysis.KeyMetrics.AverageScore,
			Ravi:          e.Ravi.Raw,
			CitationScore: e.Citation.Global.VolumeWeighted,
			TrafficShare:  e.Traffic.SharePercent,
			Coverage:      e.Analysis.KeyMetrics.ModelCoverage,
			Payload:       e,
		})
	}
	if err := store.AppendEntityMetrics(ctx, runID, metrics); err != nil {
		_ = store.CompleteRun(ctx, runID, db.RunStatusFailed)
		return "", nil, err
	}

	for _, s := range r.report.Steps {
		dur := s.DurationMs
		input := &db.RunStepInput{Step: s.Step, Category: s.Category, Status: s.Status, DurationMs: &dur}
		if s.Error != "" {
			msg := s.Error
			input.Error = &msg
		}
		if err := store.RecordRunStep(ctx, runID, input); err != nil {
			r.log.Warn().Err(err).Str("step", s.Step).Msg("failed to record run step")
		}
	}

	if err := store.CompleteRun(ctx, runID, db.RunStatusCompleted); err != nil {
		return "", nil, err
	}
	r.report.Persisted = true
	return "Stored run metrics", runID.String(), nil
}

// entityList puts the company first and drops competitors that share its key or
// each other's.
func entityList(company string, competitors []string) []string {
	return uniqueEntities(append([]string{company}, competitors...))
}

// uniqueEntities trims names and keeps the first display name of each brand key.
// Names without a key are dropped.
func uniqueEntities(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := brand.NormalizeKey(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
