package discovery

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ai-visibility/internal/brand"
	"github.com/jonathan/ai-visibility/internal/llm"
	"github.com/jonathan/ai-visibility/internal/prompts"
	"github.com/jonathan/ai-visibility/internal/providers"
	"github.com/jonathan/ai-visibility/internal/schemas"
	"github.com/jonathan/ai-visibility/internal/search"
)

// Strategy is one way of generating candidate names.
type Strategy string

// Strategies with a search query template in the discovery prompt file.
const (
	StrategyIndustryNews   Strategy = "industry_news"
	StrategyPublicDatabase Strategy = "public_database"
	StrategyWebResults     Strategy = "web_results"
	StrategyEncyclopedia   Strategy = "encyclopedia"
	StrategyGeoIntent      Strategy = "geo_intent"
	StrategyQueryExpansion Strategy = "query_expansion"
	// StrategyProvided mines the caller's own search results.
	StrategyProvided Strategy = "provided"
)

// Extraction methods reported in StrategyTrace.
const (
	MethodLLM       = "llm"
	MethodHeuristic = "heuristic"
	MethodNone      = "none"
)

// DefaultStrategies returns the search-backed strategies.
func DefaultStrategies() []Strategy {
	return []Strategy{
		StrategyIndustryNews,
		StrategyPublicDatabase,
		StrategyWebResults,
		StrategyEncyclopedia,
		StrategyGeoIntent,
		StrategyQueryExpansion,
	}
}

// StrategyTrace records what one strategy produced.
type StrategyTrace struct {
	Strategy Strategy `json:"strategy"`
	Query    string   `json:"query,omitempty"`
	Results  int      `json:"results"`
	Method   string   `json:"method"`
	Names    []string `json:"names"`
	Error    string   `json:"error,omitempty"`
}

const maxHeuristicWords = 4

var (
	titleSplitRe = regexp.MustCompile(`(?i)\s+vs\.?\s+|\s*/\s*|\s+and\s+|\s*\|\s*|\s*,\s*|\s+[-–—]\s+`)
	leadingNumRe = regexp.MustCompile(`^\d`)
)

// generate runs every strategy concurrently. Lists are returned in strategy order.
func (p *Pipeline) generate(ctx context.Context, req Request, tr *Trace) [][]string {
	strategies := append([]Strategy(nil), p.opts.Strategies...)
	if len(req.SearchResults) > 0 {
		strategies = append(strategies, StrategyProvided)
	}

	traces := make([]StrategyTrace, len(strategies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, s := range strategies {
		g.Go(func() error {
			// Individual strategy failures are recorded, never returned.
			traces[i] = p.runStrategy(gctx, s, req)
			return nil
		})
	}
	_ = g.Wait()

	lists := make([][]string, len(traces))
	for i, st := range traces {
		lists[i] = st.Names
	}
	tr.Strategies = append(tr.Strategies, traces...)
	return lists
}

func (p *Pipeline) runStrategy(ctx context.Context, s Strategy, req Request) StrategyTrace {
	st := StrategyTrace{Strategy: s, Method: MethodNone}

	var results []search.Result
	if s == StrategyProvided {
		results = req.SearchResults
	} else {
		query, err := p.prompts.Render(prompts.DiscoveryFile, "query-"+string(s), map[string]string{
			"Company":  req.Company,
			"Industry": req.Industry,
		})
		if err != nil {
			st.Error = err.Error()
			return st
		}
		st.Query = strings.Join(strings.Fields(query), " ")
		if p.searcher != nil {
			res := providers.Settle(ctx, p.opts.SearchTimeout, []search.Result(nil), func(ctx context.Context) ([]search.Result, error) {
				// Searchers swallow their own errors; a query cut off by the deadline is late.
				found := p.searcher.Search(ctx, st.Query, p.opts.ResultsPerQuery)
				return found, ctx.Err()
			})
			if res.Err != nil {
				st.Error = res.Err.Error()
				p.logger.Warn().Err(res.Err).Str("strategy", string(s)).Msg("search query did not settle")
			}
			results = res.Value
		}
	}
	st.Results = len(results)
	if len(results) == 0 {
		return st
	}

	if p.llm != nil {
		names, err := p.extract(ctx, s, req, results)
		if err == nil {
			st.Method = MethodLLM
			st.Names = brand.CleanCompetitorNames(names)
			return st
		}
		st.Error = err.Error()
		p.logger.Warn().Err(err).Str("strategy", string(s)).Msg("competitor extraction failed, using heuristic")
	}

	st.Method = MethodHeuristic
	st.Names = brand.CleanCompetitorNames(heuristicNames(results, req.Company))
	return st
}

// extract asks the LLM for a JSON array of competitor names. Any call failure or
// output that does not validate is returned as an error.
func (p *Pipeline) extract(ctx context.Context, s Strategy, req Request, results []search.Result) ([]string, error) {
	prompt, err := p.prompts.Render(prompts.DiscoveryFile, "extract-competitors", map[string]string{
		"Company":  req.Company,
		"Industry": req.Industry,
		"Strategy": string(s),
		"Results":  search.Combine(results),
	})
	if err != nil {
		return nil, err
	}

	raw, err := p.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed := llm.ParseJSON[[]string](raw, schemas.CompetitorList)
	if !parsed.Ok() {
		return nil, parsed.Err
	}
	return parsed.Value, nil
}

// generateJSON is a model call bounded by LLMTimeout.
func (p *Pipeline) generateJSON(ctx context.Context, prompt string) (string, error) {
	res := providers.Settle(ctx, p.opts.LLMTimeout, "", func(ctx context.Context) (string, error) {
		return p.llm.GenerateJSON(ctx, prompt, llm.TierLite)
	})
	return res.Value, res.Err
}

// heuristicNames pulls brand-like names out of search results without an LLM:
// the registrable domain of each link, and short fragments of each title.
// Domains are prettified later by CleanCompetitorNames unless a title names the
// same brand.
func heuristicNames(results []search.Result, company string) []string {
	targetKey := brand.NormalizeKey(company)
	var out []string

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || brand.NormalizeKey(name) == targetKey {
			return
		}
		out = append(out, name)
	}

	for _, r := range results {
		if host := registrableDomain(r.Link); host != "" {
			add(host)
		}
		for _, part := range titleSplitRe.Split(r.Name, -1) {
			part = strings.Trim(strings.TrimSpace(part), ".:;!?\"'")
			words := strings.Fields(part)
			if len(words) == 0 || len(words) > maxHeuristicWords || leadingNumRe.MatchString(part) {
				continue
			}
			add(part)
		}
	}
	return out
}

func registrableDomain(link string) string {
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return host
}
