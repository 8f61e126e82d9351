package providers

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/ai-visibility/internal/config"
	"github.com/jonathan/ai-visibility/internal/llm"
	"github.com/jonathan/ai-visibility/internal/search"
)

// Registry holds the providers that are usable for this process. Providers whose
// credentials are missing or look like placeholders are never registered.
type Registry struct {
	providers map[Name]Provider
	searcher  search.Searcher
	logger    zerolog.Logger

	timeouts    config.Timeouts
	concurrency int
	rps         float64
	caller      *Caller
}

// NewRegistry builds every provider that cfg has credentials for. Exclusions are
// logged at info level. It never fails for missing keys: an empty registry is valid.
func NewRegistry(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *Registry {
	r := newRegistry(cfg, logger)

	tryLLM := func(name Name, key string, build func() (llm.Client, error)) {
		if !config.HasKey(key) {
			logger.Info().Str("provider", string(name)).Msg("provider excluded: missing or placeholder API key")
			return
		}
		client, err := build()
		if err != nil {
			logger.Warn().Err(err).Str("provider", string(name)).Msg("provider excluded: client construction failed")
			return
		}
		r.Register(NewLLMProvider(name, client))
	}

	tryLLM(Gemini, cfg.GeminiAPIKey, func() (llm.Client, error) {
		return llm.NewGeminiClient(ctx, llm.SingleModelConfig(llm.ProviderGemini, cfg.Models.Gemini), cfg.GeminiAPIKey)
	})
	tryLLM(ChatGPT, cfg.OpenAIAPIKey, func() (llm.Client, error) {
		return llm.NewOpenAIClient(llm.SingleModelConfig(llm.ProviderOpenAI, cfg.Models.ChatGPT), cfg.OpenAIAPIKey)
	})
	tryLLM(Claude, cfg.AnthropicAPIKey, func() (llm.Client, error) {
		return llm.NewClaudeClient(llm.SingleModelConfig(llm.ProviderAnthropic, cfg.Models.Claude), cfg.AnthropicAPIKey)
	})
	tryLLM(Perplexity, cfg.PerplexityAPIKey, func() (llm.Client, error) {
		return llm.NewPerplexityClient(llm.SingleModelConfig(llm.ProviderPerplexity, cfg.Models.Perplexity), cfg.PerplexityAPIKey)
	})

	if !config.HasKey(cfg.SearchAPIKey) || !config.HasKey(cfg.SearchCX) {
		logger.Info().Str("provider", string(Search)).Msg("provider excluded: missing or placeholder API key")
	} else {
		searcher, err := search.NewGoogleSearcher(ctx, cfg.SearchAPIKey, cfg.SearchCX, search.Options{
			Attempts:  cfg.SearchRetry.Attempts,
			BaseDelay: cfg.SearchRetry.BaseDelay(),
			Logger:    logger,
		})
		if err != nil {
			logger.Warn().Err(err).Str("provider", string(Search)).Msg("provider excluded: client construction failed")
		} else {
			r.SetSearcher(searcher)
		}
	}

	logger.Info().Interface("available", r.Available()).Msg("provider registry ready")
	return r
}

// NewRegistryWith builds a registry from ready-made providers.
func NewRegistryWith(cfg *config.Config, logger zerolog.Logger, providers ...Provider) *Registry {
	r := newRegistry(cfg, logger)
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

func newRegistry(cfg *config.Config, logger zerolog.Logger) *Registry {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return &Registry{
		providers:   make(map[Name]Provider),
		logger:      logger,
		timeouts:    cfg.Timeouts,
		concurrency: cfg.Concurrency,
		rps:         cfg.RequestsPerSecond,
		caller: &Caller{
			Attempts:  cfg.Retry.Attempts,
			BaseDelay: cfg.Retry.BaseDelay(),
			Logger:    logger,
		},
	}
}

// Register adds or replaces a provider.
func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name Name) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// SetSearcher registers the search backend used by discovery.
func (r *Registry) SetSearcher(s search.Searcher) {
	r.searcher = s
}

func (r *Registry) has(n Name) bool {
	if n == Search {
		return r.searcher != nil
	}
	_, ok := r.providers[n]
	return ok
}

// Available lists registered providers in report order, Search included when a
// search backend is set.
func (r *Registry) Available() []Name {
	out := make([]Name, 0, len(r.providers)+1)
	for _, n := range All {
		if r.has(n) {
			out = append(out, n)
		}
	}
	var extra []Name
	for n := range r.providers {
		if rank(n) == len(All) {
			extra = append(extra, n)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Status reports availability for every known provider.
func (r *Registry) Status() map[Name]bool {
	out := make(map[Name]bool, len(All))
	for _, n := range All {
		out[n] = r.has(n)
	}
	return out
}

// Providers returns the registered answer providers among names (all when
// empty), in report order. Search is not an answer provider and is never returned.
func (r *Registry) Providers(names ...Name) []Provider {
	if len(names) == 0 {
		names = r.Available()
	}
	want := make(map[Name]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Provider
	for _, n := range r.Available() {
		if p, ok := r.providers[n]; ok && want[n] {
			out = append(out, p)
		}
	}
	return out
}

// LLMClient returns the first available model client in report order, for
// structured extraction tasks. It is nil when no LLM is configured.
func (r *Registry) LLMClient() llm.Client {
	for _, n := range LLMs {
		if p, ok := r.providers[n].(*LLMProvider); ok {
			return p.Client()
		}
	}
	return nil
}

// Searcher returns the registered search backend, or nil.
func (r *Registry) Searcher() search.Searcher {
	return r.searcher
}

// Timeout returns the per-call budget for a provider.
func (r *Registry) Timeout(name Name) time.Duration {
	return r.timeouts.For(string(name))
}

// Caller returns the retry policy shared by every fan-out from this registry.
func (r *Registry) Caller() *Caller {
	return r.caller
}

// Query fans prompts out to the named providers (all when none are named).
func (r *Registry) Query(ctx context.Context, prompts []string, names ...Name) []Response {
	return FanOut(ctx, r.Providers(names...), prompts, FanOutOptions{
		Concurrency:       r.concurrency,
		Timeout:           r.Timeout,
		RequestsPerSecond: r.rps,
		Caller:            r.caller,
	})
}

// Close releases every LLM client.
func (r *Registry) Close() error {
	var errs []error
	for _, p := range r.providers {
		if lp, ok := p.(*LLMProvider); ok {
			if err := lp.Client().Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
