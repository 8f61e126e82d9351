package providers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Response is the settled answer of one provider to one prompt.
type Response struct {
	Provider    Name   `json:"provider"`
	PromptIndex int    `json:"prompt_index"`
	Prompt      string `json:"prompt"`
	Text        string `json:"text"`
	Success     bool   `json:"success"`
}

// FanOutOptions tunes a fan-out.
type FanOutOptions struct {
	// Concurrency caps in-flight calls; zero means one goroutine per pair.
	Concurrency int
	// Timeout returns the per-call budget for a provider; nil or zero means none.
	Timeout func(Name) time.Duration
	// RequestsPerSecond paces calls to each provider; zero means unlimited.
	RequestsPerSecond float64
	// Caller applies the retry policy; nil uses a single attempt.
	Caller *Caller
}

// FanOut issues every prompt to every provider concurrently and waits for all of
// them. Failed, empty and timed-out calls produce a Response with Success false.
// The result holds exactly len(providers)*len(prompts) entries ordered by
// provider then prompt index.
func FanOut(ctx context.Context, providers []Provider, prompts []string, opts FanOutOptions) []Response {
	if len(providers) == 0 || len(prompts) == 0 {
		return []Response{}
	}

	caller := opts.Caller
	if caller == nil {
		caller = &Caller{Attempts: 1}
	}

	limiters := make(map[Name]*rate.Limiter, len(providers))
	for _, p := range providers {
		limit := rate.Inf
		if opts.RequestsPerSecond > 0 {
			limit = rate.Limit(opts.RequestsPerSecond)
		}
		limiters[p.Name()] = rate.NewLimiter(limit, 1)
	}

	var (
		mu        sync.Mutex
		responses = make([]Response, 0, len(providers)*len(prompts))
	)

	// Goroutines never return an error: one failed call must not cancel the rest.
	g := new(errgroup.Group)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for _, p := range providers {
		call := caller.Wrap(p)
		limiter := limiters[p.Name()]
		var timeout time.Duration
		if opts.Timeout != nil {
			timeout = opts.Timeout(p.Name())
		}

		for i, prompt := range prompts {
			g.Go(func() error {
				text := ""
				if err := limiter.Wait(ctx); err == nil {
					res := Settle(ctx, timeout, "", func(callCtx context.Context) (string, error) {
						return call(callCtx, prompt), nil
					})
					text = res.Value
				}

				mu.Lock()
				responses = append(responses, Response{
					Provider:    p.Name(),
					PromptIndex: i,
					Prompt:      prompt,
					Text:        text,
					Success:     strings.TrimSpace(text) != "",
				})
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.SliceStable(responses, func(a, b int) bool {
		ra, rb := rank(responses[a].Provider), rank(responses[b].Provider)
		if ra != rb {
			return ra < rb
		}
		if responses[a].Provider != responses[b].Provider {
			return responses[a].Provider < responses[b].Provider
		}
		return responses[a].PromptIndex < responses[b].PromptIndex
	})
	return responses
}

// ByProvider groups responses by provider, keeping prompt order.
func ByProvider(responses []Response) map[Name][]Response {
	out := make(map[Name][]Response)
	for _, r := range responses {
		out[r.Provider] = append(out[r.Provider], r)
	}
	return out
}
