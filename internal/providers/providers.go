// Package providers fans prompts out to the configured LLM providers and collects
// one settled response per (provider, prompt) pair. The search API is held by the
// registry for discovery, which bounds each query itself.
package providers

import (
	"context"
	"fmt"

	"github.com/jonathan/ai-visibility/internal/llm"
)

// Name identifies a provider.
type Name string

// Known providers, in report order.
const (
	Gemini     Name = "gemini"
	ChatGPT    Name = "chatgpt"
	Claude     Name = "claude"
	Perplexity Name = "perplexity"
	Search     Name = "search"
)

// All lists every provider in report order.
var All = []Name{Gemini, ChatGPT, Claude, Perplexity, Search}

// LLMs lists the model-backed providers.
var LLMs = []Name{Gemini, ChatGPT, Claude, Perplexity}

// rank orders names for output; unknown names sort last.
func rank(n Name) int {
	for i, known := range All {
		if known == n {
			return i
		}
	}
	return len(All)
}

// Provider answers a prompt with free text.
type Provider interface {
	Name() Name
	Call(ctx context.Context, prompt string) (string, error)
}

// LLMProvider exposes an llm.Client as a Provider.
type LLMProvider struct {
	name   Name
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMProvider wraps client under name.
func NewLLMProvider(name Name, client llm.Client) *LLMProvider {
	return &LLMProvider{name: name, client: client, tier: llm.TierStandard}
}

// Name returns the provider name.
func (p *LLMProvider) Name() Name { return p.name }

// Client returns the underlying LLM client.
func (p *LLMProvider) Client() llm.Client { return p.client }

// Call sends prompt to the model.
func (p *LLMProvider) Call(ctx context.Context, prompt string) (string, error) {
	text, err := p.client.GenerateContent(ctx, prompt, p.tier)
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.name, err)
	}
	return text, nil
}

// Func adapts a function to Provider, mainly for tests and custom providers.
type Func struct {
	ProviderName Name
	Fn           func(ctx context.Context, prompt string) (string, error)
}

// Name returns the configured name.
func (f Func) Name() Name { return f.ProviderName }

// Call invokes Fn.
func (f Func) Call(ctx context.Context, prompt string) (string, error) { return f.Fn(ctx, prompt) }
