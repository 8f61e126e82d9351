// Package llm provides the LLM client abstraction shared by the providers, the
// discovery extractor and the candidate validator.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: extraction, candidate scoring
	TierLite ModelTier = "lite"
	// TierStandard is for answering visibility prompts
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form comparisons
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM vendor
type Provider string

// Supported LLM vendors
const (
	ProviderGemini     Provider = "gemini"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
	ProviderPerplexity Provider = "perplexity"
)

// DefaultSystemPrompt is the analyst persona sent to providers that accept a system message.
const DefaultSystemPrompt = "You are a market research analyst. Answer with concrete brand names, " +
	"rank options when asked, and cite the websites you rely on."

// Config holds the model configuration for one vendor
type Config struct {
	Provider     Provider
	Models       map[ModelTier]string
	SystemPrompt string
	Temperature  float32
}

// defaultModels is used when a constructor is given a nil Config.
var defaultModels = map[Provider]string{
	ProviderGemini:     "gemini-1.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderAnthropic:  "claude-3-5-haiku-latest",
	ProviderPerplexity: "sonar",
}

// DefaultConfig returns the single-model config for a vendor's default model.
// Unknown vendors fall back to Gemini.
func DefaultConfig(provider Provider) *Config {
	model, ok := defaultModels[provider]
	if !ok {
		provider, model = ProviderGemini, defaultModels[ProviderGemini]
	}
	return SingleModelConfig(provider, model)
}

// SingleModelConfig maps every tier to one model, which is how the fan-out
// providers are configured.
func SingleModelConfig(provider Provider, model string) *Config {
	return &Config{
		Provider: provider,
		Models: map[ModelTier]string{
			TierLite:     model,
			TierStandard: model,
			TierAdvanced: model,
		},
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  0.1,
	}
}

// GetModel returns the model for tier, falling back to the standard model
// and then to any configured one.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite, TierAdvanced} {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}
