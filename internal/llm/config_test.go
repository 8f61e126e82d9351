package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	tests := []struct {
		provider     Provider
		wantProvider Provider
		wantModel    string
	}{
		{ProviderGemini, ProviderGemini, "gemini-1.5-flash"},
		{ProviderOpenAI, ProviderOpenAI, "gpt-4o-mini"},
		{ProviderAnthropic, ProviderAnthropic, "claude-3-5-haiku-latest"},
		{ProviderPerplexity, ProviderPerplexity, "sonar"},
		{"mystery", ProviderGemini, "gemini-1.5-flash"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			cfg := DefaultConfig(tt.provider)
			assert.Equal(t, tt.wantProvider, cfg.Provider)
			assert.Equal(t, tt.wantModel, cfg.GetModel(TierStandard))
			assert.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt)
		})
	}
}

func TestSingleModelConfig_AllTiers(t *testing.T) {
	cfg := SingleModelConfig(ProviderPerplexity, "sonar-pro")

	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		assert.Equal(t, "sonar-pro", cfg.GetModel(tier))
	}
}

func TestGetModel_Fallback(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierAdvanced: "big", TierStandard: "mid"}}
	assert.Equal(t, "mid", cfg.GetModel(TierLite))
	assert.Equal(t, "big", cfg.GetModel(TierAdvanced))

	cfg = &Config{Models: map[ModelTier]string{TierAdvanced: "only"}}
	assert.Equal(t, "only", cfg.GetModel("unknown"))

	assert.Empty(t, (&Config{}).GetModel(TierLite))
}
