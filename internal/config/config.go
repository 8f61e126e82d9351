// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/ai-visibility/internal/scoring"
)

// Defaults applied by MergeWithDefaults.
const (
	DefaultGeminiModel     = "gemini-1.5-flash"
	DefaultChatGPTModel    = "gpt-4o-mini"
	DefaultClaudeModel     = "claude-3-5-haiku-latest"
	DefaultPerplexityModel = "sonar"

	DefaultConcurrency       = 8
	DefaultRequestsPerSecond = 2.0
	DefaultCoverageThreshold = 0.5

	DefaultValidationThreshold = 60
	DefaultFailOpenTopN        = 10
	DefaultMaxCompetitors      = 8

	DefaultLogLevel = "info"
)

// Config represents the configuration that can be loaded from a JSON file and
// overlaid with environment variables. Zero values mean "use the default".
type Config struct {
	// API keys
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	OpenAIAPIKey     string `json:"openai_api_key,omitempty"`
	AnthropicAPIKey  string `json:"anthropic_api_key,omitempty"`
	PerplexityAPIKey string `json:"perplexity_api_key,omitempty"`
	SearchAPIKey     string `json:"search_api_key,omitempty"`
	SearchCX         string `json:"search_cx,omitempty"`

	Models   Models   `json:"models"`
	Timeouts Timeouts `json:"timeouts"`

	// Retry applies to overloaded LLM providers, SearchRetry to HTTP 429 from search.
	Retry       RetryPolicy `json:"retry"`
	SearchRetry RetryPolicy `json:"search_retry"`

	Concurrency       int     `json:"concurrency,omitempty" validate:"gte=0,lte=256"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" validate:"gte=0"`

	Visibility        scoring.VisibilityWeights `json:"visibility_weights"`
	Ravi              scoring.RaviWeights       `json:"ravi_weights"`
	CoverageThreshold float64                   `json:"coverage_threshold,omitempty" validate:"gte=0,lte=10"`

	Discovery Discovery `json:"discovery"`

	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,url"`
	LogLevel    string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	TablesPath  string `json:"tables_path,omitempty"` // JSON override for the discovery fallback tables
	Verbose     bool   `json:"verbose,omitempty"`
}

// Models names the model used for each LLM provider.
type Models struct {
	Gemini     string `json:"gemini,omitempty"`
	ChatGPT    string `json:"chatgpt,omitempty"`
	Claude     string `json:"claude,omitempty"`
	Perplexity string `json:"perplexity,omitempty"`
}

// Timeouts are per-call budgets in milliseconds.
type Timeouts struct {
	GeminiMS     int `json:"gemini_ms,omitempty" validate:"gte=0"`
	ChatGPTMS    int `json:"chatgpt_ms,omitempty" validate:"gte=0"`
	ClaudeMS     int `json:"claude_ms,omitempty" validate:"gte=0"`
	PerplexityMS int `json:"perplexity_ms,omitempty" validate:"gte=0"`
	SearchMS     int `json:"search_ms,omitempty" validate:"gte=0"`
}

// For returns the timeout for a provider name. Unknown names get the longest budget.
func (t Timeouts) For(provider string) time.Duration {
	switch provider {
	case "gemini":
		return millis(t.GeminiMS)
	case "chatgpt":
		return millis(t.ChatGPTMS)
	case "claude":
		return millis(t.ClaudeMS)
	case "perplexity":
		return millis(t.PerplexityMS)
	case "search":
		return millis(t.SearchMS)
	}
	return millis(max(t.GeminiMS, t.ChatGPTMS, t.ClaudeMS, t.PerplexityMS, t.SearchMS))
}

// LLM returns the longest model budget, for calls that may reach any model.
func (t Timeouts) LLM() time.Duration {
	return millis(max(t.GeminiMS, t.ChatGPTMS, t.ClaudeMS, t.PerplexityMS))
}

// RetryPolicy is an exponential backoff: BaseDelay * 2^attempt between Attempts tries.
type RetryPolicy struct {
	Attempts    int `json:"attempts,omitempty" validate:"gte=0,lte=10"`
	BaseDelayMS int `json:"base_delay_ms,omitempty" validate:"gte=0"`
}

// BaseDelay returns the base backoff as a duration.
func (r RetryPolicy) BaseDelay() time.Duration {
	return millis(r.BaseDelayMS)
}

// Discovery tunes the competitor discovery pipeline.
type Discovery struct {
	ValidationThreshold int `json:"validation_threshold,omitempty" validate:"gte=0,lte=100"`
	FailOpenTopN        int `json:"fail_open_top_n,omitempty" validate:"gte=0"`
	MaxCompetitors      int `json:"max_competitors,omitempty" validate:"gte=0,lte=50"`
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Default returns the built-in configuration without any API keys.
func Default() Config {
	return Config{
		Models: Models{
			Gemini:     DefaultGeminiModel,
			ChatGPT:    DefaultChatGPTModel,
			Claude:     DefaultClaudeModel,
			Perplexity: DefaultPerplexityModel,
		},
		Timeouts: Timeouts{
			GeminiMS:     15000,
			ChatGPTMS:    12000,
			ClaudeMS:     12000,
			PerplexityMS: 10000,
			SearchMS:     7000,
		},
		Retry:             RetryPolicy{Attempts: 3, BaseDelayMS: 1000},
		SearchRetry:       RetryPolicy{Attempts: 3, BaseDelayMS: 2000},
		Concurrency:       DefaultConcurrency,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Visibility:        scoring.DefaultVisibilityWeights(),
		Ravi:              scoring.DefaultRaviWeights(),
		CoverageThreshold: DefaultCoverageThreshold,
		Discovery: Discovery{
			ValidationThreshold: DefaultValidationThreshold,
			FailOpenTopN:        DefaultFailOpenTopN,
			MaxCompetitors:      DefaultMaxCompetitors,
		},
		LogLevel: DefaultLogLevel,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the environment-backed fields through getenv (os.Getenv in production).
func FromEnv(getenv func(string) string) Config {
	return Config{
		GeminiAPIKey:     getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  getenv("ANTHROPIC_API_KEY"),
		PerplexityAPIKey: getenv("PERPLEXITY_API_KEY"),
		SearchAPIKey:     getenv("GOOGLE_SEARCH_API_KEY"),
		SearchCX:         getenv("GOOGLE_SEARCH_CX"),
		DatabaseURL:      getenv("DATABASE_URL"),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL")),
	}
}

// Resolve builds the effective configuration: the file at path (optional) wins over
// the environment, which wins over the defaults. The result is validated.
func Resolve(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(FromEnv(getenv))
	merged = merged.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values. Zero values are allowed
// since MergeWithDefaults fills them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !c.Visibility.IsZero() {
		if err := c.Visibility.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if !c.Ravi.IsZero() {
		if err := c.Ravi.Validate(); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.TablesPath != "" {
		if _, err := os.Stat(c.TablesPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: tables file not found: %s", c.TablesPath)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	result.GeminiAPIKey = orString(result.GeminiAPIKey, defaults.GeminiAPIKey)
	result.OpenAIAPIKey = orString(result.OpenAIAPIKey, defaults.OpenAIAPIKey)
	result.AnthropicAPIKey = orString(result.AnthropicAPIKey, defaults.AnthropicAPIKey)
	result.PerplexityAPIKey = orString(result.PerplexityAPIKey, defaults.PerplexityAPIKey)
	result.SearchAPIKey = orString(result.SearchAPIKey, defaults.SearchAPIKey)
	result.SearchCX = orString(result.SearchCX, defaults.SearchCX)
	result.DatabaseURL = orString(result.DatabaseURL, defaults.DatabaseURL)
	result.LogLevel = orString(result.LogLevel, defaults.LogLevel)
	result.TablesPath = orString(result.TablesPath, defaults.TablesPath)

	result.Models.Gemini = orString(result.Models.Gemini, defaults.Models.Gemini)
	result.Models.ChatGPT = orString(result.Models.ChatGPT, defaults.Models.ChatGPT)
	result.Models.Claude = orString(result.Models.Claude, defaults.Models.Claude)
	result.Models.Perplexity = orString(result.Models.Perplexity, defaults.Models.Perplexity)

	result.Timeouts.GeminiMS = orInt(result.Timeouts.GeminiMS, defaults.Timeouts.GeminiMS)
	result.Timeouts.ChatGPTMS = orInt(result.Timeouts.ChatGPTMS, defaults.Timeouts.ChatGPTMS)
	result.Timeouts.ClaudeMS = orInt(result.Timeouts.ClaudeMS, defaults.Timeouts.ClaudeMS)
	result.Timeouts.PerplexityMS = orInt(result.Timeouts.PerplexityMS, defaults.Timeouts.PerplexityMS)
	result.Timeouts.SearchMS = orInt(result.Timeouts.SearchMS, defaults.Timeouts.SearchMS)

	result.Retry.Attempts = orInt(result.Retry.Attempts, defaults.Retry.Attempts)
	result.Retry.BaseDelayMS = orInt(result.Retry.BaseDelayMS, defaults.Retry.BaseDelayMS)
	result.SearchRetry.Attempts = orInt(result.SearchRetry.Attempts, defaults.SearchRetry.Attempts)
	result.SearchRetry.BaseDelayMS = orInt(result.SearchRetry.BaseDelayMS, defaults.SearchRetry.BaseDelayMS)

	result.Concurrency = orInt(result.Concurrency, defaults.Concurrency)
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if result.CoverageThreshold == 0 {
		result.CoverageThreshold = defaults.CoverageThreshold
	}

	// Weights merge as a unit so a partially specified set is never blended with defaults.
	if result.Visibility.IsZero() {
		result.Visibility = defaults.Visibility
	}
	if result.Ravi.IsZero() {
		result.Ravi = defaults.Ravi
	}

	result.Discovery.ValidationThreshold = orInt(result.Discovery.ValidationThreshold, defaults.Discovery.ValidationThreshold)
	result.Discovery.FailOpenTopN = orInt(result.Discovery.FailOpenTopN, defaults.Discovery.FailOpenTopN)
	result.Discovery.MaxCompetitors = orInt(result.Discovery.MaxCompetitors, defaults.Discovery.MaxCompetitors)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// HasKey reports whether key looks like a real credential.
func HasKey(key string) bool {
	return strings.TrimSpace(key) != "" && !IsPlaceholderKey(key)
}

var placeholderMarkers = []string{"changeme", "change-me", "placeholder", "xxx", "...", "…"}

// IsPlaceholderKey reports whether key is a template value copied from an example
// env file rather than a real credential ("your-api-key", "sk-...", "<KEY>").
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	if strings.HasPrefix(k, "your-") || strings.HasPrefix(k, "your_") || (strings.HasPrefix(k, "<") && strings.HasSuffix(k, ">")) {
		return true
	}
	for _, m := range placeholderMarkers {
		if strings.Contains(k, m) {
			return true
		}
	}
	return false
}
