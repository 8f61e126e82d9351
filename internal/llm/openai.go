package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"
)

// PerplexityBaseURL is Perplexity's OpenAI-compatible endpoint.
const PerplexityBaseURL = "https://api.perplexity.ai/"

// OpenAIClient implements Client for OpenAI chat completions and any
// OpenAI-compatible endpoint.
type OpenAIClient struct {
	client   openai.Client
	config   *Config
	provider Provider
}

// NewOpenAIClient creates a client for the OpenAI API. SDK retries are disabled
// because the provider layer owns the retry policy.
func NewOpenAIClient(config *Config, apiKey string, opts ...oaioption.RequestOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig(ProviderOpenAI)
	}

	base := []oaioption.RequestOption{
		oaioption.WithAPIKey(apiKey),
		oaioption.WithMaxRetries(0),
	}
	return &OpenAIClient{
		client:   openai.NewClient(append(base, opts...)...),
		config:   config,
		provider: config.Provider,
	}, nil
}

// NewPerplexityClient creates an OpenAIClient pointed at Perplexity. Options
// given later (such as a test base URL) override the default endpoint.
func NewPerplexityClient(config *Config, apiKey string, opts ...oaioption.RequestOption) (*OpenAIClient, error) {
	if config == nil {
		config = DefaultConfig(ProviderPerplexity)
	}
	opts = append([]oaioption.RequestOption{oaioption.WithBaseURL(PerplexityBaseURL)}, opts...)
	c, err := NewOpenAIClient(config, apiKey, opts...)
	if err != nil {
		return nil, err
	}
	c.provider = ProviderPerplexity
	return c, nil
}

// GenerateContent sends the prompt as a single user turn after the system persona.
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if c.config.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(c.config.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(modelName),
		Messages:    messages,
		Temperature: openai.Float(float64(c.config.Temperature)),
	})
	if err != nil {
		return "", c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response: %w", c.provider, ErrEmptyResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

// GenerateJSON asks for content and strips everything around the JSON payload.
// No response_format is sent: Perplexity rejects it and arrays are not objects.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK holds no long-lived resources.
func (c *OpenAIClient) Close() error {
	return nil
}

func (c *OpenAIClient) wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   string(c.provider),
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.Message),
			Cause:      err,
		}
	}
	return fmt.Errorf("%s request failed: %w", c.provider, err)
}
