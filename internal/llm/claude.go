package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	antoption "github.com/anthropics/anthropic-sdk-go/option"
)

const claudeMaxTokens = 1024

// ClaudeClient implements Client over the Anthropic Messages API.
type ClaudeClient struct {
	client anthropic.Client
	config *Config
}

// NewClaudeClient creates a new Claude client. SDK retries are off; the provider
// layer retries. Options such as a test base URL are applied last.
func NewClaudeClient(config *Config, apiKey string, opts ...antoption.RequestOption) (*ClaudeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultConfig(ProviderAnthropic)
	}

	base := []antoption.RequestOption{
		antoption.WithAPIKey(apiKey),
		antoption.WithMaxRetries(0),
	}
	return &ClaudeClient{
		client: anthropic.NewClient(append(base, opts...)...),
		config: config,
	}, nil
}

// GenerateContent sends the prompt as a single user turn under the system persona
// and joins the text blocks of the answer.
func (c *ClaudeClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   claudeMaxTokens,
		Temperature: anthropic.Float(float64(c.config.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.config.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.config.SystemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", wrapClaudeError(err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in claude response: %w", ErrEmptyResponse)
	}
	return sb.String(), nil
}

// GenerateJSON generates JSON content using the specified model tier
func (c *ClaudeClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *ClaudeClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the SDK holds no long-lived resources.
func (c *ClaudeClient) Close() error {
	return nil
}

func wrapClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			Provider:   string(ProviderAnthropic),
			StatusCode: apiErr.StatusCode,
			Message:    strings.TrimSpace(apiErr.Error()),
			Cause:      err,
		}
	}
	return fmt.Errorf("claude request failed: %w", err)
}
